package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pfrederiksen/parkfinder/internal/logger"
	"github.com/pfrederiksen/parkfinder/internal/nps"
	"github.com/pfrederiksen/parkfinder/internal/view"
)

// StageName names a pipeline stage
type StageName string

const (
	StageParks       StageName = "parks"
	StageCampgrounds StageName = "campgrounds"
)

// StageStatus is the outcome of one stage
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusEmpty   StageStatus = "empty"
	StatusFailed  StageStatus = "failed"
	StatusSkipped StageStatus = "skipped"
)

// StageResult describes how one stage ended
type StageResult struct {
	Stage    StageName     `json:"stage"`
	Status   StageStatus   `json:"status"`
	Count    int           `json:"count"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Result collects the outcome of both stages of one run
type Result struct {
	Region      string      `json:"region"`
	Parks       StageResult `json:"parks"`
	Campgrounds StageResult `json:"campgrounds"`
}

// Failed reports whether either stage failed
func (r Result) Failed() bool {
	return r.Parks.Status == StatusFailed || r.Campgrounds.Status == StatusFailed
}

// ParksOutcome is the result of the parks fetch half
type ParksOutcome struct {
	Region  string
	Parks   []nps.Park
	Err     error
	Elapsed time.Duration
}

// CampgroundsOutcome is the result of the campgrounds fetch half
type CampgroundsOutcome struct {
	Region      string
	Campgrounds []nps.Campground
	Err         error
	Elapsed     time.Duration
}

// BeginParks prepares the display for a parks fetch by clearing the gallery
func (p *Pipeline) BeginParks(d *view.Display) {
	d.ClearGallery()
}

// FetchParks performs the parks request. It does not touch any display.
func (p *Pipeline) FetchParks(ctx context.Context, region string) ParksOutcome {
	ctx, span := p.startStage(ctx, StageParks, region)
	defer span.End()

	start := p.now()
	parks, err := p.source.FetchParks(ctx, region)
	out := ParksOutcome{Region: region, Parks: parks, Err: err, Elapsed: p.now().Sub(start)}

	endStage(span, len(parks), err)
	return out
}

// ApplyParks renders a parks outcome into d, or the failure message on error
func (p *Pipeline) ApplyParks(d *view.Display, o ParksOutcome) StageResult {
	if o.Err != nil {
		p.stageLog(StageParks, o.Region).Error("Error fetching parks", nil, o.Err)
		d.Fail(view.KindPark)
		return p.record(StageParks, StatusFailed, 0, o.Err, o.Elapsed)
	}

	d.ApplyParks(view.RenderParks(o.Parks))
	p.stageLog(StageParks, o.Region).Debug("Rendered parks", logger.Fields{"count": len(o.Parks)})
	return p.record(StageParks, countStatus(len(o.Parks)), len(o.Parks), nil, o.Elapsed)
}

// FetchCampgrounds performs the campgrounds request. It does not touch any display.
func (p *Pipeline) FetchCampgrounds(ctx context.Context, region string) CampgroundsOutcome {
	ctx, span := p.startStage(ctx, StageCampgrounds, region)
	defer span.End()

	start := p.now()
	campgrounds, err := p.source.FetchCampgrounds(ctx, region)
	out := CampgroundsOutcome{Region: region, Campgrounds: campgrounds, Err: err, Elapsed: p.now().Sub(start)}

	endStage(span, len(campgrounds), err)
	return out
}

// ApplyCampgrounds renders a campgrounds outcome into d, or the failure message on error
func (p *Pipeline) ApplyCampgrounds(d *view.Display, o CampgroundsOutcome) StageResult {
	if o.Err != nil {
		p.stageLog(StageCampgrounds, o.Region).Error("Error fetching campgrounds", nil, o.Err)
		d.Fail(view.KindCampground)
		return p.record(StageCampgrounds, StatusFailed, 0, o.Err, o.Elapsed)
	}

	d.ApplyCampgrounds(view.RenderCampgrounds(o.Campgrounds))
	p.stageLog(StageCampgrounds, o.Region).Debug("Rendered campgrounds", logger.Fields{"count": len(o.Campgrounds)})
	return p.record(StageCampgrounds, countStatus(len(o.Campgrounds)), len(o.Campgrounds), nil, o.Elapsed)
}

// Skip records a campgrounds stage that did not run. The campgrounds list keeps
// whatever it showed before.
func (p *Pipeline) Skip(region string) StageResult {
	p.stageLog(StageCampgrounds, region).Info("Skipping campgrounds after parks failure", nil)
	p.metrics.IncrCounter("fetch.campgrounds.skipped")
	return StageResult{Stage: StageCampgrounds, Status: StatusSkipped}
}

// stageLog returns the pipeline logger tagged with a stage and region
func (p *Pipeline) stageLog(stage StageName, region string) *logger.Logger {
	return p.log.With(logger.Fields{
		"stage":  string(stage),
		"region": region,
	})
}

func (p *Pipeline) record(stage StageName, status StageStatus, count int, err error, elapsed time.Duration) StageResult {
	p.metrics.IncrCounter("fetch." + string(stage) + "." + string(status))
	p.metrics.RecordTiming("stage."+string(stage), elapsed)

	res := StageResult{Stage: stage, Status: status, Count: count, Err: err, Duration: elapsed}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func (p *Pipeline) startStage(ctx context.Context, stage StageName, region string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "pipeline."+string(stage),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("parkfinder.stage", string(stage)),
			attribute.String("parkfinder.region", region),
		))
}

func endStage(span trace.Span, count int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("parkfinder.records", count))
}

func countStatus(n int) StageStatus {
	if n == 0 {
		return StatusEmpty
	}
	return StatusOK
}
