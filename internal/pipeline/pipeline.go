package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pfrederiksen/parkfinder/internal/logger"
	"github.com/pfrederiksen/parkfinder/internal/nps"
	"github.com/pfrederiksen/parkfinder/internal/view"
)

const tracerName = "github.com/pfrederiksen/parkfinder/internal/pipeline"

// Source fetches records for a state code. *nps.Client implements it.
type Source interface {
	FetchParks(ctx context.Context, region string) ([]nps.Park, error)
	FetchCampgrounds(ctx context.Context, region string) ([]nps.Campground, error)
}

// ChainPolicy decides whether the campgrounds stage runs after a parks failure
type ChainPolicy int

const (
	// StopOnParksFailure skips campgrounds when parks failed
	StopOnParksFailure ChainPolicy = iota
	// ContinueOnParksFailure always fetches campgrounds
	ContinueOnParksFailure
)

func (p ChainPolicy) String() string {
	if p == ContinueOnParksFailure {
		return "continue"
	}
	return "stop"
}

// Pipeline runs the parks and campgrounds stages against a Source
type Pipeline struct {
	source  Source
	policy  ChainPolicy
	log     *logger.Logger
	metrics *logger.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithPolicy sets the chain policy (default StopOnParksFailure)
func WithPolicy(policy ChainPolicy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithLogger sets the logger used for stage failures (default logger.Default())
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the metrics tracker (default logger.DefaultMetrics())
func WithMetrics(m *logger.Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithTracer sets the tracer (default: the global OpenTelemetry tracer)
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// New creates a Pipeline
func New(source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		policy:  StopOnParksFailure,
		log:     logger.Default(),
		metrics: logger.DefaultMetrics(),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the pipeline's chain policy
func (p *Pipeline) Policy() ChainPolicy {
	return p.policy
}

// Run executes both stages in order against d and reports their outcomes.
// The region is normalized first. Stage failures are handled inside the stage;
// Run itself never fails.
func (p *Pipeline) Run(ctx context.Context, region string, d *view.Display) Result {
	region = nps.NormalizeRegion(region)

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("parkfinder.region", region),
			attribute.String("parkfinder.policy", p.policy.String()),
		))
	defer span.End()

	result := Result{Region: region}

	p.BeginParks(d)
	result.Parks = p.ApplyParks(d, p.FetchParks(ctx, region))

	if !p.Continue(result.Parks) {
		result.Campgrounds = p.Skip(region)
		span.SetStatus(codes.Error, "parks stage failed")
		return result
	}

	result.Campgrounds = p.ApplyCampgrounds(d, p.FetchCampgrounds(ctx, region))
	if result.Failed() {
		span.SetStatus(codes.Error, "stage failed")
	}
	return result
}

// Continue reports whether the campgrounds stage should run after parks
func (p *Pipeline) Continue(parks StageResult) bool {
	return parks.Status != StatusFailed || p.policy == ContinueOnParksFailure
}
