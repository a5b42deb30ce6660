package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/parkfinder/internal/logger"
	"github.com/pfrederiksen/parkfinder/internal/nps"
	"github.com/pfrederiksen/parkfinder/internal/pipeline"
	"github.com/pfrederiksen/parkfinder/internal/telemetry"
)

const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitStageFailed = 3
)

// Environment variables read as flag defaults
const (
	EnvAPIKey  = "NPS_API_KEY"
	EnvBaseURL = "NPS_API_BASE_URL"
	EnvAddr    = "PARKFINDER_ADDR"
)

// ErrStageFailed is returned by search when a pipeline stage failed
var ErrStageFailed = errors.New("one or more fetch stages failed")

// options holds the flags shared by every command
type options struct {
	apiKey   string
	baseURL  string
	timeout  time.Duration
	decouple bool
	logLevel string
	verbose  bool

	getenv  func(string) string
	metrics *logger.Metrics
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.Getenv)
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	opts := &options{getenv: getenv}

	baseURL := getenv(EnvBaseURL)
	if baseURL == "" {
		baseURL = nps.DefaultBaseURL
	}

	cmd := &cobra.Command{
		Use:   "parkfinder",
		Short: "Find national parks and campgrounds by state",
		Long: `A tool to look up national parks and campgrounds for a US state code
using the National Park Service API. Results can be printed once (search),
served as a web page (serve) or browsed interactively (browse).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiKey, "api-key", getenv(EnvAPIKey), "NPS API key (or env: "+EnvAPIKey+")")
	flags.StringVar(&opts.baseURL, "base-url", baseURL, "NPS API base URL (or env: "+EnvBaseURL+")")
	flags.DurationVar(&opts.timeout, "timeout", nps.Timeout, "Timeout for each API request")
	flags.BoolVar(&opts.decouple, "decouple", false, "Fetch campgrounds even when the parks fetch failed")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output")

	cmd.AddCommand(
		newSearchCmd(opts),
		newServeCmd(opts),
		newBrowseCmd(opts),
	)

	return cmd
}

// setupLogger installs the default logger writing to w
func (o *options) setupLogger(w io.Writer) (*logger.Logger, error) {
	level, err := logger.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	if o.verbose && level != logger.LevelDebug {
		level = logger.LevelDebug
	}

	log := logger.New(level, w)
	logger.SetDefault(log)
	return log, nil
}

// newPipeline validates the API configuration and builds the pipeline
func (o *options) newPipeline(log *logger.Logger) (*pipeline.Pipeline, error) {
	if strings.TrimSpace(o.apiKey) == "" {
		return nil, fmt.Errorf("--api-key is required (or set %s)", EnvAPIKey)
	}
	if o.timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout: %s (must be positive)", o.timeout)
	}

	client := nps.NewClient(o.apiKey,
		nps.WithBaseURL(o.baseURL),
		nps.WithHTTPClient(newHTTPClient(o.timeout)),
	)

	policy := pipeline.StopOnParksFailure
	if o.decouple {
		policy = pipeline.ContinueOnParksFailure
	}

	log.Debug("Pipeline configured", logger.Fields{
		"base_url": client.BaseURL(),
		"policy":   policy.String(),
		"timeout":  o.timeout.String(),
	})

	o.metrics = logger.NewMetrics()
	return pipeline.New(client,
		pipeline.WithPolicy(policy),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(o.metrics),
	), nil
}

// withTelemetry runs fn with tracing installed when configured
func (o *options) withTelemetry(ctx context.Context, log *logger.Logger, fn func() error) error {
	shutdown, enabled, err := telemetry.Setup(ctx, o.getenv)
	if err != nil {
		log.Warn("Tracing disabled", logger.Fields{"reason": err.Error()})
	}
	if enabled {
		log.Debug("Tracing enabled", logger.Fields{"endpoint": o.getenv(telemetry.EndpointEnv)})
	}

	runErr := fn()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		log.Warn("Flushing traces failed", logger.Fields{"error": err.Error()})
	}

	return runErr
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
		os.Exit(ExitSuccess)
	case errors.Is(err, ErrStageFailed):
		os.Exit(ExitStageFailed)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
