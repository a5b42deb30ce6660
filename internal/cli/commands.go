package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/parkfinder/internal/logger"
	"github.com/pfrederiksen/parkfinder/internal/tui"
	"github.com/pfrederiksen/parkfinder/internal/view"
	"github.com/pfrederiksen/parkfinder/internal/web"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// removal is one parsed --remove value
type removal struct {
	Kind view.Kind `json:"kind"`
	ID   string    `json:"id"`
}

// parseRemoval parses "park:ID" or "campground:ID"
func parseRemoval(s string) (removal, error) {
	kindText, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return removal{}, fmt.Errorf("invalid --remove value %q (want kind:id)", s)
	}
	kind, ok := view.ParseKind(strings.ToLower(strings.TrimSpace(kindText)))
	if !ok {
		return removal{}, fmt.Errorf("invalid --remove kind %q (must be 'park' or 'campground')", kindText)
	}
	return removal{Kind: kind, ID: id}, nil
}

func newSearchCmd(opts *options) *cobra.Command {
	var (
		state   string
		format  string
		removes []string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fetch parks and campgrounds for a state and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat := OutputFormat(strings.ToLower(format))
			if outputFormat != FormatText && outputFormat != FormatJSON {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", format)
			}

			parsed := make([]removal, 0, len(removes))
			for _, r := range removes {
				rm, err := parseRemoval(r)
				if err != nil {
					return err
				}
				parsed = append(parsed, rm)
			}

			log, err := opts.setupLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p, err := opts.newPipeline(log)
			if err != nil {
				return err
			}

			return opts.withTelemetry(cmd.Context(), log, func() error {
				d := view.NewDisplay()
				result := p.Run(cmd.Context(), state, d)

				out := &OutputResult{
					CheckedAt: time.Now().UTC(),
					Region:    result.Region,
					Result:    result,
				}
				for _, rm := range parsed {
					if d.Remove(rm.Kind, rm.ID) {
						out.Removed = append(out.Removed, rm)
						continue
					}
					log.Warn("No row to remove", logger.Fields{"kind": string(rm.Kind), "id": rm.ID})
				}
				out.Display = d.Snapshot()

				if err := WriteOutput(cmd.OutOrStdout(), out, outputFormat, opts.verbose); err != nil {
					return fmt.Errorf("writing output: %w", err)
				}

				if opts.verbose {
					writeMetrics(cmd.ErrOrStderr(), opts.metrics)
				}

				if result.Failed() {
					return ErrStageFailed
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "State code (e.g., CA)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringArrayVar(&removes, "remove", nil, "Remove a row before output, as kind:id (repeatable)")

	return cmd
}

func writeMetrics(w io.Writer, m *logger.Metrics) {
	if m == nil {
		return
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m.GetSnapshot()); err != nil {
		fmt.Fprintf(w, "Error writing metrics: %v\n", err)
	}
}

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	defaultAddr := opts.getenv(EnvAddr)
	if defaultAddr == "" {
		defaultAddr = web.DefaultAddr
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search page over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.setupLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p, err := opts.newPipeline(log)
			if err != nil {
				return err
			}

			return opts.withTelemetry(cmd.Context(), log, func() error {
				return web.NewServer(p, addr, log).ListenAndServe(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address (or env: "+EnvAddr+")")

	return cmd
}

func newBrowseCmd(opts *options) *cobra.Command {
	var (
		state   string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Search and prune results in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alt screen owns the terminal, so logs go to a file or nowhere
			sink := io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				sink = f
			}

			log, err := opts.setupLogger(sink)
			if err != nil {
				return err
			}
			p, err := opts.newPipeline(log)
			if err != nil {
				return err
			}

			return opts.withTelemetry(cmd.Context(), log, func() error {
				return tui.Run(cmd.Context(), p, state)
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "State code to search on start")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of discarding them")

	return cmd
}
