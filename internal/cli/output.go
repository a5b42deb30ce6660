package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/parkfinder/internal/pipeline"
	"github.com/pfrederiksen/parkfinder/internal/view"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt time.Time       `json:"checked_at"`
	Region    string          `json:"region"`
	Result    pipeline.Result `json:"result"`
	Display   view.Snapshot   `json:"display"`
	Removed   []removal       `json:"removed,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	region := result.Region
	if region == "" {
		region = `""`
	}
	fmt.Fprintf(w, "State: %s\n", region)

	writeSection(w, "Parks", result.Display.Parks, result.Result.Parks, verbose)
	writeSection(w, "Campgrounds", result.Display.Campgrounds, result.Result.Campgrounds, verbose)

	if len(result.Display.Gallery) > 0 {
		fmt.Fprintf(w, "\nGallery (%d):\n", len(result.Display.Gallery))
		for _, img := range result.Display.Gallery {
			fmt.Fprintf(w, "  %s\n", img.URL)
			if img.AltText != "" {
				fmt.Fprintf(w, "       Alt: %s\n", img.AltText)
			}
			if verbose {
				fmt.Fprintf(w, "       Park ID: %s\n", img.ParkID)
			}
		}
	}

	if len(result.Removed) > 0 {
		fmt.Fprintf(w, "\nRemoved %d rows\n", len(result.Removed))
	}

	return nil
}

func writeSection(w io.Writer, title string, s view.Section, stage pipeline.StageResult, verbose bool) {
	fmt.Fprintf(w, "\n%s", title)
	if verbose {
		fmt.Fprintf(w, " [%s, %s]", stage.Status, stage.Duration)
	}
	fmt.Fprintln(w, ":")

	if stage.Status == pipeline.StatusSkipped {
		fmt.Fprintln(w, "  Skipped (parks fetch failed)")
		return
	}

	switch s.Status {
	case view.StatusFailed, view.StatusEmpty:
		fmt.Fprintf(w, "  %s\n", s.Message)
		if verbose && stage.Error != "" {
			fmt.Fprintf(w, "       Error: %s\n", stage.Error)
		}
		return
	}

	for _, row := range s.Rows {
		fmt.Fprintf(w, "  %s\n", row.Title)
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", row.ID)
			if row.Description != "" {
				fmt.Fprintf(w, "       %s\n", row.Description)
			}
		}
	}
	fmt.Fprintf(w, "  Total: %d\n", len(s.Rows))
}
