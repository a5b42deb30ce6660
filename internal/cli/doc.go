// Package cli implements the command-line interface for parkfinder.
//
// The cli package provides the Cobra-based CLI with three commands sharing one
// configuration: search (one-shot text or JSON output), serve (the browser
// page) and browse (the terminal UI). It reads the NPS API key from a flag or
// the NPS_API_KEY environment variable, wires the nps client into a pipeline,
// and hands the pipeline to the chosen surface.
package cli
