// Package tui is the interactive terminal surface of parkfinder.
//
// The model mirrors the browser page: a state code input, the parks and
// campgrounds lists, and the gallery. Fetches run inside tea.Cmds and their
// outcomes are applied to the view.Display from Update, so the display is
// only ever mutated on the bubbletea event loop.
package tui
