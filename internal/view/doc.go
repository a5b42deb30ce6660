// Package view turns NPS records into display rows and holds the display state.
//
// Rendering is pure: RenderParks and RenderCampgrounds return section
// view-models and never touch a Display. A Display owns the three regions a
// surface shows (parks, campgrounds, gallery) and applies rendered sections to
// them. Rows remember the record identifier they were built from, and Remove
// matches on that identifier exactly.
package view
