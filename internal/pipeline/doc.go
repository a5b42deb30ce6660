// Package pipeline runs the two ordered fetch stages behind every search.
//
// The parks stage clears the gallery, fetches parks and renders them; the
// campgrounds stage fetches and renders campgrounds. Each stage is split into
// a fetch half that only does I/O and an apply half that only mutates a
// view.Display, so event-loop surfaces can fetch off the loop and apply on it.
// A ChainPolicy decides whether the campgrounds stage runs after the parks
// stage failed.
package pipeline
