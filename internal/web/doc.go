// Package web serves the parkfinder browser page.
//
// Every search request builds a fresh view.Display, runs the pipeline into it
// and renders the page from that display, so requests never share state. Row
// removal happens in the browser: each delete button removes the row element
// it belongs to and nothing is sent back to the server.
package web
