// Package nps provides a client for the National Park Service public REST API.
//
// The nps package fetches park and campground records for a state code from
// developer.nps.gov. Requests carry the state code and the API key as query
// parameters. Any non-2xx response is reported as a *StatusError; both status
// and transport failures match ErrFetch.
package nps
