package nps

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrFetch is matched by every transport or status failure returned by Client
var ErrFetch = errors.New("nps fetch failed")

// errNoData reports a 2xx body without a records array
var errNoData = errors.New("response has no data array")

// StatusError reports a non-2xx response from the API
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API returned status %d", e.Endpoint, e.StatusCode)
}

// Is lets errors.Is(err, ErrFetch) match status failures
func (e *StatusError) Is(target error) bool {
	return target == ErrFetch
}

// transportError wraps a network or decoding failure.
// The wrapped error never carries the request URL, which holds the API key.
type transportError struct {
	endpoint string
	op       string
	err      error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.endpoint, e.op, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrFetch, e.err}
}

// stripURL drops the *url.Error layer the HTTP client adds, keeping its cause
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
