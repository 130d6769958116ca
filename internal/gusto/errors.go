package gusto

import "fmt"

// UpstreamError is returned when Gusto answers with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Gusto API error: %d %s - %s", e.StatusCode, e.Status, e.Body)
}

// TransportError wraps a failure that happened before a status code was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gusto: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
