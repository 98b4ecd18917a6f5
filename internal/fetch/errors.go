package fetch

import "fmt"

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	ErrRequest ErrorKind = "request" // URL/request construction failed
	ErrNetwork ErrorKind = "network" // transport-level failure or timeout
	ErrStatus  ErrorKind = "status"  // non-2xx response
	ErrDecode  ErrorKind = "decode"  // body is not valid JSON
	ErrRobots  ErrorKind = "robots"  // disallowed by robots.txt
)

// Error is the typed fetch failure. It is recoverable by design: callers log
// it and continue with the next item, never abort the run.
type Error struct {
	URL    string
	Kind   ErrorKind
	Status int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == ErrStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
