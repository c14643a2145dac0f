package domain

import "fmt"

// ConnectionError means the request never produced a response:
// refused, reset, DNS failure or timeout.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("connection to %s failed", e.URL)
	}
	return e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }
