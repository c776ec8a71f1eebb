package dummyjson

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every *FetchError.
	ErrFetch = errors.New("remote request failed")
	// ErrInvalidResponse is returned when a 2xx body does not have the
	// expected shape.
	ErrInvalidResponse = errors.New("invalid remote response")
)

// FetchError is a transport failure (StatusCode 0) or a non-2xx response.
// Response bodies are not inspected.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// StatusCode extracts the remote status from err, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

func invalid(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidResponse, fmt.Sprintf(format, args...))
}
