package fetcher

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fetch failures. The orchestrator maps these onto
// BLOCKED and UNREACHABLE verdicts instead of failing the job outright.
type ErrorKind string

const (
	KindTimeout         ErrorKind = "TIMEOUT"
	KindBlockedByRobots ErrorKind = "BLOCKED_BY_ROBOTS"
	KindHTTPError       ErrorKind = "HTTP_ERROR"
	KindNetworkError    ErrorKind = "NETWORK_ERROR"
)

// Error is the typed fetch failure returned by Fetcher.Fetch.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPError:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	case KindBlockedByRobots:
		return fmt.Sprintf("fetch %s: disallowed by robots.txt", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed: network errors,
// timeouts and server-side 5xx responses. Client errors and robots
// disallows are terminal.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetworkError:
		return true
	case KindHTTPError:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// AsFetchError extracts a *Error from err, if present.
func AsFetchError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
