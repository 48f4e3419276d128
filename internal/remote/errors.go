package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorClass tags a gateway failure so the reconciler can decide
// whether retrying is worthwhile.
type ErrorClass int

const (
	// Transient covers network failures, timeouts and 5xx responses;
	// retried with backoff.
	Transient ErrorClass = iota
	// Permanent covers malformed payloads and constraint violations;
	// retrying cannot succeed.
	Permanent
	// Unauthorized covers expired or invalid sessions.
	Unauthorized
)

// String returns the class name
func (c ErrorClass) String() string {
	switch c {
	case Permanent:
		return "permanent"
	case Unauthorized:
		return "unauthorized"
	default:
		return "transient"
	}
}

// Error is a classified remote-operation failure.
type Error struct {
	Class  ErrorClass
	Status int    // HTTP status, 0 for network-level failures
	Op     string // the gateway operation that failed
	Msg    string // server-provided message, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Class, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Class, e.Msg)
}

// classifyStatus maps an HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Unauthorized
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return Transient
	case status >= 500:
		return Transient
	case status >= 400:
		return Permanent
	default:
		return Transient
	}
}

// ClassOf returns the class of a gateway error. Errors that did not
// come from the gateway (raw network errors) are treated as transient.
func ClassOf(err error) ErrorClass {
	var re *Error
	if errors.As(err, &re) {
		return re.Class
	}
	return Transient
}
