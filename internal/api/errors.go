// ABOUTME: Categorized error type for backend REST failures
// ABOUTME: Maps transport results onto network/auth/validation/server kinds

package api

import (
	"errors"
	"fmt"
)

// Kind classifies a backend request failure. Callers branch on the kind
// to decide how to surface the failure: network and server errors get a
// dismissible notification, auth errors trigger the re-login flow, and
// validation errors map back onto the originating form fields.
type Kind int

const (
	// KindNetwork means no response was received (DNS, refused, timeout).
	KindNetwork Kind = iota + 1
	// KindAuth means the backend rejected the bearer token (401).
	KindAuth
	// KindValidation means the request was rejected with field errors (other 4xx).
	KindValidation
	// KindServer means the backend failed (5xx).
	KindServer
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by all Client operations.
type Error struct {
	Kind    Kind
	Status  int               // HTTP status, 0 for network errors
	Message string            // Human-readable message from the envelope or transport
	Fields  map[string]string // Field-level validation errors, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Retryable reports whether the failed operation may be safely retried.
// Only transient kinds qualify; the caller must additionally ensure the
// operation itself is idempotent (message sends never are).
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

// KindOf extracts the Kind from an error chain, or 0 if the error did not
// originate from this package.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}
