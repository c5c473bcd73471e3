package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds as stored on sessions and submission records.
const (
	KindValidation           = "ValidationError"
	KindAvailabilityConflict = "AvailabilityConflict"
	KindInconclusive         = "InconclusiveAvailabilityError"
	KindEndpointNotFound     = "EndpointNotFoundError"
	KindTransport            = "TransportError"
	KindServer               = "ServerError"
)

var (
	// ErrIllegalTransition is returned when an operation is not allowed in the session's state.
	ErrIllegalTransition = errors.New("illegal workflow transition")
	// ErrSessionNotFound is returned by session stores for unknown or expired sessions.
	ErrSessionNotFound = errors.New("booking session not found or expired")
	// ErrSessionBusy is returned when another request is driving the same session.
	ErrSessionBusy = errors.New("booking session is busy")
)

// ValidationError is local and field-scoped; it never reaches the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AvailabilityConflict means the date is off or fully booked.
type AvailabilityConflict struct {
	VendorID string
	Date     string
	Reason   string
}

func (e *AvailabilityConflict) Error() string {
	return fmt.Sprintf("%s is not available: %s", e.Date, e.Reason)
}

// InconclusiveAvailabilityError means the re-check failed for transport reasons.
// It is recorded as a warning and does not block the submission.
type InconclusiveAvailabilityError struct {
	Date string
	Err  error
}

func (e *InconclusiveAvailabilityError) Error() string {
	return fmt.Sprintf("could not confirm availability for %s: %v", e.Date, e.Err)
}

func (e *InconclusiveAvailabilityError) Unwrap() error { return e.Err }

// EndpointNotFoundError means the store has no booking creation route.
// The submission degrades to a locally tagged placeholder.
type EndpointNotFoundError struct {
	Err error
}

func (e *EndpointNotFoundError) Error() string {
	return fmt.Sprintf("booking endpoint not found: %v", e.Err)
}

func (e *EndpointNotFoundError) Unwrap() error { return e.Err }

// TransportError means the creation call timed out or could not connect.
// The booking may exist; the submission degrades to pending verification.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("booking submission not acknowledged: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is any other failure: a rejection, a 5xx or an unreadable answer.
type ServerError struct {
	Op     string
	Status int // 0 when no HTTP status applies
	Detail string
	Err    error
}

func (e *ServerError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
}

func (e *ServerError) Unwrap() error { return e.Err }

// Kind names the taxonomy entry of err, or "" for untyped errors.
func Kind(err error) string {
	var (
		ve *ValidationError
		ac *AvailabilityConflict
		ie *InconclusiveAvailabilityError
		nf *EndpointNotFoundError
		te *TransportError
		se *ServerError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ac):
		return KindAvailabilityConflict
	case errors.As(err, &ie):
		return KindInconclusive
	case errors.As(err, &nf):
		return KindEndpointNotFound
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &se):
		return KindServer
	}
	return ""
}
