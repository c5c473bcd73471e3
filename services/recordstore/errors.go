package recordstore

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransportError means the store could not be reached or did not answer in time.
// The request may still have been received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("recordstore %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline rather than a refused/broken connection.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// NotFoundError means the route itself answered 404/405.
type NotFoundError struct {
	Op     string
	Path   string
	Status int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recordstore %s: %s returned %d", e.Op, e.Path, e.Status)
}

// StatusError is any other non-2xx answer.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recordstore %s: status=%d, body=%s", e.Op, e.Status, e.Body)
}

// MalformedResponseError is a 2xx answer whose shape could not be understood.
type MalformedResponseError struct {
	Op     string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recordstore %s: malformed response: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("recordstore %s: malformed response: %s", e.Op, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsTransport reports whether err (or anything it wraps) is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
