package soapinvoker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEndpoint is reported when the url, namespace or method of a call is empty
	ErrInvalidEndpoint = errors.New("soapinvoker: url, namespace and method are required")

	// ErrInvalidName is reported when the method or a parameter name is not a valid XML name
	ErrInvalidName = errors.New("soapinvoker: invalid XML name")

	// ErrInvalidThreadSize is returned by SetThreadSize for sizes below 1
	ErrInvalidThreadSize = errors.New("soapinvoker: thread size must be at least 1")

	// ErrDiscarded is reported for calls that were still queued when the pool was resized
	ErrDiscarded = errors.New("soapinvoker: call discarded before it started")

	// ErrClosed is reported for calls made after Close
	ErrClosed = errors.New("soapinvoker: invoker is closed")
)

// TransportError is a failure to exchange the request with the server: dialing, writing,
// reading or an unexpected HTTP status. Calls failing this way are retried once.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("soap %s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("soap %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means the server answered but the answer is not a readable SOAP envelope.
// It is never retried.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "soap parse: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Fault is a SOAP 1.1 fault returned by the service
type Fault struct {
	Code   string
	String string
	Actor  string
	// Detail is the raw text of the detail element, if any
	Detail string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

// retryable reports whether err belongs to the transport class.
func retryable(err error) bool {
	var te *TransportError
	var fault *Fault
	return errors.As(err, &te) || errors.As(err, &fault)
}
