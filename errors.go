package main

import (
	"errors"
	"fmt"
)

// RequestError classifies why a request did not produce a file.
type RequestError int

const (
	PathTraversalAttempt RequestError = iota
	ResourceNotFound
	ServerIOFailure
	RedirectRequested
	ProtocolUnparseable
	NotImplemented
)

func (e RequestError) Error() string {
	switch e {
	case PathTraversalAttempt:
		return "path traversal attempt"
	case ResourceNotFound:
		return "resource not found"
	case ServerIOFailure:
		return "server I/O failure"
	case RedirectRequested:
		return "redirect requested"
	case ProtocolUnparseable:
		return "unparseable request"
	case NotImplemented:
		return "not implemented"
	default:
		return fmt.Sprintf("unknown request error: %d", int(e))
	}
}

// Status returns the HTTP status code the error is answered with.
func (e RequestError) Status() int {
	switch e {
	case PathTraversalAttempt:
		return 403
	case ResourceNotFound:
		return 404
	case RedirectRequested:
		return 302
	case ProtocolUnparseable:
		return 400
	case NotImplemented:
		return 501
	default:
		return 500
	}
}

// statusFor maps any error to a status code. Errors outside the taxonomy are
// treated as server failures.
func statusFor(err error) int {
	var re RequestError
	if errors.As(err, &re) {
		return re.Status()
	}
	return 500
}

// wrapIO attaches kind to a lower-level error so errors.As finds the kind
// while the cause is still printed.
func wrapIO(kind RequestError, err error) error {
	return fmt.Errorf("%w: %v", kind, err)
}
