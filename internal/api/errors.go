package api

import (
	"errors"
	"fmt"
)

// NetworkError wraps a transport failure. The request may or may not have
// reached the server; callers decide whether to retry.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is any non-2xx answer other than a name conflict.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server error: %d", e.Status)
	}
	return fmt.Sprintf("server error: %d: %s", e.Status, e.Detail)
}

// ConflictError is returned when a sibling with the same name already exists.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Detail == "" {
		return "name conflict"
	}
	return "name conflict: " + e.Detail
}

// AsConflict checks if an error is a ConflictError and returns it.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsServerError checks if an error is a ServerError and returns it.
func AsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNetwork reports whether err came from the transport.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	se, ok := AsServerError(err)
	return ok && se.Status == 404
}
