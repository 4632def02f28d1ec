package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by host ports when the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrEmptyEventName rejects events without a name.
	ErrEmptyEventName = errors.New("event name is required")

	// ErrMissingCapability is returned when a payload lacks what a handler needs.
	ErrMissingCapability = errors.New("event payload lacks required capability")
)

// ObjectError carries the error messages the host attached to an object when
// an operation on it failed (a negative result code on the host side).
type ObjectError struct {
	Op       string
	Messages []string
}

func (e *ObjectError) Error() string {
	if len(e.Messages) == 0 {
		return e.Op + " failed"
	}
	return e.Op + ": " + strings.Join(e.Messages, "; ")
}
