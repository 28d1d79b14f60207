// Package errs defines the failure kinds shared by the codec, the generation
// adapter and the workflow controller.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindRead is a local failure to read an uploaded image.
	KindRead Kind = "read"
	// KindConfiguration is a missing or invalid backend credential.
	KindConfiguration Kind = "configuration"
	// KindExtraction means the backend answered without usable image data.
	KindExtraction Kind = "extraction"
	// KindValidation means required inputs were missing before dispatch.
	KindValidation Kind = "validation"
	// KindUnavailable is a quota or capacity refusal from the backend.
	KindUnavailable Kind = "unavailable"
)

var (
	// ErrBusy is returned when an action is attempted while a request is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrNoResult is returned when an operation needs a result image and there is none.
	ErrNoResult = errors.New("no result image available")
	// ErrDiscarded is returned when the session was reset while a request was in flight.
	ErrDiscarded = errors.New("session was reset while the request was in flight")
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Read(err error) *Error {
	return Wrap(KindRead, "failed to load image", err)
}

func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

func Extraction(message string) *Error {
	return New(KindExtraction, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	_, ok := Find(err, kind)
	return ok
}

// Find returns the first *Error of the given kind in err's chain.
func Find(err error, kind Kind) (*Error, bool) {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return e, true
		}
		err = e.Err
	}
	return nil, false
}
