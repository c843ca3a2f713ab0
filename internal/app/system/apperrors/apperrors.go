// Package apperrors defines the error kinds the HTTP boundary knows how to
// map to status codes.
//
// Stores and services return errors wrapping one of the sentinel kinds below;
// handlers pass them to jsonutil.WriteError, which does the mapping. Access
// denial is reported as NotFound on purpose so that private files are
// indistinguishable from missing ones.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel error kinds. Match with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrStorage          = errors.New("storage failure")
	ErrTimeout          = errors.New("operation timed out")
)

// Error pairs a sentinel kind with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// Validation returns a ErrValidation error with a client-facing message.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// Unauthorized returns an ErrUnauthorized error.
func Unauthorized() error {
	return &Error{Kind: ErrUnauthorized, Message: "Unauthorized"}
}

// NotFound returns an ErrNotFound error. Used for missing resources, missing
// blobs, and access denial alike.
func NotFound() error {
	return &Error{Kind: ErrNotFound, Message: "Not found"}
}

// InvalidOperation returns an ErrInvalidOperation error with a message.
func InvalidOperation(msg string) error {
	return &Error{Kind: ErrInvalidOperation, Message: msg}
}

// Storage wraps a blob-write failure.
func Storage(err error) error {
	return &Error{Kind: ErrStorage, Message: "Cannot store file"}
}

// Message returns the client-facing message for err, or fallback if err
// carries none.
func Message(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

// Classify folds context cancellation into the taxonomy so store calls that
// hit their deadline surface as Timeout rather than a generic 500.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrTimeout, Message: "Backing store unresponsive"}
	}
	return err
}
