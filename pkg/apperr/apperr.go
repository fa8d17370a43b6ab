// Package apperr defines the error kinds shared by every component.
//
// Callers branch on Kind, never on message text or error shape.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindNotFound         Kind = "not_found"
	KindTransientStorage Kind = "transient_storage"
	KindExternalLookup   Kind = "external_lookup"
	KindRateLimited      Kind = "rate_limited"
	KindInternal         Kind = "internal_error"
)

// Error carries a Kind plus a stable machine-readable code.
type Error struct {
	Kind  Kind
	Code  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Code != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Code != "":
		return e.Code
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Validation returns a validation error for a request field.
func Validation(field, code string) *Error {
	return &Error{Kind: KindValidation, Field: field, Code: code}
}

func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

// TransientStorage marks a storage error that survived every retry attempt.
func TransientStorage(err error) *Error {
	return &Error{Kind: KindTransientStorage, Code: "transient_storage", Err: err}
}

func ExternalLookup(err error) *Error {
	return &Error{Kind: KindExternalLookup, Code: "external_lookup_failed", Err: err}
}

func RateLimited(code string) *Error {
	return &Error{Kind: KindRateLimited, Code: code}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}
