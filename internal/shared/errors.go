// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by the step that produced it.
type Kind string

// Failure kinds, one per pipeline step.
const (
	KindEmptyInput  Kind = "empty_input"
	KindConversion  Kind = "conversion"
	KindUpload      Kind = "upload"
	KindJobStart    Kind = "job_start"
	KindJobFailed   Kind = "job_failed"
	KindTimedOut    Kind = "timed_out"
	KindResultFetch Kind = "result_fetch"
	KindModelCall   Kind = "model_call"
	KindSynthesis   Kind = "synthesis"
)

// Sentinels for errors.Is matching. An *Error matches the sentinel of its Kind.
var (
	ErrEmptyInput  = &Error{Kind: KindEmptyInput}
	ErrConversion  = &Error{Kind: KindConversion}
	ErrUpload      = &Error{Kind: KindUpload}
	ErrJobStart    = &Error{Kind: KindJobStart}
	ErrJobFailed   = &Error{Kind: KindJobFailed}
	ErrTimedOut    = &Error{Kind: KindTimedOut}
	ErrResultFetch = &Error{Kind: KindResultFetch}
	ErrModelCall   = &Error{Kind: KindModelCall}
	ErrSynthesis   = &Error{Kind: KindSynthesis}
)

// Error is a step-aware pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Errorf builds an *Error of the given kind wrapping cause.
func Errorf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
