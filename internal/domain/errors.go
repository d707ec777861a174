package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrCredentialNotFound is returned when a named credential does not exist
var ErrCredentialNotFound = errors.New("credential not found")

// ErrorKind classifies a failure
type ErrorKind string

const (
	KindUnknown       ErrorKind = "unknown"
	KindUnreachable   ErrorKind = "unreachable"
	KindTimeout       ErrorKind = "timeout"
	KindAuthFailed    ErrorKind = "auth_failed"
	KindSession       ErrorKind = "session"
	KindParseMismatch ErrorKind = "parse_mismatch"
	KindConfiguration ErrorKind = "configuration"
	KindCanceled      ErrorKind = "canceled"
)

// Error is a classified failure tied to an operation and target
type Error struct {
	Kind   ErrorKind
	Op     string // e.g. "connect", "execute"
	Target string // switch address, inventory path, ...
	Err    error
}

// NewError wraps err with a kind
func NewError(kind ErrorKind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", msg, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", msg, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
// Context errors without an *Error map to KindCanceled / KindTimeout.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ConfigError builds a KindConfiguration error
func ConfigError(target string, format string, args ...any) *Error {
	return NewError(KindConfiguration, "load", target, fmt.Errorf(format, args...))
}
