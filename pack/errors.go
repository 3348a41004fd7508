package pack

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindMalformedVarint      Kind = "MalformedVarint"
	KindTruncatedInput       Kind = "TruncatedInput"
	KindInvalidDiscriminant  Kind = "InvalidDiscriminant"
	KindMaxDepthExceeded     Kind = "MaxDepthExceeded"
	KindDigestLengthMismatch Kind = "DigestLengthMismatch"
	KindOutOfRange           Kind = "OutOfRange"
	KindInvalidString        Kind = "InvalidString"
	KindTrailingBytes        Kind = "TrailingBytes"
	KindMalformedJSON        Kind = "MalformedJSON"
	KindPrecondition         Kind = "Precondition"
)

// Error is the structured error returned by every decode path.
//
// RuleID names the violated rule (e.g. PACK-VAR-001). Message is for humans.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, format string, args ...any) *Error {
	return &Error{Kind: kind, RuleID: ruleID, Message: "pack: " + fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, ruleID, msg string, cause error) *Error {
	if cause == nil {
		return newError(kind, ruleID, "%s", msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: "pack: " + msg + ": " + cause.Error(), Cause: cause}
}

// within prefixes a structured error's message with a field or element path.
// Non-structured errors are returned unchanged.
func within(path string, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	msg := e.Message
	if len(msg) > len("pack: ") && msg[:len("pack: ")] == "pack: " {
		msg = msg[len("pack: "):]
	}
	return &Error{Kind: e.Kind, RuleID: e.RuleID, Message: "pack: " + path + ": " + msg, Cause: e.Cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
