package errors

import (
	// Go Internal Packages
	"fmt"
	"strings"
)

// Kind classifies an error for callers that branch on failure class.
type Kind uint8

const (
	Other Kind = iota
	Invalid
	Internal
	NotFound
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// E builds a kind-tagged error wrapping an optional cause.
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err if it is an *Error, Other otherwise.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return Other
}

type fieldError struct {
	field string
	msg   string
}

// ValidationErrors accumulates per-field validation failures.
type ValidationErrors struct {
	fields []fieldError
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{}
}

func (v *ValidationErrors) Add(field, msg string) {
	v.fields = append(v.fields, fieldError{field: field, msg: msg})
}

// Err returns nil when no failures were recorded.
func (v *ValidationErrors) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, len(v.fields))
	for i, f := range v.fields {
		parts[i] = fmt.Sprintf("%s: %s", f.field, f.msg)
	}
	return strings.Join(parts, "; ")
}
