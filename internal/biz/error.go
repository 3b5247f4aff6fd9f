package biz

import (
	"errors"
	"fmt"

	"bizflow/internal/biz/code"
)

// Error is a business fault: a catalog entry bound with its arguments.
//
// The message is bound once, when the Error is built. The zero value and a
// nil *Error report code.Unknown.
type Error struct {
	bound code.Bound
	entry code.Entry
	args  []string
	cause error
	set   bool
}

// NewError binds entry with args and returns the fault.
func NewError(entry code.Entry, args ...string) *Error {
	return &Error{
		bound: entry.Bind(args...),
		entry: entry,
		args:  append([]string(nil), args...),
		set:   true,
	}
}

// NewErrorCode builds a fault from a raw code and an already final message.
func NewErrorCode(c int, message string) *Error {
	e := code.New(c, message)
	return &Error{bound: code.Bound{Code: c, Message: message}, entry: e, set: true}
}

// Failf builds a generic failure whose argument is the formatted message.
func Failf(format string, args ...any) *Error {
	return NewError(code.Fail, fmt.Sprintf(format, args...))
}

// Code returns the numeric code.
func (e *Error) Code() int {
	return e.Bound().Code
}

// Message returns the bound message.
func (e *Error) Message() string {
	return e.Bound().Message
}

// Bound returns the bound code and message.
func (e *Error) Bound() code.Bound {
	if e == nil || !e.set {
		return code.Unknown.Bind()
	}
	return e.bound
}

// Entry returns the unbound catalog entry the fault was built from.
func (e *Error) Entry() code.Entry {
	if e == nil || !e.set {
		return code.Unknown
	}
	return e.entry
}

// Args returns a copy of the arguments the message was bound with.
func (e *Error) Args() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.args...)
}

// WithCause returns a copy of e that wraps err for errors.Is / errors.As.
// The cause never leaks into the message.
func (e *Error) WithCause(err error) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.cause = err
	return &cp
}

// Error implements the error interface.
func (e *Error) Error() string {
	b := e.Bound()
	return fmt.Sprintf("biz error %d: %s", b.Code, b.Message)
}

// Unwrap returns the cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code() == t.Code()
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
