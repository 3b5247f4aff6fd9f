// Package flow defines the directive a business step hands back to whoever
// orchestrates a chain of steps.
package flow

import (
	"errors"
	"fmt"
	"strings"
)

// Directive tells an orchestrator what to do after a step.
type Directive int

const (
	// Continue proceeds to the next step. It is the initial value.
	Continue Directive = iota
	// Break stops the chain without compensation.
	Break
	// Rollback stops the chain and compensates prior steps.
	Rollback
)

// ErrUnknownDirective is returned when text does not name a directive.
var ErrUnknownDirective = errors.New("flow: unknown directive")

var directives = [...]struct {
	code  string
	label string
}{
	Continue: {"continue", "Continue"},
	Break:    {"break", "Break"},
	Rollback: {"rollback", "Rollback"},
}

// Code returns the stable machine code ("continue", "break", "rollback").
func (d Directive) Code() string {
	if !d.Valid() {
		return "unknown"
	}
	return directives[d].code
}

// Label returns the display label.
func (d Directive) Label() string {
	if !d.Valid() {
		return "Unknown"
	}
	return directives[d].label
}

// Valid reports whether d is one of the defined directives.
func (d Directive) Valid() bool {
	return d >= Continue && d <= Rollback
}

// String implements fmt.Stringer.
func (d Directive) String() string { return d.Code() }

// Parse returns the directive with the given code. Matching is case-insensitive.
func Parse(s string) (Directive, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, v := range directives {
		if v.code == s {
			return Directive(i), nil
		}
	}
	return Continue, fmt.Errorf("%w: %q", ErrUnknownDirective, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Directive) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirective, int(d))
	}
	return []byte(d.Code()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Directive) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
