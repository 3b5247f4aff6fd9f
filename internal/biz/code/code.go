// Package code holds message-code catalogs: numeric codes paired with
// positional message templates, and their parameter-bound instances.
package code

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is an immutable catalog entry: a numeric code and a message template.
// Templates use positional placeholders: {0}, {1}, ...
type Entry struct {
	Code     int
	Template string
}

// Bound is an Entry whose placeholders have been substituted.
type Bound struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// New creates an Entry.
func New(code int, template string) Entry {
	return Entry{Code: code, Template: template}
}

// Bind substitutes positional placeholders in the template with args.
// A placeholder whose index has no matching argument is left as is, so
// Bind never fails and never mutates the entry.
func (e Entry) Bind(args ...string) Bound {
	return Bound{Code: e.Code, Message: Format(e.Template, args...)}
}

// String implements fmt.Stringer.
func (e Entry) String() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Template)
}

// Entry returns the bound value as an entry whose template is the bound
// message. Binding it again with no arguments yields the same message.
func (b Bound) Entry() Entry {
	return Entry{Code: b.Code, Template: b.Message}
}

// String implements fmt.Stringer.
func (b Bound) String() string {
	return fmt.Sprintf("%d: %s", b.Code, b.Message)
}

// Format replaces {N} placeholders in tmpl with args[N].
//
// Placeholders with an out-of-range index and anything between braces that is
// not a non-negative integer ("{}", "{name}") are copied verbatim.
func Format(tmpl string, args ...string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		open := strings.IndexByte(tmpl[i:], '{')
		if open < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		open += i
		b.WriteString(tmpl[i:open])

		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl[open:])
			break
		}
		end += open

		idx, err := strconv.Atoi(tmpl[open+1 : end])
		if err != nil || idx < 0 || idx >= len(args) || tmpl[open+1] == '+' {
			b.WriteString(tmpl[open : end+1])
		} else {
			b.WriteString(args[idx])
		}
		i = end + 1
	}

	return b.String()
}
