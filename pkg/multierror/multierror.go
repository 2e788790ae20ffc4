// Package multierror collects independent validation and reconciliation
// errors into a single value that renders as an indented tree.
package multierror

import (
	"errors"
	"fmt"
	"strings"
)

// Error aggregates zero or more errors under an optional context label.
// Insertion order is preserved and rendering is deterministic, so it is
// safe to embed directly in user-facing reports.
type Error struct {
	Context string
	Errors  []error
}

// New returns an empty aggregate tagged with the given context label.
// Context may be empty for a top-level aggregate with no label of its own.
func New(context string) *Error {
	return &Error{Context: context}
}

// Push appends err to the aggregate. A nil err is ignored.
func (e *Error) Push(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

// HasErrors reports whether any error has been pushed.
func (e *Error) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns e as an error if it has any pushed errors, or nil
// otherwise. This is the usual way to return an *Error from a function
// that collects errors along multiple independent paths.
func (e *Error) ErrorOrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

// Error renders the aggregate as a depth-indented tree. Nested *Error
// values expand under their own context label; plain errors expand their
// cause chain (via errors.Unwrap) one level deeper.
func (e *Error) Error() string {
	var b strings.Builder
	e.render(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (e *Error) render(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	if e.Context != "" {
		fmt.Fprintf(b, "%s%s:\n", indent, e.Context)
		depth++
		indent = strings.Repeat("  ", depth)
	}
	for _, err := range e.Errors {
		var nested *Error
		if errors.As(err, &nested) {
			nested.render(b, depth)
			continue
		}
		fmt.Fprintf(b, "%s- %s\n", indent, err.Error())
		if cause := errors.Unwrap(err); cause != nil {
			fmt.Fprintf(b, "%s  caused by: %s\n", indent, cause.Error())
		}
	}
}

// Unwrap exposes the underlying errors so errors.Is/errors.As can traverse
// into an aggregate, matching the behavior of Go 1.20+ multi-error wrapping.
func (e *Error) Unwrap() []error {
	return e.Errors
}
