package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Registration errors.
var (
	ErrEmptyName   = errors.New("item name is empty")
	ErrItemExists  = errors.New("item already registered")
	ErrUnknownItem = errors.New("unknown item")
	ErrUnknownBase = errors.New("unknown base item")
)

// RuleError describes one rejected entry of a RuleSet.
type RuleError struct {
	// Section is "items", "allow" or "disallow".
	Section string

	// Index is the entry's position in its section.
	Index int

	// Name is the item the entry refers to.
	Name string

	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("%s[%d] %q: %v", e.Section, e.Index, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// RuleErrors collects the entries a RuleSet load rejected.
type RuleErrors struct {
	Errors []*RuleError
}

// Error implements the error interface.
func (e *RuleErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d rule errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Unwrap returns the individual errors for errors.Is and errors.As.
func (e *RuleErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// Add records a rejected entry.
func (e *RuleErrors) Add(section string, index int, name string, err error) {
	e.Errors = append(e.Errors, &RuleError{Section: section, Index: index, Name: name, Err: err})
}

// HasErrors reports whether any entry was rejected.
func (e *RuleErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors and nil otherwise.
func (e *RuleErrors) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}
