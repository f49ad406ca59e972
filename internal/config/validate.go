package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single invalid setting.
type ValidationError struct {
	// Path is the dot-separated path to the invalid value.
	Path string

	// Message describes what's wrong.
	Message string

	// Value is the invalid value (may be nil).
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Add adds a validation error.
func (e *ValidationErrors) Add(path, message string) {
	e.Errors = append(e.Errors, &ValidationError{Path: path, Message: message})
}

// AddWithValue adds a validation error with the invalid value.
func (e *ValidationErrors) AddWithValue(path, message string, value any) {
	e.Errors = append(e.Errors, &ValidationError{Path: path, Message: message, Value: value})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorsForPath returns all errors for a specific path.
func (e *ValidationErrors) ErrorsForPath(path string) []*ValidationError {
	var result []*ValidationError
	for _, err := range e.Errors {
		if err.Path == path {
			result = append(result, err)
		}
	}
	return result
}

// AsError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) AsError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks every section and returns a *ValidationErrors listing
// all problems, or nil.
func (c Config) Validate() error {
	errs := &ValidationErrors{}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs.AddWithValue("log.level", "must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.History.MaxEntries < 0 {
		errs.AddWithValue("history.max_entries", "must not be negative", c.History.MaxEntries)
	}

	seen := make(map[string]bool, len(c.Commands))
	for i, name := range c.Commands {
		path := fmt.Sprintf("commands[%d]", i)
		switch {
		case strings.TrimSpace(name) == "":
			errs.Add(path, "command name must not be empty")
		case seen[name]:
			errs.AddWithValue(path, "duplicate command", name)
		}
		seen[name] = true
	}

	for i, it := range c.Schema.Items {
		if it.Name == "" {
			errs.Add(fmt.Sprintf("schema.items[%d].name", i), "must not be empty")
		}
	}
	for i, r := range c.Schema.Allow {
		if r.Name == "" {
			errs.Add(fmt.Sprintf("schema.allow[%d].name", i), "must not be empty")
		}
	}
	for i, r := range c.Schema.Disallow {
		if r.Name == "" {
			errs.Add(fmt.Sprintf("schema.disallow[%d].name", i), "must not be empty")
		}
	}

	return errs.AsError()
}
