package editor

import "errors"

var (
	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("editor is closed")

	// ErrNotAllowed is returned when the schema rejects an insertion.
	ErrNotAllowed = errors.New("not allowed by schema")

	// ErrNoSelection is returned when typing without a selection.
	ErrNoSelection = errors.New("no selection")
)
