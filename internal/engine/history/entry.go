package history

import "time"

// Entry is one undoable unit.
type Entry interface {
	// Undo reverts the entry.
	Undo() error

	// Redo re-applies the entry after an Undo.
	Redo() error

	// Description returns a human-readable description of the entry.
	Description() string
}

// EntryInfo provides read-only info about an entry.
type EntryInfo struct {
	Description string
	Timestamp   time.Time
}

type undoEntry struct {
	entry     Entry
	timestamp time.Time
}

func (e *undoEntry) info() EntryInfo {
	return EntryInfo{
		Description: e.entry.Description(),
		Timestamp:   e.timestamp,
	}
}
