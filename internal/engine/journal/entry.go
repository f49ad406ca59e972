package journal

import "time"

// Action tells what happened to a batch.
type Action uint8

const (
	// ActionCommit is a batch committed at the end of a change scope.
	ActionCommit Action = iota
	// ActionUndo is a batch reverted by undo.
	ActionUndo
	// ActionRedo is a batch re-applied by redo.
	ActionRedo
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionCommit:
		return "commit"
	case ActionUndo:
		return "undo"
	case ActionRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// Entry is one journal record.
type Entry struct {
	BatchID    string      `cbor:"1,keyasint"`
	BatchType  string      `cbor:"2,keyasint"`
	Action     Action      `cbor:"3,keyasint"`
	Timestamp  time.Time   `cbor:"4,keyasint"`
	Operations []Operation `cbor:"5,keyasint,omitempty"`
}

// Operation summarizes one applied operation.
type Operation struct {
	Kind  string `cbor:"1,keyasint"`
	Root  string `cbor:"2,keyasint"`
	Start []int  `cbor:"3,keyasint"`
	End   []int  `cbor:"4,keyasint,omitempty"`
	Key   string `cbor:"5,keyasint,omitempty"`
}

// Recorder receives journal entries. Implementations must not block for long.
type Recorder interface {
	Record(entry Entry)
}

// NopRecorder discards all entries.
type NopRecorder struct{}

// Record discards the entry.
func (NopRecorder) Record(Entry) {}

var _ Recorder = NopRecorder{}
