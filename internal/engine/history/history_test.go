package history

import (
	"errors"
	"testing"
)

// recordingEntry appends to a shared log so tests can check ordering.
type recordingEntry struct {
	name    string
	log     *[]string
	undoErr error
}

func (e *recordingEntry) Undo() error {
	if e.undoErr != nil {
		return e.undoErr
	}
	*e.log = append(*e.log, "undo "+e.name)
	return nil
}

func (e *recordingEntry) Redo() error {
	*e.log = append(*e.log, "redo "+e.name)
	return nil
}

func (e *recordingEntry) Description() string { return e.name }

func TestHistory_UndoRedoOrder(t *testing.T) {
	var log []string
	h := New(10)
	h.Push(&recordingEntry{name: "a", log: &log})
	h.Push(&recordingEntry{name: "b", log: &log})

	if err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := h.Redo(); err != nil {
		t.Fatal(err)
	}

	want := []string{"undo b", "undo a", "redo a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
	if h.UndoCount() != 1 || h.RedoCount() != 1 {
		t.Errorf("counts = %d/%d, want 1/1", h.UndoCount(), h.RedoCount())
	}
}

func TestHistory_EmptyStacks(t *testing.T) {
	h := New(0)
	if h.MaxEntries() != DefaultMaxEntries {
		t.Errorf("MaxEntries() = %d, want default", h.MaxEntries())
	}
	if err := h.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() = %v, want ErrNothingToUndo", err)
	}
	if err := h.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() = %v, want ErrNothingToRedo", err)
	}
}

func TestHistory_PushClearsRedo(t *testing.T) {
	var log []string
	h := New(10)
	h.Push(&recordingEntry{name: "a", log: &log})
	_ = h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo to be available")
	}
	h.Push(&recordingEntry{name: "b", log: &log})
	if h.CanRedo() {
		t.Error("push should clear the redo stack")
	}
}

func TestHistory_MaxEntries(t *testing.T) {
	var log []string
	h := New(2)
	for _, n := range []string{"a", "b", "c"} {
		h.Push(&recordingEntry{name: n, log: &log})
	}
	info := h.UndoInfo()
	if len(info) != 2 || info[0].Description != "b" || info[1].Description != "c" {
		t.Errorf("UndoInfo() = %+v, want [b c]", info)
	}

	h.SetMaxEntries(1)
	if next, ok := h.PeekUndo(); !ok || next.Description != "c" {
		t.Errorf("PeekUndo() = %+v, %v", next, ok)
	}
}

func TestHistory_FailedUndoKeepsEntry(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	h := New(10)
	h.Push(&recordingEntry{name: "a", log: &log, undoErr: boom})

	if err := h.Undo(); !errors.Is(err, boom) {
		t.Fatalf("Undo() = %v, want boom", err)
	}
	if h.UndoCount() != 1 || h.CanRedo() {
		t.Error("failed undo must leave the entry on the undo stack")
	}
}

func TestHistory_Checkpoints(t *testing.T) {
	var log []string
	h := New(10)
	h.Push(&recordingEntry{name: "a", log: &log})
	cp := h.CreateCheckpoint()
	h.Push(&recordingEntry{name: "b", log: &log})
	h.Push(&recordingEntry{name: "c", log: &log})

	if err := h.UndoToCheckpoint(cp); err != nil {
		t.Fatal(err)
	}
	if h.UndoCount() != 1 {
		t.Errorf("UndoCount() = %d, want 1", h.UndoCount())
	}

	top := Checkpoint{undoDepth: 3}
	if err := h.RedoToCheckpoint(top); err != nil {
		t.Fatal(err)
	}
	if h.UndoCount() != 3 {
		t.Errorf("UndoCount() = %d, want 3", h.UndoCount())
	}
	if _, ok := h.PeekRedo(); ok {
		t.Error("redo stack should be empty")
	}
	h.Clear()
	if h.CanUndo() {
		t.Error("Clear() should empty the undo stack")
	}
}
