// Package history provides undo/redo stacks for committed batches.
//
// Every logical user action in the tree model is one Batch, and one Batch is
// one undo step. History knows nothing about trees: it stores Entry values
// and asks them to revert or re-apply themselves.
//
//	h := history.New(1000)
//	h.Push(batch)
//	_ = h.Undo() // batch.Undo()
//	_ = h.Redo() // batch.Redo()
//
// Pushing a new entry clears the redo stack. When the undo stack grows past
// the configured limit the oldest entries are dropped.
//
// Checkpoints record a stack depth so a caller can roll back everything done
// after it:
//
//	cp := h.CreateCheckpoint()
//	// ... several batches ...
//	_ = h.UndoToCheckpoint(cp)
package history
