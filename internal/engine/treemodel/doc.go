// Package treemodel implements the document tree of the editor.
//
// A Document holds named roots. Each root is an Element whose children are
// Elements and Text nodes. Points in a tree are Positions: a root plus a
// path of offsets, where an element occupies one offset and text occupies
// one offset per character. A Range is an ordered pair of positions in the
// same root, and a TreeWalker visits the items of a range in document order.
//
// The tree is changed only through a Batch, inside a change scope opened by
// Document.EnqueueChanges:
//
//	err := doc.EnqueueChanges(func() error {
//		b := doc.Batch(treemodel.BatchTyping)
//		return b.InsertText(pos, "hello", nil)
//	})
//
// Each Batch is a single undo step. When the outermost scope closes the
// document commits the batches to its history, publishes one
// document.change event per operation and a single document.changesdone,
// and lets the Selection publish its own updates.
package treemodel
