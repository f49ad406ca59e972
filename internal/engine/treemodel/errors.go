package treemodel

import "errors"

// Errors returned by tree model operations. All of them indicate a caller
// bug (a malformed position or range, or a mutation outside the permitted
// path); "not allowed here" conditions never produce errors.
var (
	// ErrInvalidPath indicates a position path that does not resolve in its root.
	ErrInvalidPath = errors.New("invalid position path")

	// ErrRootMismatch indicates positions or ranges from different roots were combined.
	ErrRootMismatch = errors.New("positions belong to different roots")

	// ErrDetachedNode indicates a node or position not attached to any root.
	ErrDetachedNode = errors.New("node is not attached to a root")

	// ErrNodeAttached indicates an insert of a node that already has a parent.
	ErrNodeAttached = errors.New("node is already attached")

	// ErrInvalidRange indicates a range that is malformed for the requested operation.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNotFlat indicates a range whose ends are in different parents where
	// a flat range is required.
	ErrNotFlat = errors.New("range is not flat")

	// ErrNoChangeScope indicates a mutation outside EnqueueChanges.
	ErrNoChangeScope = errors.New("document changes must be made inside EnqueueChanges")

	// ErrBatchCommitted indicates an operation on a batch that was already committed.
	ErrBatchCommitted = errors.New("batch is already committed")

	// ErrForeignRoot indicates a position or range whose root belongs to another document.
	ErrForeignRoot = errors.New("root belongs to another document")

	// ErrInvalidDump indicates a dump that does not describe a tree.
	ErrInvalidDump = errors.New("invalid tree dump")

	// ErrRootExists indicates CreateRoot was called with a name already in use.
	ErrRootExists = errors.New("root already exists")
)
