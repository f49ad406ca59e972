package treemodel

// Schema decides which items may appear at a position.
type Schema interface {
	// CheckAtPosition reports whether an item named itemName carrying
	// attributeKeys may exist at pos. It never fails: anything unknown is
	// simply not allowed.
	CheckAtPosition(pos Position, itemName string, attributeKeys ...string) bool
}

// denyAll is the schema of a document created without one.
type denyAll struct{}

func (denyAll) CheckAtPosition(Position, string, ...string) bool { return false }
