package treemodel

// TextName is the item type name used for text in schema checks.
const TextName = "$text"

// Item is anything a TreeWalker can step over: an element, or a run of text.
type Item interface {
	// Name returns the element name, or "" for text.
	Name() string

	Attribute(key string) (any, bool)
	HasAttribute(key string) bool
	AttributeKeys() []string
	Attributes() Attributes
}

// TypeName returns the schema type name of item: the element name, or
// TextName for text.
func TypeName(item Item) string {
	if name := item.Name(); name != "" {
		return name
	}
	return TextName
}

// Node is an element or a text node stored in the tree.
//
// Nodes expose no mutating methods. A detached node (built with NewElement
// or NewText) is changed only by inserting it through a Batch; afterwards
// the Document owns it.
type Node interface {
	Item

	// Parent returns the parent element, or nil for a detached node or a root.
	Parent() *Element

	// Index returns the position among the parent's children, or -1.
	Index() int

	// StartOffset returns the offset of the node in its parent, or -1.
	StartOffset() int

	// EndOffset returns StartOffset() + OffsetSize(), or -1.
	EndOffset() int

	// OffsetSize is 1 for elements and the rune count for text.
	OffsetSize() int

	// Root returns the root the node is attached to, or nil.
	Root() *RootElement

	// Clone returns a detached deep copy.
	Clone() Node

	base() *nodeBase
}

type nodeBase struct {
	attributed
	parent *Element
}

func (n *nodeBase) Parent() *Element {
	return n.parent
}

func (n *nodeBase) base() *nodeBase {
	return n
}

func indexOf(n Node) int {
	p := n.base().parent
	if p == nil {
		return -1
	}
	for i, c := range p.children {
		if c == n {
			return i
		}
	}
	return -1
}

func startOffsetOf(n Node) int {
	p := n.base().parent
	if p == nil {
		return -1
	}
	offset := 0
	for _, c := range p.children {
		if c == n {
			return offset
		}
		offset += c.OffsetSize()
	}
	return -1
}

func rootOf(n Node) *RootElement {
	var top *Element
	switch v := n.(type) {
	case *Element:
		top = v
	case *Text:
		top = v.parent
	}
	if top == nil {
		return nil
	}
	for top.parent != nil {
		top = top.parent
	}
	return top.root
}
