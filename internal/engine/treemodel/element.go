package treemodel

import "strings"

// Element is a named node with attributes and an ordered list of children.
type Element struct {
	nodeBase
	name     string
	children []Node

	// root is set only on the element embedded in a RootElement.
	root *RootElement
}

// NewElement creates a detached element. Children that are already
// attached somewhere are cloned rather than moved.
func NewElement(name string, attrs Attributes, children ...Node) *Element {
	el := &Element{name: name}
	el.attrs = attrs.Clone()
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.Parent() != nil || isRoot(c) {
			c = c.Clone()
		}
		if c.OffsetSize() == 0 {
			continue
		}
		c.base().parent = el
		el.children = append(el.children, c)
	}
	el.normalize()
	return el
}

// Name returns the element name.
func (e *Element) Name() string {
	return e.name
}

// ChildCount returns the number of direct children.
func (e *Element) ChildCount() int {
	return len(e.children)
}

// Child returns the child at index i, or nil when out of range.
func (e *Element) Child(i int) Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

// MaxOffset returns the sum of the children's offset sizes.
func (e *Element) MaxOffset() int {
	n := 0
	for _, c := range e.children {
		n += c.OffsetSize()
	}
	return n
}

// IsEmpty reports whether the element has no children.
func (e *Element) IsEmpty() bool {
	return len(e.children) == 0
}

// Index implements Node.
func (e *Element) Index() int {
	return indexOf(e)
}

// StartOffset implements Node.
func (e *Element) StartOffset() int {
	return startOffsetOf(e)
}

// EndOffset implements Node.
func (e *Element) EndOffset() int {
	if s := e.StartOffset(); s >= 0 {
		return s + 1
	}
	return -1
}

// OffsetSize is always 1 for an element.
func (e *Element) OffsetSize() int {
	return 1
}

// Root implements Node.
func (e *Element) Root() *RootElement {
	return rootOf(e)
}

// Path returns the offsets leading from the root to this element, or nil
// when the element is detached. A root has an empty path.
func (e *Element) Path() []int {
	if e.Root() == nil {
		return nil
	}
	var path []int
	for el := e; el.parent != nil; el = el.parent {
		path = append(path, el.StartOffset())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path == nil {
		path = []int{}
	}
	return path
}

// TextContent returns the concatenated data of all descendant text nodes.
func (e *Element) TextContent() string {
	var b strings.Builder
	e.writeText(&b)
	return b.String()
}

func (e *Element) writeText(b *strings.Builder) {
	for _, c := range e.children {
		switch v := c.(type) {
		case *Text:
			b.WriteString(v.data)
		case *Element:
			v.writeText(b)
		}
	}
}

// Clone implements Node.
func (e *Element) Clone() Node {
	return e.cloneElement()
}

func (e *Element) cloneElement() *Element {
	el := &Element{name: e.name}
	el.attrs = e.attrs.Clone()
	el.children = make([]Node, 0, len(e.children))
	for _, c := range e.children {
		cc := c.Clone()
		cc.base().parent = el
		el.children = append(el.children, cc)
	}
	return el
}

// childAt returns the child covering offset, its index and its start offset.
// At or past MaxOffset it returns a nil child and the child count.
func (e *Element) childAt(offset int) (Node, int, int) {
	start := 0
	for i, c := range e.children {
		size := c.OffsetSize()
		if offset < start+size {
			return c, i, start
		}
		start += size
	}
	return nil, len(e.children), start
}

// splitAt makes offset a child boundary, splitting a text node if needed,
// and returns the index of the child starting at offset.
func (e *Element) splitAt(offset int) int {
	child, i, start := e.childAt(offset)
	if child == nil || start == offset {
		return i
	}
	t := child.(*Text)
	runes := []rune(t.data)
	cut := offset - start

	left := newText(string(runes[:cut]), t.attrs.Clone())
	right := newText(string(runes[cut:]), t.attrs.Clone())
	left.parent, right.parent = e, e
	t.parent = nil

	e.children = append(e.children[:i], append([]Node{left, right}, e.children[i+1:]...)...)
	return i + 1
}

func (e *Element) insertChildren(index int, nodes ...Node) {
	for _, n := range nodes {
		n.base().parent = e
	}
	e.children = append(e.children[:index], append(append([]Node(nil), nodes...), e.children[index:]...)...)
}

func (e *Element) removeChildren(index, count int) []Node {
	removed := make([]Node, count)
	copy(removed, e.children[index:index+count])
	for _, n := range removed {
		n.base().parent = nil
	}
	e.children = append(e.children[:index], e.children[index+count:]...)
	return removed
}

// normalize merges adjacent text children with equal attributes.
func (e *Element) normalize() {
	if len(e.children) < 2 {
		return
	}
	out := e.children[:0]
	for _, c := range e.children {
		if t, ok := c.(*Text); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*Text); ok && prev.attrs.Equal(t.attrs) {
				merged := newText(prev.data+t.data, prev.attrs.Clone())
				merged.parent = e
				prev.parent, t.parent = nil, nil
				out[len(out)-1] = merged
				continue
			}
		}
		out = append(out, c)
	}
	clear(e.children[len(out):])
	e.children = out
}

// RootElement is the top of a document tree. Its Name is the element name
// used in schema contexts ("$root"); RootName is the name it is registered
// under in the Document.
type RootElement struct {
	Element
	doc      *Document
	rootName string
}

// RootName returns the name the root is registered under.
func (r *RootElement) RootName() string {
	return r.rootName
}

// Document returns the owning document.
func (r *RootElement) Document() *Document {
	return r.doc
}

// Clone returns a detached copy of the root's content as a plain element.
func (r *RootElement) Clone() Node {
	return r.cloneElement()
}

func isRoot(n Node) bool {
	switch v := n.(type) {
	case *RootElement:
		return true
	case *Element:
		return v.root != nil
	}
	return false
}
