package treemodel

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Relation is the result of comparing two positions.
type Relation int

const (
	// RelationBefore means the position precedes the other.
	RelationBefore Relation = iota - 1
	// RelationSame means both positions are equal.
	RelationSame
	// RelationAfter means the position follows the other.
	RelationAfter
	// RelationDifferent means the positions are in different roots.
	RelationDifferent
)

// String returns the relation name.
func (r Relation) String() string {
	switch r {
	case RelationBefore:
		return "before"
	case RelationSame:
		return "same"
	case RelationAfter:
		return "after"
	default:
		return "different"
	}
}

// Position is a point in a tree: a root and a path of offsets. All but the
// last offset address elements; the last one is an offset inside the
// position's parent element.
//
// Positions are values. They are not updated when the tree changes, except
// for the document selection which is transformed by every operation.
type Position struct {
	root *RootElement
	path []int
}

// NewPosition creates a position and validates that its path resolves.
func NewPosition(root *RootElement, path []int) (Position, error) {
	if root == nil {
		return Position{}, ErrDetachedNode
	}
	if len(path) == 0 {
		return Position{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	p := Position{root: root, path: slices.Clone(path)}
	parent, err := p.resolveParent()
	if err != nil {
		return Position{}, err
	}
	if off := p.Offset(); off < 0 || off > parent.MaxOffset() {
		return Position{}, fmt.Errorf("%w: offset %d out of bounds in %s", ErrInvalidPath, off, p)
	}
	return p, nil
}

// PositionAt creates a position at offset inside parent.
func PositionAt(parent *Element, offset int) (Position, error) {
	root := parent.Root()
	if root == nil {
		return Position{}, ErrDetachedNode
	}
	return NewPosition(root, append(parent.Path(), offset))
}

// PositionBefore returns the position directly before node.
func PositionBefore(n Node) (Position, error) {
	if n.Parent() == nil || n.Root() == nil {
		return Position{}, ErrDetachedNode
	}
	return PositionAt(n.Parent(), n.StartOffset())
}

// PositionAfter returns the position directly after node.
func PositionAfter(n Node) (Position, error) {
	if n.Parent() == nil || n.Root() == nil {
		return Position{}, ErrDetachedNode
	}
	return PositionAt(n.Parent(), n.EndOffset())
}

// at builds a position without validation. Callers guarantee the path.
func at(parent *Element, offset int) Position {
	return Position{root: parent.Root(), path: append(parent.Path(), offset)}
}

// Root returns the position's root.
func (p Position) Root() *RootElement {
	return p.root
}

// Path returns a copy of the offset path.
func (p Position) Path() []int {
	return slices.Clone(p.path)
}

// IsZero reports whether p is the zero Position.
func (p Position) IsZero() bool {
	return p.root == nil
}

// Offset returns the offset inside the parent element.
func (p Position) Offset() int {
	if len(p.path) == 0 {
		return 0
	}
	return p.path[len(p.path)-1]
}

// Depth returns the length of the path.
func (p Position) Depth() int {
	return len(p.path)
}

// Parent returns the element containing the position, or nil when the path
// no longer resolves.
func (p Position) Parent() *Element {
	el, err := p.resolveParent()
	if err != nil {
		return nil
	}
	return el
}

// IsValid reports whether the path still resolves in its root.
func (p Position) IsValid() bool {
	parent := p.Parent()
	return parent != nil && p.Offset() >= 0 && p.Offset() <= parent.MaxOffset()
}

func (p Position) resolveParent() (*Element, error) {
	if p.root == nil {
		return nil, ErrDetachedNode
	}
	if len(p.path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	el := &p.root.Element
	for depth, off := range p.path[:len(p.path)-1] {
		child, _, start := el.childAt(off)
		sub, ok := child.(*Element)
		if !ok || start != off {
			return nil, fmt.Errorf("%w: no element at offset %d (depth %d) in %s", ErrInvalidPath, off, depth, p)
		}
		el = sub
	}
	return el, nil
}

// Ancestors returns the elements from the root down to the parent.
func (p Position) Ancestors() []*Element {
	parent := p.Parent()
	if parent == nil {
		return nil
	}
	var out []*Element
	for el := parent; el != nil; el = el.parent {
		out = append(out, el)
	}
	slices.Reverse(out)
	return out
}

// TextNode returns the text node the position is strictly inside, if any.
func (p Position) TextNode() *Text {
	parent := p.Parent()
	if parent == nil {
		return nil
	}
	child, _, start := parent.childAt(p.Offset())
	if t, ok := child.(*Text); ok && start < p.Offset() {
		return t
	}
	return nil
}

// NodeAfter returns the node starting at the position, or nil when the
// position is at the end of its parent or inside a text node.
func (p Position) NodeAfter() Node {
	parent := p.Parent()
	if parent == nil {
		return nil
	}
	child, _, start := parent.childAt(p.Offset())
	if child == nil || start != p.Offset() {
		return nil
	}
	return child
}

// NodeBefore returns the node ending at the position, or nil when the
// position is at the start of its parent or inside a text node.
func (p Position) NodeBefore() Node {
	parent := p.Parent()
	if parent == nil || p.Offset() == 0 {
		return nil
	}
	child, _, start := parent.childAt(p.Offset() - 1)
	if child == nil || start+child.OffsetSize() != p.Offset() {
		return nil
	}
	return child
}

// CompareWith reports how p relates to other in document order.
func (p Position) CompareWith(other Position) Relation {
	if p.root != other.root || p.root == nil {
		return RelationDifferent
	}
	switch c := slices.Compare(p.path, other.path); {
	case c < 0:
		return RelationBefore
	case c > 0:
		return RelationAfter
	default:
		return RelationSame
	}
}

// IsEqual reports whether p and other are the same point.
func (p Position) IsEqual(other Position) bool {
	return p.CompareWith(other) == RelationSame
}

// IsBefore reports whether p precedes other.
func (p Position) IsBefore(other Position) bool {
	return p.CompareWith(other) == RelationBefore
}

// IsAfter reports whether p follows other.
func (p Position) IsAfter(other Position) bool {
	return p.CompareWith(other) == RelationAfter
}

// ShiftedBy returns the position moved by n offsets inside the same
// parent, clamped at zero.
func (p Position) ShiftedBy(n int) Position {
	out := Position{root: p.root, path: slices.Clone(p.path)}
	if len(out.path) > 0 {
		out.path[len(out.path)-1] = max(0, out.Offset()+n)
	}
	return out
}

// hasSameParentAs reports whether both paths share all but the last offset.
func (p Position) hasSameParentAs(other Position) bool {
	return p.root == other.root && len(p.path) == len(other.path) &&
		slices.Equal(p.path[:len(p.path)-1], other.path[:len(other.path)-1])
}

// TransformedByInsertion returns the position after howMany offsets were
// inserted at pos. When insertBefore is true an insertion exactly at p moves
// p behind the inserted content; otherwise p stays before it.
func (p Position) TransformedByInsertion(pos Position, howMany int, insertBefore bool) Position {
	out := Position{root: p.root, path: slices.Clone(p.path)}
	if p.root != pos.root || howMany == 0 {
		return out
	}
	d := len(pos.path) - 1
	if d >= len(p.path) || !slices.Equal(p.path[:d], pos.path[:d]) {
		return out
	}
	switch {
	case d == len(p.path)-1:
		if p.path[d] > pos.path[d] || (p.path[d] == pos.path[d] && insertBefore) {
			out.path[d] += howMany
		}
	case p.path[d] >= pos.path[d]:
		out.path[d] += howMany
	}
	return out
}

// TransformedByDeletion returns the position after howMany offsets were
// removed at pos. It reports false when p was inside the removed content.
func (p Position) TransformedByDeletion(pos Position, howMany int) (Position, bool) {
	out := Position{root: p.root, path: slices.Clone(p.path)}
	if p.root != pos.root || howMany == 0 {
		return out, true
	}
	d := len(pos.path) - 1
	if d >= len(p.path) || !slices.Equal(p.path[:d], pos.path[:d]) {
		return out, true
	}
	start, end := pos.path[d], pos.path[d]+howMany
	if d == len(p.path)-1 {
		switch {
		case p.path[d] >= end:
			out.path[d] -= howMany
		case p.path[d] > start:
			out.path[d] = start
			return out, false
		}
		return out, true
	}
	switch {
	case p.path[d] >= end:
		out.path[d] -= howMany
	case p.path[d] >= start:
		return pos.ShiftedBy(0), false
	}
	return out, true
}

// String renders the position as "root:[o1 o2 ...]".
func (p Position) String() string {
	var b strings.Builder
	if p.root != nil {
		b.WriteString(p.root.rootName)
	}
	b.WriteString(":[")
	for i, off := range p.path {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(off))
	}
	b.WriteByte(']')
	return b.String()
}
