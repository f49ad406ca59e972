package treemodel

import "fmt"

// Range is a span between two positions in the same root, with Start never
// after End.
type Range struct {
	Start Position
	End   Position
}

// NewRange creates a range between a and b, swapping them when a is after b.
func NewRange(a, b Position) (Range, error) {
	if a.root == nil || b.root == nil {
		return Range{}, ErrDetachedNode
	}
	if a.root != b.root {
		return Range{}, fmt.Errorf("%w: %s and %s", ErrRootMismatch, a, b)
	}
	return newRange(a, b), nil
}

// newRange orders two positions known to share a root.
func newRange(a, b Position) Range {
	if a.IsAfter(b) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// CollapsedRange returns an empty range at p.
func CollapsedRange(p Position) Range {
	return Range{Start: p, End: p}
}

// RangeOnElement returns the range from before el to after it.
func RangeOnElement(el *Element) (Range, error) {
	start, err := PositionBefore(el)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: start.ShiftedBy(1)}, nil
}

// RangeInElement returns the range covering the content of el.
func RangeInElement(el *Element) (Range, error) {
	start, err := PositionAt(el, 0)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: start.ShiftedBy(el.MaxOffset())}, nil
}

// Root returns the range's root.
func (r Range) Root() *RootElement {
	return r.Start.root
}

// IsZero reports whether r is the zero Range.
func (r Range) IsZero() bool {
	return r.Start.IsZero()
}

// IsCollapsed reports whether start and end are equal.
func (r Range) IsCollapsed() bool {
	return r.Start.IsEqual(r.End)
}

// IsEqual reports whether both ranges have equal boundaries.
func (r Range) IsEqual(other Range) bool {
	return r.Start.IsEqual(other.Start) && r.End.IsEqual(other.End)
}

// IsFlat reports whether both boundaries are in the same parent.
func (r Range) IsFlat() bool {
	return r.Start.hasSameParentAs(r.End)
}

// ContainsPosition reports whether p is strictly between start and end.
func (r Range) ContainsPosition(p Position) bool {
	return p.IsAfter(r.Start) && p.IsBefore(r.End)
}

// ContainsRange reports whether other lies within r. Equal boundaries count
// as contained.
func (r Range) ContainsRange(other Range) bool {
	return r.Root() == other.Root() &&
		!other.Start.IsBefore(r.Start) && !other.End.IsAfter(r.End)
}

// Walker returns a tree walker over r. Boundaries in opts is overridden.
func (r Range) Walker(opts WalkerOptions) (*TreeWalker, error) {
	opts.Boundaries = r
	return NewTreeWalker(opts)
}

// Items returns the items fully contained in r, in document order. Text is
// reported as merged proxies.
func (r Range) Items() ([]Item, error) {
	w, err := r.Walker(WalkerOptions{MergeCharacters: true, IgnoreElementEnd: true})
	if err != nil {
		return nil, err
	}
	var items []Item
	for v := range w.Values() {
		if v.Type == StepElementStart {
			el := v.Item.(*Element)
			if after := at(el.parent, el.EndOffset()); after.IsAfter(r.End) {
				continue
			}
		}
		items = append(items, v.Item)
	}
	return items, nil
}

// String renders the range as "[start, end]".
func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
