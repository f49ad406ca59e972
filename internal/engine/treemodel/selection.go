package treemodel

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/event/topic"
)

// SelectionRangeChange is the payload of selection.change.range.
type SelectionRangeChange struct {
	Ranges   []Range
	Backward bool

	// Direct is true when the ranges were set explicitly rather than moved
	// by a document change.
	Direct bool
}

// SelectionAttributeChange is the payload of selection.change.attribute.
type SelectionAttributeChange struct {
	// Keys lists attributes that were added, removed or changed.
	Keys       []string
	Attributes Attributes
}

// Selection is the document selection: an ordered list of ranges plus the
// attributes text typed at the selection would get.
//
// When no ranges were set, the selection is collapsed at the start of the
// first root. A collapsed selection may carry stored attributes that take
// precedence over the surrounding text until the caret moves.
type Selection struct {
	doc      *Document
	ranges   []Range
	backward bool

	stored    Attributes
	hasStored bool
	attrs     Attributes

	rangeDirty bool
	directMove bool
	attrsDirty bool
}

func newSelection(d *Document) *Selection {
	return &Selection{doc: d}
}

// Ranges returns a copy of the selection ranges, or the default range.
func (s *Selection) Ranges() []Range {
	if len(s.ranges) == 0 {
		if r, ok := s.defaultRange(); ok {
			return []Range{r}
		}
		return nil
	}
	return append([]Range(nil), s.ranges...)
}

// RangeCount returns the number of explicit ranges.
func (s *Selection) RangeCount() int {
	return len(s.ranges)
}

// FirstRange returns the first range in document order.
func (s *Selection) FirstRange() (Range, bool) {
	ranges := s.Ranges()
	if len(ranges) == 0 {
		return Range{}, false
	}
	first := ranges[0]
	for _, r := range ranges[1:] {
		if r.Root() == first.Root() && r.Start.IsBefore(first.Start) {
			first = r
		}
	}
	return first, true
}

// FirstPosition returns the start of the first range, or the zero Position
// when the document has no roots.
func (s *Selection) FirstPosition() Position {
	r, _ := s.FirstRange()
	return r.Start
}

// IsCollapsed reports whether the selection is a single empty range.
func (s *Selection) IsCollapsed() bool {
	ranges := s.Ranges()
	return len(ranges) <= 1 && (len(ranges) == 0 || ranges[0].IsCollapsed())
}

// IsBackward reports whether the selection was made from end to start.
func (s *Selection) IsBackward() bool {
	return s.backward && !s.IsCollapsed()
}

// SetRanges replaces the selection ranges. Every range must belong to a
// root of this document.
func (s *Selection) SetRanges(ranges []Range, backward bool) error {
	for _, r := range ranges {
		root := r.Root()
		if root == nil || root != r.End.root {
			return fmt.Errorf("%w: selection range %s", ErrInvalidRange, r)
		}
		if root.doc != s.doc {
			return fmt.Errorf("%w: selection range %s", ErrForeignRoot, r)
		}
		if !r.Start.IsValid() || !r.End.IsValid() {
			return fmt.Errorf("%w: selection range %s", ErrInvalidPath, r)
		}
	}
	s.ranges = s.ranges[:0]
	for _, r := range ranges {
		s.ranges = append(s.ranges, newRange(r.Start, r.End))
	}
	s.backward = backward
	s.clearStored()
	s.rangeDirty, s.directMove = true, true
	s.attrsDirty = true
	if !s.doc.inScope {
		s.flush()
	}
	return nil
}

// SetRange selects a single range.
func (s *Selection) SetRange(r Range) error {
	return s.SetRanges([]Range{r}, false)
}

// CollapseTo collapses the selection at p.
func (s *Selection) CollapseTo(p Position) error {
	return s.SetRanges([]Range{CollapsedRange(p)}, false)
}

// Attribute returns the value of key in the selection attributes.
func (s *Selection) Attribute(key string) (any, bool) {
	v, ok := s.currentAttributes()[key]
	return v, ok
}

// HasAttribute reports whether the selection attributes contain key.
func (s *Selection) HasAttribute(key string) bool {
	_, ok := s.currentAttributes()[key]
	return ok
}

// Attributes returns a copy of the selection attributes.
func (s *Selection) Attributes() Attributes {
	return s.currentAttributes().Clone()
}

// AttributeKeys returns the selection attribute keys in sorted order.
func (s *Selection) AttributeKeys() []string {
	return s.currentAttributes().Keys()
}

// HasStoredAttributes reports whether a collapsed selection carries
// attributes of its own.
func (s *Selection) HasStoredAttributes() bool {
	return s.hasStored
}

// SetAttribute stores key on the selection. Stored attributes replace the
// attributes taken from surrounding text until the caret moves.
func (s *Selection) SetAttribute(key string, value any) {
	s.ensureStored()
	s.stored[key] = value
	s.storedChanged()
}

// RemoveAttribute removes key from the stored attributes.
func (s *Selection) RemoveAttribute(key string) {
	s.ensureStored()
	delete(s.stored, key)
	s.storedChanged()
}

// ClearAttributes stores an empty attribute set.
func (s *Selection) ClearAttributes() {
	s.hasStored = true
	s.stored = Attributes{}
	s.storedChanged()
}

func (s *Selection) ensureStored() {
	if !s.hasStored {
		s.stored = s.computeAttributes().Clone()
		if s.stored == nil {
			s.stored = Attributes{}
		}
		s.hasStored = true
	}
}

func (s *Selection) storedChanged() {
	s.attrsDirty = true
	if !s.doc.inScope {
		s.flush()
	}
}

func (s *Selection) clearStored() {
	s.stored, s.hasStored = nil, false
}

func (s *Selection) markAttributesDirty() {
	s.attrsDirty = true
}

func (s *Selection) currentAttributes() Attributes {
	if s.attrsDirty && !s.doc.inScope {
		s.flush()
	}
	return s.attrs
}

func (s *Selection) defaultRange() (Range, bool) {
	for _, name := range s.doc.rootNames {
		root := s.doc.roots[name]
		return CollapsedRange(at(&root.Element, 0)), true
	}
	return Range{}, false
}

// computeAttributes derives the attributes from stored values or the text
// around the first range.
func (s *Selection) computeAttributes() Attributes {
	if s.hasStored {
		return s.stored.Clone()
	}
	r, ok := s.FirstRange()
	if !ok || !r.Start.IsValid() {
		return nil
	}
	if r.IsCollapsed() {
		pos := r.Start
		if t := pos.TextNode(); t != nil {
			return t.attrs.Clone()
		}
		if t, ok := pos.NodeBefore().(*Text); ok {
			return t.attrs.Clone()
		}
		if t, ok := pos.NodeAfter().(*Text); ok {
			return t.attrs.Clone()
		}
		return nil
	}
	w, err := r.Walker(WalkerOptions{MergeCharacters: true, IgnoreElementEnd: true})
	if err != nil {
		return nil
	}
	for v := range w.Values() {
		if v.Type == StepText {
			return v.Item.Attributes()
		}
	}
	return nil
}

func (s *Selection) transformByInsertion(pos Position, howMany int) {
	for i, r := range s.ranges {
		start := r.Start.TransformedByInsertion(pos, howMany, true)
		end := r.End.TransformedByInsertion(pos, howMany, r.IsCollapsed())
		moved := newRange(start, end)
		if !moved.IsEqual(r) {
			s.ranges[i] = moved
			s.moved()
		}
	}
	s.attrsDirty = true
}

func (s *Selection) transformByDeletion(pos Position, howMany int) {
	for i, r := range s.ranges {
		start, _ := r.Start.TransformedByDeletion(pos, howMany)
		end, _ := r.End.TransformedByDeletion(pos, howMany)
		moved := newRange(start, end)
		if !moved.IsEqual(r) {
			s.ranges[i] = moved
			s.moved()
		}
	}
	s.attrsDirty = true
}

func (s *Selection) moved() {
	s.rangeDirty = true
	s.clearStored()
}

// flush publishes pending range and attribute changes.
func (s *Selection) flush() {
	ctx := context.Background()
	if s.rangeDirty {
		payload := SelectionRangeChange{Ranges: s.Ranges(), Backward: s.backward, Direct: s.directMove}
		s.rangeDirty, s.directMove = false, false
		_ = s.doc.emitter.Publish(ctx, event.NewEvent(topic.SelectionRange, payload, eventSource))
	}
	if !s.attrsDirty {
		return
	}
	s.attrsDirty = false

	next := s.computeAttributes()
	changed := diffKeys(s.attrs, next)
	s.attrs = next
	if len(changed) > 0 {
		payload := SelectionAttributeChange{Keys: changed, Attributes: next.Clone()}
		_ = s.doc.emitter.Publish(ctx, event.NewEvent(topic.SelectionAttribute, payload, eventSource))
	}
}

func diffKeys(a, b Attributes) []string {
	var keys []string
	for k, v := range a {
		if w, ok := b[k]; !ok || !reflect.DeepEqual(v, w) {
			keys = append(keys, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
