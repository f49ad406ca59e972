package treemodel

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/engine/journal"
)

// Batch types used across the editor.
const (
	// BatchDefault is the type of batches created without a specific intent.
	BatchDefault = "default"
	// BatchAttribute is the type of batches created by attribute commands.
	BatchAttribute = "attribute"
	// BatchTyping is the type of batches inserting typed text.
	BatchTyping = "typing"
	// BatchTransparent batches are committed but never recorded in history.
	BatchTransparent = "transparent"
)

// Batch groups operations that form a single undo step. It is bound to the
// change scope it was created in and sealed when that scope closes.
type Batch struct {
	id  string
	typ string
	doc *Document

	ops      []Operation
	reverted []Operation

	committed bool
	scoped    bool
}

func newBatch(d *Document, typ string) *Batch {
	if typ == "" {
		typ = BatchDefault
	}
	return &Batch{id: uuid.NewString(), typ: typ, doc: d}
}

// ID returns the batch's unique identifier.
func (b *Batch) ID() string {
	return b.id
}

// Type returns the batch type.
func (b *Batch) Type() string {
	return b.typ
}

// Operations returns the applied operations in order.
func (b *Batch) Operations() []Operation {
	return append([]Operation(nil), b.ops...)
}

// IsEmpty reports whether no operation was applied.
func (b *Batch) IsEmpty() bool {
	return len(b.ops) == 0
}

// IsCommitted reports whether the batch's scope has closed.
func (b *Batch) IsCommitted() bool {
	return b.committed
}

// Description implements history.Entry.
func (b *Batch) Description() string {
	return fmt.Sprintf("%s (%d operations)", b.typ, len(b.ops))
}

func (b *Batch) apply(op Operation) error {
	if b.committed {
		return ErrBatchCommitted
	}
	if !b.doc.inScope {
		return ErrNoChangeScope
	}
	if err := b.doc.applyOperation(op, b); err != nil {
		return err
	}
	if !b.scoped {
		b.scoped = true
		b.doc.batches = append(b.doc.batches, b)
	}
	b.ops = append(b.ops, op)
	return nil
}

// Insert inserts detached nodes at pos.
func (b *Batch) Insert(pos Position, nodes ...Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return b.apply(&insertOperation{position: pos, nodes: nodes})
}

// InsertText inserts a text node with attrs at pos.
func (b *Batch) InsertText(pos Position, text string, attrs Attributes) error {
	if text == "" {
		return nil
	}
	return b.Insert(pos, NewText(text, attrs))
}

// Remove removes the content of a flat range.
func (b *Batch) Remove(r Range) error {
	if !r.IsFlat() {
		return fmt.Errorf("%w: %s", ErrNotFlat, r)
	}
	if r.IsCollapsed() {
		return nil
	}
	return b.apply(&removeOperation{position: r.Start, howMany: r.End.Offset() - r.Start.Offset()})
}

// SetAttr sets key to value on every text run in r and every element fully
// contained in r. One operation is created per contiguous run of items whose
// value actually changes. A nil value removes the attribute.
func (b *Batch) SetAttr(key string, value any, r Range) error {
	if value == nil {
		return b.RemoveAttr(key, r)
	}
	return b.attr(key, value, true, r)
}

// RemoveAttr removes key from every text run in r and every element fully
// contained in r.
func (b *Batch) RemoveAttr(key string, r Range) error {
	return b.attr(key, nil, false, r)
}

// SetNodeAttr sets key on a single element, leaving its content untouched.
func (b *Batch) SetNodeAttr(el *Element, key string, value any) error {
	if value == nil {
		return b.RemoveNodeAttr(el, key)
	}
	return b.nodeAttr(el, key, value, true)
}

// RemoveNodeAttr removes key from a single element.
func (b *Batch) RemoveNodeAttr(el *Element, key string) error {
	return b.nodeAttr(el, key, nil, false)
}

func (b *Batch) nodeAttr(el *Element, key string, value any, has bool) error {
	r, err := RangeOnElement(el)
	if err != nil {
		return err
	}
	if !valueDiffers(&el.attributed, key, value, has) {
		return nil
	}
	return b.apply(&attributeOperation{rng: r, key: key, value: value, hasValue: has, nodeOnly: true})
}

func (b *Batch) attr(key string, value any, has bool, r Range) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: empty attribute range", ErrInvalidRange)
	}
	if r.Start.root != r.End.root {
		return fmt.Errorf("%w: %s", ErrRootMismatch, r)
	}
	r = newRange(r.Start, r.End)
	if r.IsCollapsed() {
		return nil
	}
	if b.committed {
		return ErrBatchCommitted
	}
	if !b.doc.inScope {
		return ErrNoChangeScope
	}

	runs, err := changedRuns(r, key, value, has)
	if err != nil {
		return err
	}
	for _, run := range runs {
		if err := b.apply(&attributeOperation{rng: run, key: key, value: value, hasValue: has}); err != nil {
			return err
		}
	}
	return nil
}

// changedRuns splits r into contiguous runs of text and fully contained
// elements whose value for key differs from the target value.
func changedRuns(r Range, key string, value any, has bool) ([]Range, error) {
	w, err := r.Walker(WalkerOptions{MergeCharacters: true, IgnoreElementEnd: true})
	if err != nil {
		return nil, err
	}

	var runs []Range
	var skip Position
	for v := range w.Values() {
		if !skip.IsZero() && v.PreviousPosition.IsBefore(skip) {
			continue
		}
		start, end := v.PreviousPosition, v.NextPosition
		differs := false

		switch item := v.Item.(type) {
		case *Element:
			end = at(item.parent, item.EndOffset())
			if end.IsAfter(r.End) {
				continue
			}
			skip = end
			differs = subtreeDiffers(item, key, value, has)
		case *TextProxy:
			differs = valueDiffers(&item.attributed, key, value, has)
		}
		if !differs {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].End.IsEqual(start) {
			runs[n-1].End = end
			continue
		}
		runs = append(runs, Range{Start: start, End: end})
	}
	return runs, nil
}

func valueDiffers(holder *attributed, key string, value any, has bool) bool {
	old, had := holder.Attribute(key)
	return had != has || (had && !reflect.DeepEqual(old, value))
}

func subtreeDiffers(el *Element, key string, value any, has bool) bool {
	if valueDiffers(&el.attributed, key, value, has) {
		return true
	}
	for _, c := range el.children {
		switch v := c.(type) {
		case *Element:
			if subtreeDiffers(v, key, value, has) {
				return true
			}
		case *Text:
			if valueDiffers(&v.attributed, key, value, has) {
				return true
			}
		}
	}
	return false
}

// Undo reverts every operation of the batch in reverse order. It must run
// inside a change scope; Document.Undo arranges that. When an operation
// fails the ones already reverted are applied again, so the tree is left as
// it was before the call.
func (b *Batch) Undo() error {
	if !b.doc.inScope {
		return ErrNoChangeScope
	}
	reverted := make([]Operation, 0, len(b.ops))
	for i := len(b.ops) - 1; i >= 0; i-- {
		rev := b.ops[i].reverse()
		if err := b.doc.applyOperation(rev, b); err != nil {
			err = fmt.Errorf("undo %s: %w", b.id, err)
			return b.rollback(reverted, b.ops, err)
		}
		reverted = append(reverted, rev)
	}
	b.reverted = reverted
	b.doc.replayed = append(b.doc.replayed, b.id)
	b.doc.record(b, journal.ActionUndo, reverted)
	return nil
}

// Redo re-applies the operations reverted by Undo.
func (b *Batch) Redo() error {
	if !b.doc.inScope {
		return ErrNoChangeScope
	}
	ops := make([]Operation, 0, len(b.reverted))
	for i := len(b.reverted) - 1; i >= 0; i-- {
		op := b.reverted[i].reverse()
		if err := b.doc.applyOperation(op, b); err != nil {
			err = fmt.Errorf("redo %s: %w", b.id, err)
			return b.rollback(ops, b.reverted, err)
		}
		ops = append(ops, op)
	}
	b.ops = ops
	b.reverted = nil
	b.doc.replayed = append(b.doc.replayed, b.id)
	b.doc.record(b, journal.ActionRedo, ops)
	return nil
}

// rollback reverses the operations in applied, newest first. applied[k]
// was made from source[len(source)-1-k]; each slot of source is replaced by
// the freshly applied operation so a later Undo or Redo starts from nodes
// that match the tree. It returns cause, joined with the rollback failure
// if there is one.
func (b *Batch) rollback(applied, source []Operation, cause error) error {
	for k := len(applied) - 1; k >= 0; k-- {
		back := applied[k].reverse()
		if err := b.doc.applyOperation(back, b); err != nil {
			b.doc.logger.Error("rollback of batch %s failed, tree is inconsistent: %v", b.id, err)
			return errors.Join(cause, fmt.Errorf("rollback %s: %w", b.id, err))
		}
		source[len(source)-1-k] = back
	}
	b.doc.logger.Warn("%v; batch %s rolled back", cause, b.id)
	return cause
}

var _ history.Entry = (*Batch)(nil)
