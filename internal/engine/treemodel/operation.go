package treemodel

import (
	"fmt"
	"reflect"
)

// OperationKind names an operation type.
type OperationKind string

const (
	// OperationInsert inserts nodes at a position.
	OperationInsert OperationKind = "insert"
	// OperationRemove removes a flat span of offsets.
	OperationRemove OperationKind = "remove"
	// OperationAttribute sets or removes one attribute over a range.
	OperationAttribute OperationKind = "attribute"
)

// Operation is one atomic, reversible tree change. Operations are created
// by Batch methods and applied by the Document.
type Operation interface {
	// Kind returns the operation type.
	Kind() OperationKind

	// Range returns the affected span: the inserted content, the removed
	// span (before removal), or the attributed range.
	Range() Range

	// Key returns the attribute key for attribute operations, "" otherwise.
	Key() string

	apply() (Change, error)
	reverse() Operation
}

// Change describes an applied operation. It is the payload of
// document.change events.
type Change struct {
	Kind    OperationKind
	Range   Range
	Key     string
	BatchID string

	// HowMany is the offset count inserted or removed.
	HowMany int
}

type insertOperation struct {
	position Position
	nodes    []Node
	howMany  int
}

func (op *insertOperation) Kind() OperationKind { return OperationInsert }
func (op *insertOperation) Key() string { return "" }

func (op *insertOperation) Range() Range {
	return Range{Start: op.position, End: op.position.ShiftedBy(op.howMany)}
}

func (op *insertOperation) apply() (Change, error) {
	parent, err := op.position.resolveParent()
	if err != nil {
		return Change{}, err
	}
	if off := op.position.Offset(); off < 0 || off > parent.MaxOffset() {
		return Change{}, fmt.Errorf("%w: insert at %s", ErrInvalidPath, op.position)
	}

	nodes := make([]Node, 0, len(op.nodes))
	size := 0
	for _, n := range op.nodes {
		if n.Parent() != nil || isRoot(n) {
			return Change{}, fmt.Errorf("%w: insert at %s", ErrNodeAttached, op.position)
		}
		if n.OffsetSize() == 0 {
			continue
		}
		nodes = append(nodes, n)
		size += n.OffsetSize()
	}

	index := parent.splitAt(op.position.Offset())
	parent.insertChildren(index, nodes...)
	parent.normalize()
	op.howMany = size

	return Change{Kind: OperationInsert, Range: op.Range(), HowMany: size}, nil
}

func (op *insertOperation) reverse() Operation {
	return &removeOperation{position: op.position, howMany: op.howMany}
}

type removeOperation struct {
	position Position
	howMany  int
	removed  []Node
}

func (op *removeOperation) Kind() OperationKind { return OperationRemove }
func (op *removeOperation) Key() string { return "" }

func (op *removeOperation) Range() Range {
	return Range{Start: op.position, End: op.position.ShiftedBy(op.howMany)}
}

func (op *removeOperation) apply() (Change, error) {
	parent, err := op.position.resolveParent()
	if err != nil {
		return Change{}, err
	}
	off := op.position.Offset()
	if off < 0 || op.howMany < 0 || off+op.howMany > parent.MaxOffset() {
		return Change{}, fmt.Errorf("%w: remove %d at %s", ErrInvalidRange, op.howMany, op.position)
	}

	first := parent.splitAt(off)
	last := parent.splitAt(off + op.howMany)
	op.removed = parent.removeChildren(first, last-first)
	parent.normalize()

	return Change{Kind: OperationRemove, Range: op.Range(), HowMany: op.howMany}, nil
}

func (op *removeOperation) reverse() Operation {
	return &insertOperation{position: op.position, nodes: op.removed}
}

// attributeChange records one node's attribute transition. Text changes
// address a span of offsets, element changes the element after start.
type attributeChange struct {
	element    bool
	start, end Position
	oldValue   any
	hadOld     bool
	newValue   any
	hasNew     bool
}

type attributeOperation struct {
	rng      Range
	key      string
	value    any
	hasValue bool

	// nodeOnly limits the operation to the element the range is on.
	nodeOnly bool

	// changes is filled by the first apply; a reversed operation carries
	// fixed changes to restore.
	changes []attributeChange
	fixed   bool
}

func (op *attributeOperation) Kind() OperationKind { return OperationAttribute }
func (op *attributeOperation) Key() string { return op.key }
func (op *attributeOperation) Range() Range { return op.rng }

func (op *attributeOperation) apply() (Change, error) {
	var err error
	if op.fixed {
		err = op.restore()
	} else {
		err = op.applyRange()
	}
	if err != nil {
		return Change{}, err
	}
	return Change{Kind: OperationAttribute, Range: op.rng, Key: op.key}, nil
}

func (op *attributeOperation) applyRange() error {
	r := op.rng
	if op.nodeOnly {
		return op.applyNode()
	}
	startParent, err := r.Start.resolveParent()
	if err != nil {
		return err
	}
	endParent, err := r.End.resolveParent()
	if err != nil {
		return err
	}
	if r.Start.Offset() > startParent.MaxOffset() || r.End.Offset() > endParent.MaxOffset() {
		return fmt.Errorf("%w: attribute range %s", ErrInvalidPath, r)
	}
	startParent.splitAt(r.Start.Offset())
	endParent.splitAt(r.End.Offset())

	w, err := r.Walker(WalkerOptions{IgnoreElementEnd: true, MergeCharacters: true})
	if err != nil {
		return err
	}

	type target struct {
		holder *attributed
		change attributeChange
	}
	var targets []target
	touched := map[*Element]struct{}{}

	for v := range w.Values() {
		switch item := v.Item.(type) {
		case *Element:
			if at(item.parent, item.EndOffset()).IsAfter(r.End) {
				continue
			}
			targets = append(targets, target{&item.attributed, attributeChange{
				element: true,
				start:   v.PreviousPosition,
				end:     at(item.parent, item.EndOffset()),
			}})
		case *TextProxy:
			parent := item.parent
			touched[parent] = struct{}{}
			first := parent.splitAt(item.start)
			last := parent.splitAt(item.end)
			offset := item.start
			for _, c := range parent.children[first:last] {
				t := c.(*Text)
				targets = append(targets, target{&t.attributed, attributeChange{
					start: at(parent, offset),
					end:   at(parent, offset+t.size),
				}})
				offset += t.size
			}
		}
	}

	op.changes = op.changes[:0]
	for _, tg := range targets {
		old, had := tg.holder.Attribute(op.key)
		if had == op.hasValue && (!had || reflect.DeepEqual(old, op.value)) {
			continue
		}
		tg.change.oldValue, tg.change.hadOld = old, had
		tg.change.newValue, tg.change.hasNew = op.value, op.hasValue
		op.changes = append(op.changes, tg.change)
		op.set(tg.holder, op.hasValue, op.value)
	}

	touched[startParent] = struct{}{}
	touched[endParent] = struct{}{}
	for el := range touched {
		el.normalize()
	}
	return nil
}

func (op *attributeOperation) applyNode() error {
	el, ok := op.rng.Start.NodeAfter().(*Element)
	if !ok {
		return fmt.Errorf("%w: no element at %s", ErrInvalidPath, op.rng.Start)
	}
	old, had := el.Attribute(op.key)
	op.changes = []attributeChange{{
		element:  true,
		start:    op.rng.Start,
		end:      op.rng.End,
		oldValue: old,
		hadOld:   had,
		newValue: op.value,
		hasNew:   op.hasValue,
	}}
	op.set(&el.attributed, op.hasValue, op.value)
	return nil
}

// restore applies the recorded new values of each change.
func (op *attributeOperation) restore() error {
	touched := map[*Element]struct{}{}
	for _, ch := range op.changes {
		parent, err := ch.start.resolveParent()
		if err != nil {
			return err
		}
		if ch.element {
			el, ok := ch.start.NodeAfter().(*Element)
			if !ok {
				return fmt.Errorf("%w: no element at %s", ErrInvalidPath, ch.start)
			}
			op.set(&el.attributed, ch.hasNew, ch.newValue)
			continue
		}
		touched[parent] = struct{}{}
		first := parent.splitAt(ch.start.Offset())
		last := parent.splitAt(ch.end.Offset())
		for _, c := range parent.children[first:last] {
			op.set(&c.(*Text).attributed, ch.hasNew, ch.newValue)
		}
	}
	for el := range touched {
		el.normalize()
	}
	return nil
}

func (op *attributeOperation) set(holder *attributed, has bool, value any) {
	if has {
		holder.setAttribute(op.key, value)
	} else {
		holder.removeAttribute(op.key)
	}
}

// reverse returns an operation that swaps every recorded change back.
func (op *attributeOperation) reverse() Operation {
	rev := &attributeOperation{rng: op.rng, key: op.key, fixed: true, nodeOnly: op.nodeOnly}
	rev.changes = make([]attributeChange, len(op.changes))
	for i, ch := range op.changes {
		ch.oldValue, ch.newValue = ch.newValue, ch.oldValue
		ch.hadOld, ch.hasNew = ch.hasNew, ch.hadOld
		rev.changes[i] = ch
	}
	return rev
}
