package command

import (
	"context"
	"fmt"

	"github.com/dshills/folio/internal/engine/treemodel"
	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/event/topic"
)

// AttributeCommand sets or removes a single attribute with value true on
// the document selection.
//
// Value is true when the selection has the attribute: for a collapsed
// selection, typed text will get it; for a range, its first text run has it.
type AttributeCommand struct {
	*Command
	doc *treemodel.Document
	key string
}

// NewAttributeCommand creates a command toggling key. The command is
// registered under the key's name.
func NewAttributeCommand(doc *treemodel.Document, key string) *AttributeCommand {
	ac := &AttributeCommand{doc: doc, key: key}
	ac.Command = New(key, doc, ac)

	sel := doc.Selection()
	sub, err := event.SubscribePayload(doc.Emitter(), topic.SelectionAttribute,
		func(context.Context, treemodel.SelectionAttributeChange) error {
			ac.SetValue(sel.HasAttribute(key))
			return nil
		}, event.WithPriority(event.PriorityHigh))
	if err == nil {
		ac.Track(sub)
	}
	ac.SetValue(sel.HasAttribute(key))
	return ac
}

// Key returns the attribute key the command toggles.
func (c *AttributeCommand) Key() string {
	return c.key
}

// CheckEnabled reports whether the schema permits the attribute somewhere
// in the selection. A collapsed selection checks $text at the caret; a
// range selection is enabled as soon as any walked item may carry the
// attribute at the position before it.
func (c *AttributeCommand) CheckEnabled() bool {
	sel := c.doc.Selection()
	schema := c.doc.Schema()

	if sel.IsCollapsed() {
		return schema.CheckAtPosition(sel.FirstPosition(), treemodel.TextName, c.key)
	}

	for _, r := range sel.Ranges() {
		w, err := r.Walker(treemodel.WalkerOptions{MergeCharacters: true})
		if err != nil {
			continue
		}
		last := w.Position()
		for {
			v, ok := w.Next()
			if !ok {
				break
			}
			if schema.CheckAtPosition(last, treemodel.TypeName(v.Item), c.key) {
				return true
			}
			last = w.Position()
		}
	}
	return false
}

// DoExecute applies the attribute. An optional bool (or *bool) argument
// forces setting (true) or removing (false); without it the current Value
// is toggled.
func (c *AttributeCommand) DoExecute(args ...any) error {
	force, err := forceValue(args)
	if err != nil {
		return err
	}
	value := !c.Value()
	if force != nil {
		value = *force
	}

	sel := c.doc.Selection()
	if sel.IsCollapsed() {
		if value {
			sel.SetAttribute(c.key, true)
		} else {
			sel.RemoveAttribute(c.key)
		}
		return nil
	}

	return c.doc.EnqueueChanges(func() error {
		ranges, err := c.SchemaValidRanges(sel.Ranges())
		if err != nil {
			return err
		}

		batch := c.doc.Batch(treemodel.BatchAttribute)
		for _, r := range ranges {
			if value {
				err = batch.SetAttr(c.key, true, r)
			} else {
				err = batch.RemoveAttr(c.key, r)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SchemaValidRanges splits ranges into the parts where the schema allows
// the attribute. Each walked item is checked at the position before it; a
// disallowed item closes the open part and a new one starts after it. Empty
// parts are never returned.
func (c *AttributeCommand) SchemaValidRanges(ranges []treemodel.Range) ([]treemodel.Range, error) {
	schema := c.doc.Schema()
	var valid []treemodel.Range

	for _, r := range ranges {
		w, err := r.Walker(treemodel.WalkerOptions{MergeCharacters: true})
		if err != nil {
			return nil, err
		}

		last, from, to := r.Start, r.Start, r.End
		for {
			v, ok := w.Next()
			if !ok {
				break
			}
			if !schema.CheckAtPosition(last, treemodel.TypeName(v.Item), c.key) {
				if !from.IsEqual(last) {
					valid = append(valid, treemodel.Range{Start: from, End: last})
				}
				from = w.Position()
			}
			last = w.Position()
		}

		if !from.IsEqual(to) {
			valid = append(valid, treemodel.Range{Start: from, End: to})
		}
	}
	return valid, nil
}

func forceValue(args []any) (*bool, error) {
	if len(args) == 0 || args[0] == nil {
		return nil, nil
	}
	switch v := args[0].(type) {
	case bool:
		return &v, nil
	case *bool:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: force value must be bool, got %T", ErrInvalidArgument, args[0])
	}
}

var _ Variant = (*AttributeCommand)(nil)
var _ Executable = (*AttributeCommand)(nil)
