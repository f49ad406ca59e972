package command

import (
	"context"

	"github.com/dshills/folio/internal/engine/treemodel"
	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/event/topic"
)

// Observable property names.
const (
	PropertyEnabled = "isEnabled"
	PropertyValue   = "value"
)

// eventSource identifies commands in event metadata.
const eventSource = "command"

// Variant supplies the behaviour of a concrete command.
type Variant interface {
	// CheckEnabled reports whether the command can run in the current state.
	CheckEnabled() bool

	// DoExecute performs the command. It is only called while enabled.
	DoExecute(args ...any) error
}

// Executable is the view of a command the registry and hosts use.
type Executable interface {
	Name() string
	IsEnabled() bool
	Value() bool
	Refresh()
	Execute(args ...any) error
	Destroy()
}

// PropertyChange is the payload of command.change.<property> events.
type PropertyChange struct {
	Command  string
	Property string
	Value    bool
	Previous bool
}

// Command is the base shared by all commands.
type Command struct {
	name    string
	doc     *treemodel.Document
	variant Variant

	enabled bool
	value   bool

	subs      []event.Subscription
	destroyed bool
}

// New creates a command bound to doc. The command refreshes its enabled
// state after every selection move and every closed change scope.
func New(name string, doc *treemodel.Document, v Variant) *Command {
	c := &Command{name: name, doc: doc, variant: v}
	refresh := func(context.Context, any) error {
		c.Refresh()
		return nil
	}
	for _, t := range []topic.Topic{topic.SelectionRange, topic.DocumentChangesDone} {
		if sub, err := doc.On(t, refresh, event.WithPriority(event.PriorityHigh)); err == nil {
			c.subs = append(c.subs, sub)
		}
	}
	c.enabled = v.CheckEnabled()
	return c
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.name
}

// Document returns the document the command edits.
func (c *Command) Document() *treemodel.Document {
	return c.doc
}

// IsEnabled reports whether Execute will act.
func (c *Command) IsEnabled() bool {
	return c.enabled
}

// Value returns the command's value property.
func (c *Command) Value() bool {
	return c.value
}

// SetValue updates the value property.
func (c *Command) SetValue(v bool) {
	c.set(PropertyValue, &c.value, v)
}

// Refresh recomputes IsEnabled from the variant.
func (c *Command) Refresh() {
	if c.destroyed {
		return
	}
	c.set(PropertyEnabled, &c.enabled, c.variant.CheckEnabled())
}

// Execute runs the variant when the command is enabled. A disabled command
// does nothing and returns nil.
func (c *Command) Execute(args ...any) error {
	if c.destroyed || !c.enabled {
		return nil
	}
	return c.variant.DoExecute(args...)
}

// OnChange calls fn whenever property of this command changes.
func (c *Command) OnChange(property string, fn func(PropertyChange)) (event.Subscription, error) {
	return event.SubscribePayload(c.doc.Emitter(), topic.CommandChange.Child(property),
		func(_ context.Context, pc PropertyChange) error {
			if pc.Command == c.name {
				fn(pc)
			}
			return nil
		})
}

// Track keeps sub alive for the command's lifetime; Destroy cancels it.
func (c *Command) Track(sub event.Subscription) {
	if sub != nil {
		c.subs = append(c.subs, sub)
	}
}

// Destroy detaches the command from the document.
func (c *Command) Destroy() {
	for _, sub := range c.subs {
		sub.Cancel()
	}
	c.subs = nil
	c.destroyed = true
}

func (c *Command) set(property string, field *bool, v bool) {
	if *field == v {
		return
	}
	prev := *field
	*field = v
	change := PropertyChange{Command: c.name, Property: property, Value: v, Previous: prev}
	_ = c.doc.Emitter().Publish(context.Background(),
		event.NewEvent(topic.CommandChange.Child(property), change, eventSource))
}

var _ Executable = (*Command)(nil)
