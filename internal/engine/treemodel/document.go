package treemodel

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/engine/journal"
	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/event/topic"
	"github.com/dshills/folio/internal/logging"
)

// eventSource identifies the document in event metadata.
const eventSource = "treemodel"

// ChangesDone is the payload of document.changesdone, published once when
// a change scope that modified the tree closes.
type ChangesDone struct {
	Batches []string
	Version int
}

// Document owns a set of named roots, the selection and the undo history.
//
// Every mutation runs inside EnqueueChanges. Observers registered with On
// see document.change events for each operation once the outermost scope
// closes, followed by a single document.changesdone.
//
// A Document is not safe for concurrent use.
type Document struct {
	roots     map[string]*RootElement
	rootNames []string

	selection *Selection
	schema    Schema
	history   *history.History
	emitter   *event.Emitter
	journal   journal.Recorder
	logger    *logging.Logger
	version   int

	inScope bool
	queue   []func() error
	batches []*Batch
	pending []any
	touched bool

	// replayed holds batches undone or redone in the current scope.
	replayed []string
}

// Option configures a Document.
type Option func(*Document)

// WithSchema sets the schema consulted by commands and the selection.
func WithSchema(s Schema) Option {
	return func(d *Document) {
		if s != nil {
			d.schema = s
		}
	}
}

// WithHistory sets the undo history.
func WithHistory(h *history.History) Option {
	return func(d *Document) {
		if h != nil {
			d.history = h
		}
	}
}

// WithEmitter sets the event emitter, allowing it to be shared.
func WithEmitter(e *event.Emitter) Option {
	return func(d *Document) {
		if e != nil {
			d.emitter = e
		}
	}
}

// WithJournal sets the recorder receiving committed batches.
func WithJournal(r journal.Recorder) Option {
	return func(d *Document) {
		if r != nil {
			d.journal = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDocument creates an empty document without roots.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		roots:   make(map[string]*RootElement),
		schema:  denyAll{},
		history: history.New(history.DefaultMaxEntries),
		emitter: event.NewEmitter(),
		journal: journal.NopRecorder{},
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("document")
	d.selection = newSelection(d)
	return d
}

// CreateRoot adds a root named name whose element is called "$root".
func (d *Document) CreateRoot(name string) (*RootElement, error) {
	return d.CreateRootElement(name, "$root")
}

// CreateRootElement adds a root named name with the given element name.
func (d *Document) CreateRootElement(name, elementName string) (*RootElement, error) {
	if _, ok := d.roots[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrRootExists, name)
	}
	r := &RootElement{doc: d, rootName: name}
	r.name = elementName
	r.root = r
	d.roots[name] = r
	d.rootNames = append(d.rootNames, name)
	return r, nil
}

// Root returns the root registered under name, or nil.
func (d *Document) Root(name string) *RootElement {
	return d.roots[name]
}

// RootNames returns root names in creation order.
func (d *Document) RootNames() []string {
	return append([]string(nil), d.rootNames...)
}

// Selection returns the document selection.
func (d *Document) Selection() *Selection {
	return d.selection
}

// Schema returns the document schema.
func (d *Document) Schema() Schema {
	return d.schema
}

// SetSchema replaces the schema. Commands pick it up on their next refresh.
func (d *Document) SetSchema(s Schema) {
	if s == nil {
		s = denyAll{}
	}
	d.schema = s
}

// History returns the undo history.
func (d *Document) History() *history.History {
	return d.history
}

// Emitter returns the emitter used for document and selection events.
func (d *Document) Emitter() *event.Emitter {
	return d.emitter
}

// Version increases by one for every applied operation.
func (d *Document) Version() int {
	return d.version
}

// On subscribes fn to document and selection events matching pattern.
func (d *Document) On(pattern topic.Topic, fn func(ctx context.Context, ev any) error, opts ...event.SubscriptionOption) (event.Subscription, error) {
	return d.emitter.SubscribeFunc(pattern, fn, opts...)
}

// InChangeScope reports whether an EnqueueChanges callback is running.
func (d *Document) InChangeScope() bool {
	return d.inScope
}

// EnqueueChanges runs fn inside a change scope. A call made while a scope
// is open queues fn to run after the current callback and returns nil; the
// outermost call runs the whole queue, closes the scope and returns the
// first callback error. Changes made before an error are kept.
func (d *Document) EnqueueChanges(fn func() error) error {
	if fn == nil {
		return nil
	}
	d.queue = append(d.queue, fn)
	if d.inScope {
		return nil
	}

	d.inScope = true
	var firstErr error
	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue = d.queue[1:]
		if err := next(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.inScope = false

	d.closeScope()
	return firstErr
}

// Batch creates a batch recorded as one undo step. The batch joins the
// change scope in which its first operation is applied.
func (d *Document) Batch(typ string) *Batch {
	return newBatch(d, typ)
}

// Undo reverts the most recent batch.
func (d *Document) Undo() error {
	return d.EnqueueChanges(d.history.Undo)
}

// Redo re-applies the most recently undone batch.
func (d *Document) Redo() error {
	return d.EnqueueChanges(d.history.Redo)
}

// applyOperation applies op on behalf of b and buffers the change event.
func (d *Document) applyOperation(op Operation, b *Batch) error {
	if !d.inScope {
		return ErrNoChangeScope
	}
	if root := op.Range().Root(); root == nil || root.doc != d {
		return fmt.Errorf("%w: %s", ErrForeignRoot, op.Range())
	}

	change, err := op.apply()
	if err != nil {
		return err
	}
	d.version++
	d.touched = true
	change.BatchID = b.id

	switch op.Kind() {
	case OperationInsert:
		d.selection.transformByInsertion(change.Range.Start, change.HowMany)
	case OperationRemove:
		d.selection.transformByDeletion(change.Range.Start, change.HowMany)
	case OperationAttribute:
		d.selection.markAttributesDirty()
	}

	ev := event.NewEvent(topic.DocumentChange, change, eventSource).WithCorrelation(b.id)
	d.pending = append(d.pending, ev)
	return nil
}

func (d *Document) closeScope() {
	batches := d.batches
	d.batches = nil
	ids := d.replayed
	d.replayed = nil

	for _, b := range batches {
		b.committed = true
		if b.IsEmpty() {
			continue
		}
		ids = append(ids, b.id)
		if b.typ != BatchTransparent {
			d.history.Push(b)
		}
		d.record(b, journal.ActionCommit, b.ops)
		d.logger.Debug("committed batch %s (%s, %d operations)", b.id, b.typ, len(b.ops))
	}

	pending := d.pending
	d.pending = nil
	ctx := context.Background()
	for _, ev := range pending {
		_ = d.emitter.Publish(ctx, ev)
	}
	if d.touched {
		d.touched = false
		done := ChangesDone{Batches: ids, Version: d.version}
		_ = d.emitter.Publish(ctx, event.NewEvent(topic.DocumentChangesDone, done, eventSource))
	}

	d.selection.flush()
}

func (d *Document) record(b *Batch, action journal.Action, ops []Operation) {
	entry := journal.Entry{
		BatchID:   b.id,
		BatchType: b.typ,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
	for _, op := range ops {
		r := op.Range()
		entry.Operations = append(entry.Operations, journal.Operation{
			Kind:  string(op.Kind()),
			Root:  r.Root().rootName,
			Start: r.Start.Path(),
			End:   r.End.Path(),
			Key:   op.Key(),
		})
	}
	d.journal.Record(entry)
}
