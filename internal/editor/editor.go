// Package editor hosts a folio document together with its schema, command
// registry, logger and journal behind one mutex-guarded facade.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/dshills/folio/internal/command"
	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/engine/journal"
	"github.com/dshills/folio/internal/engine/schema"
	"github.com/dshills/folio/internal/engine/treemodel"
	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/event/topic"
	"github.com/dshills/folio/internal/logging"
)

// RootName is the name of the editor's only root.
const RootName = "main"

// eventSource identifies the editor in event metadata.
const eventSource = "editor"

// SchemaChange is the payload of schema.reloaded events.
type SchemaChange struct {
	Items []string
}

// Option configures an Editor.
type Option func(*options)

type options struct {
	logger  *logging.Logger
	journal io.Writer
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithJournalWriter records committed batches to w instead of the file
// named in the configuration.
func WithJournalWriter(w io.Writer) Option {
	return func(o *options) {
		o.journal = w
	}
}

// Editor is safe for concurrent use; every method holds the editor lock.
type Editor struct {
	mu sync.Mutex

	cfg      config.Config
	doc      *treemodel.Document
	root     *treemodel.RootElement
	schema   *schema.Schema
	commands *command.Registry
	logger   *logging.Logger

	recorder    *journal.CBORRecorder
	journalFile *os.File

	closed bool
}

// New builds an editor from cfg.
func New(cfg config.Config, opts ...Option) (*Editor, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.Log.Level),
			Output: os.Stderr,
			Prefix: cfg.Log.Prefix,
		})
	}

	e := &Editor{
		cfg:      cfg.Clone(),
		commands: command.NewRegistry(),
		logger:   o.logger.WithComponent("editor"),
	}

	s, err := e.buildSchema(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}
	e.schema = s

	rec, err := e.openJournal(o.journal)
	if err != nil {
		return nil, err
	}

	emitter := event.NewEmitter(
		event.WithPanicHandler(func(perr *event.PanicError) {
			e.logger.Error("event handler panicked on %s: %v", perr.Topic, perr.Value)
		}),
		event.WithErrorHandler(func(herr *event.HandlerError) {
			e.logger.Warn("event handler failed: %v", herr)
		}),
	)

	e.doc = treemodel.NewDocument(
		treemodel.WithSchema(s),
		treemodel.WithHistory(history.New(cfg.History.MaxEntries)),
		treemodel.WithEmitter(emitter),
		treemodel.WithJournal(rec),
		treemodel.WithLogger(o.logger),
	)
	e.root, err = e.doc.CreateRoot(RootName)
	if err != nil {
		e.closeJournal()
		return nil, err
	}

	audit := command.NewAuditHook(o.logger.WithComponent("command"))
	e.commands.AddPreHook(audit, 0)
	e.commands.AddPostHook(audit, 0)
	for _, key := range commandKeys(cfg.Commands) {
		if err := e.addAttributeCommand(key); err != nil {
			e.commands.Destroy()
			e.closeJournal()
			return nil, err
		}
	}

	return e, nil
}

func commandKeys(keys []string) []string {
	if len(keys) == 0 {
		return config.DefaultCommands
	}
	return keys
}

func (e *Editor) openJournal(w io.Writer) (journal.Recorder, error) {
	if w == nil && e.cfg.Journal.Path != "" {
		f, err := os.OpenFile(e.cfg.Journal.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		e.journalFile = f
		w = f
	}
	if w == nil {
		return journal.NopRecorder{}, nil
	}
	e.recorder = journal.NewCBORRecorder(w)
	return e.recorder, nil
}

func (e *Editor) closeJournal() {
	if e.journalFile != nil {
		if err := e.journalFile.Close(); err != nil {
			e.logger.Warn("closing journal: %v", err)
		}
		e.journalFile = nil
	}
}

func (e *Editor) addAttributeCommand(key string) error {
	cmd := command.NewAttributeCommand(e.doc, key)
	if err := e.commands.Add(key, cmd); err != nil {
		cmd.Destroy()
		return err
	}
	e.logger.Debug("registered attribute command %s", key)
	return nil
}

// Document returns the edited document. Callers must not use it
// concurrently with the editor's own methods.
func (e *Editor) Document() *treemodel.Document {
	return e.doc
}

// Root returns the main root.
func (e *Editor) Root() *treemodel.RootElement {
	return e.root
}

// Schema returns the active schema.
func (e *Editor) Schema() *schema.Schema {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schema
}

// Commands returns the command registry.
func (e *Editor) Commands() *command.Registry {
	return e.commands
}

// CommandNames lists the registered commands.
func (e *Editor) CommandNames() []string {
	return e.commands.Names()
}

// Execute runs the named command.
func (e *Editor) Execute(name string, args ...any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.commands.Execute(name, args...)
}

// CommandState returns the observable state of the named command.
func (e *Editor) CommandState(name string) (enabled, value bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd, err := e.commands.Get(name)
	if err != nil {
		return false, false, err
	}
	return cmd.IsEnabled(), cmd.Value(), nil
}

// Undo reverts the last undoable batch.
func (e *Editor) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.doc.Undo()
}

// Redo re-applies the last undone batch.
func (e *Editor) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.doc.Redo()
}

// Select sets the selection to the range between two paths in the main
// root. A nil to collapses the selection at from.
func (e *Editor) Select(from, to []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	start, err := treemodel.NewPosition(e.root, from)
	if err != nil {
		return err
	}
	if to == nil {
		return e.doc.Selection().CollapseTo(start)
	}
	end, err := treemodel.NewPosition(e.root, to)
	if err != nil {
		return err
	}
	r, err := treemodel.NewRange(start, end)
	if err != nil {
		return err
	}
	return e.doc.Selection().SetRanges([]treemodel.Range{r}, start.IsAfter(end))
}

// SelectAll selects the whole content of the main root.
func (e *Editor) SelectAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	r, err := treemodel.RangeInElement(&e.root.Element)
	if err != nil {
		return err
	}
	return e.doc.Selection().SetRange(r)
}

// Selection returns the selection ranges.
func (e *Editor) Selection() []treemodel.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Selection().Ranges()
}

// InsertText inserts text with attrs at path as one undo step.
func (e *Editor) InsertText(path []int, text string, attrs treemodel.Attributes) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	pos, err := treemodel.NewPosition(e.root, path)
	if err != nil {
		return err
	}
	if !e.schema.CheckAtPosition(pos, schema.Text, attrs.Keys()...) {
		return fmt.Errorf("%w: text %v at %s", ErrNotAllowed, attrs.Keys(), pos)
	}
	return e.doc.EnqueueChanges(func() error {
		return e.doc.Batch(treemodel.BatchDefault).InsertText(pos, text, attrs)
	})
}

// InsertElement inserts an element named name at path. A non-empty text
// becomes its only child.
func (e *Editor) InsertElement(path []int, name string, attrs treemodel.Attributes, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	pos, err := treemodel.NewPosition(e.root, path)
	if err != nil {
		return err
	}
	if !e.schema.CheckAtPosition(pos, name, attrs.Keys()...) {
		return fmt.Errorf("%w: %s at %s", ErrNotAllowed, name, pos)
	}
	el := treemodel.NewElement(name, attrs, treemodel.NewText(text, nil))
	return e.doc.EnqueueChanges(func() error {
		return e.doc.Batch(treemodel.BatchDefault).Insert(pos, el)
	})
}

// Type replaces the selected content with text carrying the selection
// attributes, the way typing does. Attributes the schema rejects at the
// caret are dropped.
func (e *Editor) Type(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	sel := e.doc.Selection()
	r, ok := sel.FirstRange()
	if !ok {
		return ErrNoSelection
	}
	attrs := sel.Attributes()

	pos := r.Start
	if !e.schema.CheckAtPosition(pos, schema.Text) {
		return fmt.Errorf("%w: text at %s", ErrNotAllowed, pos)
	}
	allowed := make(treemodel.Attributes, len(attrs))
	for _, key := range attrs.Keys() {
		if e.schema.CheckAtPosition(pos, schema.Text, key) {
			allowed[key] = attrs[key]
		}
	}

	return e.doc.EnqueueChanges(func() error {
		b := e.doc.Batch(treemodel.BatchTyping)
		if !r.IsCollapsed() {
			if err := b.Remove(r); err != nil {
				return err
			}
		}
		return b.InsertText(pos, text, allowed)
	})
}

// Load replaces the content of the main root with the children of a dump
// produced by Dump. The replacement is not undoable and clears history.
func (e *Editor) Load(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	var dn treemodel.DumpNode
	if err := json.Unmarshal(data, &dn); err != nil {
		return fmt.Errorf("%w: %v", treemodel.ErrInvalidDump, err)
	}
	nodes := make([]treemodel.Node, 0, len(dn.Content))
	for _, c := range dn.Content {
		n, err := treemodel.FromDump(c)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}

	err := e.doc.EnqueueChanges(func() error {
		b := e.doc.Batch(treemodel.BatchTransparent)
		if !e.root.IsEmpty() {
			all, err := treemodel.RangeInElement(&e.root.Element)
			if err != nil {
				return err
			}
			if err := b.Remove(all); err != nil {
				return err
			}
		}
		if len(nodes) == 0 {
			return nil
		}
		start, err := treemodel.PositionAt(&e.root.Element, 0)
		if err != nil {
			return err
		}
		return b.Insert(start, nodes...)
	})
	if err != nil {
		return err
	}
	e.doc.History().Clear()
	e.logger.Info("loaded %d top-level nodes", len(nodes))
	return nil
}

// Dump returns the main root as indented JSON.
func (e *Editor) Dump() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return json.MarshalIndent(treemodel.Dump(&e.root.Element), "", "  ")
}

// Markup returns the main root in the compact markup form.
func (e *Editor) Markup() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return treemodel.Stringify(&e.root.Element)
}

// Text returns the plain text of the main root.
func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root.TextContent()
}

// ReloadSchema replaces the schema with one built from rs and refreshes
// every command. Rules that cannot be loaded are logged and skipped while
// the rest take effect. Any other build failure keeps the current schema.
func (e *Editor) ReloadSchema(rs schema.RuleSet) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.reloadSchema(rs)
}

// buildSchema builds a schema from rs. Rejected rules are logged and
// skipped, which leaves the items they mention denied.
func (e *Editor) buildSchema(rs schema.RuleSet) (*schema.Schema, error) {
	s, err := BuildSchema(rs)
	var rerrs *schema.RuleErrors
	if errors.As(err, &rerrs) {
		for _, re := range rerrs.Errors {
			e.logger.Warn("schema rule skipped: %v", re)
		}
		return s, nil
	}
	return s, err
}

func (e *Editor) reloadSchema(rs schema.RuleSet) error {
	s, err := e.buildSchema(rs)
	if err != nil {
		e.logger.Warn("schema reload rejected: %v", err)
		return err
	}
	e.schema = s
	e.doc.SetSchema(s)
	e.commands.RefreshAll()

	items := s.Items()
	e.logger.Info("schema reloaded with %d items", len(items))
	ev := event.NewEvent(topic.SchemaReloaded, SchemaChange{Items: items}, eventSource)
	return e.doc.Emitter().Publish(context.Background(), ev)
}

// ApplyConfig applies a reloaded configuration: schema rules, log level,
// history limit and the set of attribute commands.
func (e *Editor) ApplyConfig(cfg config.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	if err := e.reloadSchema(cfg.Schema); err != nil {
		return err
	}
	e.logger.SetLevel(logging.ParseLevel(cfg.Log.Level))
	e.doc.History().SetMaxEntries(cfg.History.MaxEntries)

	want := commandKeys(cfg.Commands)
	for _, name := range e.commands.Names() {
		if !slices.Contains(want, name) {
			e.commands.Remove(name)
			e.logger.Debug("removed command %s", name)
		}
	}
	for _, key := range want {
		if e.commands.Has(key) {
			continue
		}
		if err := e.addAttributeCommand(key); err != nil {
			return err
		}
	}

	e.cfg = cfg.Clone()
	return nil
}

// Config returns the configuration the editor currently runs with.
func (e *Editor) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Clone()
}

// JournalErr reports the first journal write error, if any.
func (e *Editor) JournalErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recorder == nil {
		return nil
	}
	return e.recorder.Err()
}

// Close destroys the commands and closes the journal. Later calls are
// no-ops.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.commands.Destroy()

	var err error
	if e.recorder != nil {
		err = e.recorder.Err()
	}
	if e.journalFile != nil {
		if cerr := e.journalFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
		e.journalFile = nil
	}
	return err
}
