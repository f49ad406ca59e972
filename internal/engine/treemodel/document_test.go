package treemodel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/engine/journal"
	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/event/topic"
)

type memoryJournal struct {
	entries []journal.Entry
}

func (m *memoryJournal) Record(e journal.Entry) {
	m.entries = append(m.entries, e)
}

func TestDocumentRoots(t *testing.T) {
	doc := NewDocument()
	main, err := doc.CreateRoot("main")
	require.NoError(t, err)
	_, err = doc.CreateRootElement("title", "$title")
	require.NoError(t, err)

	_, err = doc.CreateRoot("main")
	assert.ErrorIs(t, err, ErrRootExists)

	assert.Same(t, main, doc.Root("main"))
	assert.Nil(t, doc.Root("missing"))
	assert.Equal(t, []string{"main", "title"}, doc.RootNames())
	assert.Equal(t, "$title", doc.Root("title").Name())
	assert.Equal(t, "main", main.RootName())
	assert.Same(t, doc, main.Document())
	assert.Same(t, main, main.Root())
	assert.Empty(t, main.Path())
}

func TestDocumentEventsAreBufferedUntilScopeCloses(t *testing.T) {
	doc, root := newDoc(t, para(txt("foo")))

	var changes []Change
	var done []ChangesDone
	_, err := event.SubscribePayload(doc.Emitter(), topic.DocumentChange, func(_ context.Context, c Change) error {
		changes = append(changes, c)
		return nil
	})
	require.NoError(t, err)
	_, err = event.SubscribePayload(doc.Emitter(), topic.DocumentChangesDone, func(_ context.Context, d ChangesDone) error {
		done = append(done, d)
		return nil
	})
	require.NoError(t, err)

	var b *Batch
	require.NoError(t, doc.EnqueueChanges(func() error {
		b = doc.Batch(BatchDefault)
		if err := b.InsertText(pos(t, root, 0, 3), "bar", nil); err != nil {
			return err
		}
		if err := b.SetAttr("bold", true, rng(t, root, []int{0, 0}, []int{0, 2})); err != nil {
			return err
		}
		assert.Empty(t, changes, "no events inside the scope")
		return nil
	}))

	require.Len(t, changes, 2)
	assert.Equal(t, OperationInsert, changes[0].Kind)
	assert.Equal(t, 3, changes[0].HowMany)
	assert.Equal(t, OperationAttribute, changes[1].Kind)
	assert.Equal(t, "bold", changes[1].Key)
	assert.Equal(t, b.ID(), changes[1].BatchID)

	require.Len(t, done, 1)
	assert.Equal(t, []string{b.ID()}, done[0].Batches)
	assert.Equal(t, doc.Version(), done[0].Version)

	require.NoError(t, doc.Undo())
	assert.Len(t, changes, 4)
	require.Len(t, done, 2)
	assert.Equal(t, []string{b.ID()}, done[1].Batches)
}

func TestDocumentNestedEnqueueRunsAfterCurrentCallback(t *testing.T) {
	doc, _ := newDoc(t)
	var order []string

	require.NoError(t, doc.EnqueueChanges(func() error {
		order = append(order, "outer start")
		require.NoError(t, doc.EnqueueChanges(func() error {
			order = append(order, "inner")
			return nil
		}))
		order = append(order, "outer end")
		assert.True(t, doc.InChangeScope())
		return nil
	}))

	assert.Equal(t, []string{"outer start", "outer end", "inner"}, order)
	assert.False(t, doc.InChangeScope())
}

func TestDocumentEnqueueReturnsFirstError(t *testing.T) {
	doc, _ := newDoc(t)
	errFirst := errors.New("first")
	ran := false

	err := doc.EnqueueChanges(func() error {
		_ = doc.EnqueueChanges(func() error {
			ran = true
			return errors.New("second")
		})
		return errFirst
	})
	assert.ErrorIs(t, err, errFirst)
	assert.True(t, ran)
}

func TestDocumentNoEventsWithoutChanges(t *testing.T) {
	doc, _ := newDoc(t)
	count := 0
	_, err := doc.On(topic.Topic("document.*"), func(context.Context, any) error {
		count++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, doc.EnqueueChanges(func() error { return nil }))
	assert.Zero(t, count)
}

func TestDocumentJournal(t *testing.T) {
	rec := &memoryJournal{}
	doc := NewDocument(WithJournal(rec), WithHistory(history.New(10)))
	root, err := doc.CreateRoot("main")
	require.NoError(t, err)

	require.NoError(t, doc.EnqueueChanges(func() error {
		return doc.Batch(BatchTyping).Insert(at(&root.Element, 0), para(txt("hi")))
	}))
	require.NoError(t, doc.Undo())

	require.Len(t, rec.entries, 2)
	commit := rec.entries[0]
	assert.Equal(t, journal.ActionCommit, commit.Action)
	assert.Equal(t, BatchTyping, commit.BatchType)
	require.Len(t, commit.Operations, 1)
	assert.Equal(t, "insert", commit.Operations[0].Kind)
	assert.Equal(t, "main", commit.Operations[0].Root)
	assert.Equal(t, []int{0}, commit.Operations[0].Start)
	assert.Equal(t, []int{1}, commit.Operations[0].End)

	undo := rec.entries[1]
	assert.Equal(t, journal.ActionUndo, undo.Action)
	assert.Equal(t, commit.BatchID, undo.BatchID)
	assert.Equal(t, "remove", undo.Operations[0].Kind)
}

func TestDocumentUndoEmptyHistory(t *testing.T) {
	doc, _ := newDoc(t)
	assert.ErrorIs(t, doc.Undo(), history.ErrNothingToUndo)
	assert.ErrorIs(t, doc.Redo(), history.ErrNothingToRedo)
}

func TestDumpJSON(t *testing.T) {
	_, root := newDoc(t, para(txt("a"), NewText("b", Attributes{"bold": true, "color": "red"})))

	data, err := root.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "$root",
		"content": [{
			"type": "paragraph",
			"content": [
				{"type": "text", "text": "a"},
				{"type": "text", "text": "b", "marks": [
					{"type": "bold"},
					{"type": "color", "attrs": {"value": "red"}}
				]}
			]
		}]
	}`, string(data))
}
