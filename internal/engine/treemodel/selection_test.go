package treemodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/folio/internal/event"
	"github.com/dshills/folio/internal/event/topic"
)

func TestSelectionDefaultRange(t *testing.T) {
	doc, _ := newDoc(t, para(txt("x")))
	sel := doc.Selection()

	assert.True(t, sel.IsCollapsed())
	assert.False(t, sel.IsBackward())
	assert.Zero(t, sel.RangeCount())
	assert.Equal(t, []int{0}, sel.FirstPosition().Path())

	empty := NewDocument()
	assert.True(t, empty.Selection().FirstPosition().IsZero())
	assert.Empty(t, empty.Selection().Ranges())
}

func TestSelectionAttributesFromText(t *testing.T) {
	doc, root := newDoc(t, para(bold("ab"), txt("cd")))
	sel := doc.Selection()

	tests := []struct {
		name  string
		start []int
		end   []int
		bold  bool
	}{
		{"caret after bold text", []int{0, 2}, []int{0, 2}, true},
		{"caret inside plain text", []int{0, 3}, []int{0, 3}, false},
		{"caret before bold text", []int{0, 0}, []int{0, 0}, true},
		{"range starting in bold text", []int{0, 1}, []int{0, 4}, true},
		{"range over plain text", []int{0, 2}, []int{0, 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, sel.SetRange(rng(t, root, tt.start, tt.end)))
			assert.Equal(t, tt.bold, sel.HasAttribute("bold"))
		})
	}
}

func TestSelectionStoredAttributes(t *testing.T) {
	doc, root := newDoc(t, para(bold("ab"), txt("cd")))
	sel := doc.Selection()
	require.NoError(t, sel.CollapseTo(pos(t, root, 0, 2)))

	var attrEvents []SelectionAttributeChange
	_, err := event.SubscribePayload(doc.Emitter(), topic.SelectionAttribute, func(_ context.Context, c SelectionAttributeChange) error {
		attrEvents = append(attrEvents, c)
		return nil
	})
	require.NoError(t, err)
	docEvents := 0
	_, err = doc.On(topic.Topic("document.**"), func(context.Context, any) error {
		docEvents++
		return nil
	})
	require.NoError(t, err)

	sel.SetAttribute("italic", true)
	assert.True(t, sel.HasStoredAttributes())
	assert.True(t, sel.HasAttribute("italic"))
	assert.True(t, sel.HasAttribute("bold"), "stored attributes start from the surrounding text")
	require.Len(t, attrEvents, 1)
	assert.Equal(t, []string{"italic"}, attrEvents[0].Keys)

	sel.RemoveAttribute("bold")
	assert.False(t, sel.HasAttribute("bold"))
	require.Len(t, attrEvents, 2)
	assert.Equal(t, []string{"bold"}, attrEvents[1].Keys)

	sel.SetAttribute("italic", true)
	assert.Len(t, attrEvents, 2, "unchanged attributes fire no event")
	assert.Zero(t, docEvents)

	require.NoError(t, sel.CollapseTo(pos(t, root, 0, 1)))
	assert.False(t, sel.HasStoredAttributes())
	assert.False(t, sel.HasAttribute("italic"))
	assert.True(t, sel.HasAttribute("bold"))

	sel.ClearAttributes()
	assert.Empty(t, sel.Attributes())
}

func TestSelectionFollowsInsertions(t *testing.T) {
	doc, root := newDoc(t, para(txt("abcd")))
	sel := doc.Selection()
	require.NoError(t, sel.CollapseTo(pos(t, root, 0, 2)))

	var rangeEvents []SelectionRangeChange
	_, err := event.SubscribePayload(doc.Emitter(), topic.SelectionRange, func(_ context.Context, c SelectionRangeChange) error {
		rangeEvents = append(rangeEvents, c)
		return nil
	})
	require.NoError(t, err)

	change(t, doc, func(b *Batch) error {
		return b.InsertText(pos(t, root, 0, 0), "XY", nil)
	})
	assert.Equal(t, []int{0, 4}, sel.FirstPosition().Path())
	require.Len(t, rangeEvents, 1)
	assert.False(t, rangeEvents[0].Direct)

	change(t, doc, func(b *Batch) error {
		return b.InsertText(sel.FirstPosition(), "Z", nil)
	})
	assert.Equal(t, []int{0, 5}, sel.FirstPosition().Path(), "typing at the caret moves it")

	change(t, doc, func(b *Batch) error {
		return b.Remove(rng(t, root, []int{0, 0}, []int{0, 7}))
	})
	assert.Equal(t, []int{0, 0}, sel.FirstPosition().Path())
}

func TestSelectionNonCollapsedRangeKeepsInsertionAtEndOutside(t *testing.T) {
	doc, root := newDoc(t, para(txt("abcd")))
	sel := doc.Selection()
	require.NoError(t, sel.SetRanges([]Range{rng(t, root, []int{0, 1}, []int{0, 3})}, true))
	assert.True(t, sel.IsBackward())

	change(t, doc, func(b *Batch) error {
		return b.InsertText(pos(t, root, 0, 3), "X", nil)
	})
	r, ok := sel.FirstRange()
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, r.Start.Path())
	assert.Equal(t, []int{0, 3}, r.End.Path())

	change(t, doc, func(b *Batch) error {
		return b.InsertText(pos(t, root, 0, 1), "Y", nil)
	})
	r, _ = sel.FirstRange()
	assert.Equal(t, []int{0, 2}, r.Start.Path())
	assert.Equal(t, []int{0, 4}, r.End.Path())
}

func TestSelectionAttributeEventAfterAttributeChange(t *testing.T) {
	doc, root := newDoc(t, para(txt("abcd")))
	sel := doc.Selection()
	require.NoError(t, sel.SetRange(rng(t, root, []int{0, 1}, []int{0, 3})))
	assert.False(t, sel.HasAttribute("bold"))

	var keys [][]string
	_, err := event.SubscribePayload(doc.Emitter(), topic.SelectionAttribute, func(_ context.Context, c SelectionAttributeChange) error {
		keys = append(keys, c.Keys)
		return nil
	})
	require.NoError(t, err)

	change(t, doc, func(b *Batch) error {
		return b.SetAttr("bold", true, rng(t, root, []int{0, 1}, []int{0, 3}))
	})
	assert.True(t, sel.HasAttribute("bold"))
	assert.Equal(t, [][]string{{"bold"}}, keys)
}

func TestSelectionRejectsForeignRanges(t *testing.T) {
	doc, _ := newDoc(t, para())
	_, other := newDoc(t, para())

	err := doc.Selection().CollapseTo(pos(t, other, 0))
	assert.ErrorIs(t, err, ErrForeignRoot)
}
