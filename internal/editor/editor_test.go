package editor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Nop())}, opts...)
	ed, err := New(config.Default(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ed.Close() })
	return ed
}

// fill builds <paragraph>aaa</paragraph><heading1>bbb</heading1><paragraph>ccc</paragraph>.
func fill(t *testing.T, ed *Editor) {
	t.Helper()
	require.NoError(t, ed.InsertElement([]int{0}, Paragraph, nil, "aaa"))
	require.NoError(t, ed.InsertElement([]int{1}, Heading1, nil, "bbb"))
	require.NoError(t, ed.InsertElement([]int{2}, Paragraph, nil, "ccc"))
}

func TestNewRegistersDefaultCommands(t *testing.T) {
	ed := newEditor(t)

	assert.Equal(t, []string{"bold", "code", "italic", "underline"}, ed.CommandNames())
	assert.Equal(t, []string{RootName}, ed.Document().RootNames())
	assert.True(t, ed.Schema().HasItem(Heading1))
	assert.Equal(t, schema.Block, ed.Schema().BaseOf(Paragraph))
}

func TestNewSkipsBadRules(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.Default()
	cfg.Schema = DefaultRules()
	cfg.Schema.Items = append(cfg.Schema.Items, schema.ItemSpec{Name: "aside", Base: "missing"})
	cfg.Schema.Allow = append(cfg.Schema.Allow, schema.Rule{Name: "footnote", Inside: schema.Block})

	ed, err := New(cfg, WithLogger(logging.New(logging.Config{Level: logging.LevelWarn, Output: &logs})))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ed.Close() })

	assert.True(t, ed.Schema().HasItem(Heading1))
	assert.False(t, ed.Schema().HasItem("aside"))
	assert.Contains(t, logs.String(), "schema rule skipped")
	assert.Contains(t, logs.String(), "footnote")

	fill(t, ed)
	assert.ErrorIs(t, ed.InsertElement([]int{0, 1}, "footnote", nil, ""), ErrNotAllowed)
	assert.ErrorIs(t, ed.InsertElement([]int{1}, "aside", nil, ""), ErrNotAllowed)
	require.NoError(t, ed.InsertText([]int{0, 3}, "!", treemodel.Attributes{"italic": true}))
}

func TestInsertRespectsSchema(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)

	assert.Equal(t, "<paragraph>aaa</paragraph><heading1>bbb</heading1><paragraph>ccc</paragraph>", ed.Markup())
	assert.Equal(t, "aaabbbccc", ed.Text())

	err := ed.InsertText([]int{0}, "loose", nil)
	assert.ErrorIs(t, err, ErrNotAllowed, "text directly in the root")

	err = ed.InsertText([]int{1, 0}, "x", treemodel.Attributes{"bold": true})
	assert.ErrorIs(t, err, ErrNotAllowed, "bold inside heading1")

	err = ed.InsertElement([]int{0, 1}, Paragraph, nil, "")
	assert.ErrorIs(t, err, ErrNotAllowed, "paragraph inside paragraph")

	require.NoError(t, ed.InsertText([]int{0, 3}, "!", treemodel.Attributes{"italic": true}))
	require.NoError(t, ed.InsertElement([]int{2, 0}, Image, treemodel.Attributes{"src": "a.png"}, ""))
	assert.Equal(t,
		`<paragraph>aaa<$text italic="true">!</$text></paragraph><heading1>bbb</heading1><paragraph><image src="a.png"></image>ccc</paragraph>`,
		ed.Markup())

	err = ed.InsertText([]int{9, 9}, "x", nil)
	assert.ErrorIs(t, err, treemodel.ErrInvalidPath)
}

func TestExecuteBoldAcrossHeading(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)

	require.NoError(t, ed.Select([]int{0, 0}, []int{2, 3}))
	enabled, value, err := ed.CommandState("bold")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.False(t, value)

	require.NoError(t, ed.Execute("bold"))
	assert.Equal(t,
		`<paragraph><$text bold="true">aaa</$text></paragraph><heading1>bbb</heading1><paragraph><$text bold="true">ccc</$text></paragraph>`,
		ed.Markup())

	_, value, err = ed.CommandState("bold")
	require.NoError(t, err)
	assert.True(t, value)

	require.NoError(t, ed.Undo())
	assert.Equal(t, "<paragraph>aaa</paragraph><heading1>bbb</heading1><paragraph>ccc</paragraph>", ed.Markup())

	require.NoError(t, ed.Redo())
	assert.Contains(t, ed.Markup(), `<$text bold="true">ccc</$text>`)
}

func TestExecuteUnknownCommand(t *testing.T) {
	ed := newEditor(t)
	assert.ErrorIs(t, ed.Execute("strike"), command.ErrCommandNotFound)

	_, _, err := ed.CommandState("strike")
	assert.ErrorIs(t, err, command.ErrCommandNotFound)
}

func TestUndoNothing(t *testing.T) {
	ed := newEditor(t)
	assert.ErrorIs(t, ed.Undo(), history.ErrNothingToUndo)
	assert.ErrorIs(t, ed.Redo(), history.ErrNothingToRedo)
}

func TestTypeUsesSelectionAttributes(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)

	require.NoError(t, ed.Select([]int{0, 1}, nil))
	require.NoError(t, ed.Execute("bold"))
	require.NoError(t, ed.Type("X"))
	assert.Equal(t, `<paragraph>a<$text bold="true">X</$text>aa</paragraph>`, firstBlock(ed))

	sel := ed.Selection()
	require.Len(t, sel, 1)
	assert.Equal(t, []int{0, 2}, sel[0].Start.Path())
	assert.True(t, sel[0].IsCollapsed())
}

func TestTypeDropsDisallowedAttributes(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)

	require.NoError(t, ed.Select([]int{1, 1}, nil))
	ed.Document().Selection().SetAttribute("bold", true)
	ed.Document().Selection().SetAttribute("italic", true)

	require.NoError(t, ed.Type("X"))
	assert.Contains(t, ed.Markup(), `<heading1>b<$text italic="true">X</$text>bb</heading1>`)
}

func TestTypeReplacesSelection(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)

	require.NoError(t, ed.Select([]int{0, 1}, []int{0, 3}))
	require.NoError(t, ed.Type("zz"))
	assert.Equal(t, "<paragraph>azz</paragraph>", firstBlock(ed))

	require.NoError(t, ed.Undo())
	assert.Equal(t, "<paragraph>aaa</paragraph>", firstBlock(ed))
}

func TestTypeOutsideBlock(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)

	require.NoError(t, ed.Select([]int{1}, nil))
	assert.ErrorIs(t, ed.Type("x"), ErrNotAllowed)
	assert.Equal(t, "aaabbbccc", ed.Text())
}

func TestSelectBackward(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)

	require.NoError(t, ed.Select([]int{2, 1}, []int{0, 1}))
	assert.True(t, ed.Document().Selection().IsBackward())
	sel := ed.Selection()
	require.Len(t, sel, 1)
	assert.Equal(t, []int{0, 1}, sel[0].Start.Path())
	assert.Equal(t, []int{2, 1}, sel[0].End.Path())

	require.NoError(t, ed.SelectAll())
	sel = ed.Selection()
	assert.Equal(t, []int{0}, sel[0].Start.Path())
	assert.Equal(t, []int{3}, sel[0].End.Path())
}

func TestDumpAndLoad(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)
	require.NoError(t, ed.Select([]int{2, 0}, []int{2, 2}))
	require.NoError(t, ed.Execute("italic"))

	data, err := ed.Dump()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "$root",
		"content": [
			{"type": "paragraph", "content": [{"type": "text", "text": "aaa"}]},
			{"type": "heading1", "content": [{"type": "text", "text": "bbb"}]},
			{"type": "paragraph", "content": [
				{"type": "text", "text": "cc", "marks": [{"type": "italic"}]},
				{"type": "text", "text": "c"}
			]}
		]
	}`, string(data))

	other := newEditor(t)
	require.NoError(t, other.InsertElement([]int{0}, Blockquote, nil, "old"))
	require.NoError(t, other.Load(data))
	assert.Equal(t, ed.Markup(), other.Markup())
	assert.False(t, other.Document().History().CanUndo())

	assert.ErrorIs(t, other.Load([]byte("{")), treemodel.ErrInvalidDump)
	assert.ErrorIs(t, other.Load([]byte(`{"type":"$root","content":[{}]}`)), treemodel.ErrInvalidDump)

	require.NoError(t, other.Load([]byte(`{"type":"$root"}`)))
	assert.Empty(t, other.Markup())
}

func TestReloadSchema(t *testing.T) {
	ed := newEditor(t)
	fill(t, ed)
	require.NoError(t, ed.Select([]int{1, 0}, []int{1, 3}))

	enabled, _, err := ed.CommandState("bold")
	require.NoError(t, err)
	assert.False(t, enabled, "bold is disallowed inside heading1")

	var reloads []SchemaChange
	_, err = event.SubscribePayload(ed.Document().Emitter(), topic.SchemaReloaded,
		func(_ context.Context, c SchemaChange) error {
			reloads = append(reloads, c)
			return nil
		})
	require.NoError(t, err)

	rules := DefaultRules()
	rules.Disallow = nil
	require.NoError(t, ed.ReloadSchema(rules))

	enabled, _, err = ed.CommandState("bold")
	require.NoError(t, err)
	assert.True(t, enabled)
	require.Len(t, reloads, 1)
	assert.Contains(t, reloads[0].Items, Heading1)

	partial := DefaultRules()
	partial.Allow = append(partial.Allow, schema.Rule{Name: "nope", Inside: schema.Block})
	require.NoError(t, ed.ReloadSchema(partial))
	require.Len(t, reloads, 2, "valid rules still load")
	assert.False(t, ed.Schema().HasItem("nope"))
	assert.True(t, ed.Schema().HasItem(Heading1))

	enabled, _, err = ed.CommandState("bold")
	require.NoError(t, err)
	assert.False(t, enabled, "the heading1 disallow rule is back")
}

func TestApplyConfig(t *testing.T) {
	ed := newEditor(t)

	cfg := config.Default()
	cfg.Commands = []string{"bold", "strike"}
	cfg.History.MaxEntries = 3
	require.NoError(t, ed.ApplyConfig(cfg))

	assert.Equal(t, []string{"bold", "strike"}, ed.CommandNames())
	assert.Equal(t, 3, ed.Document().History().MaxEntries())
	assert.Equal(t, []string{"bold", "strike"}, ed.Config().Commands)
}

func TestJournalRecordsBatches(t *testing.T) {
	var buf bytes.Buffer
	ed := newEditor(t, WithJournalWriter(&buf))
	fill(t, ed)
	require.NoError(t, ed.Select([]int{0, 0}, []int{0, 3}))
	require.NoError(t, ed.Execute("bold"))
	require.NoError(t, ed.Undo())
	require.NoError(t, ed.JournalErr())

	entries, err := journal.ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, treemodel.BatchAttribute, entries[3].BatchType)
	assert.Equal(t, journal.ActionCommit, entries[3].Action)
	assert.Equal(t, journal.ActionUndo, entries[4].Action)
	assert.Equal(t, entries[3].BatchID, entries[4].BatchID)
}

func TestJournalFileFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.journal")
	cfg := config.Default()
	cfg.Journal.Path = path

	ed, err := New(cfg, WithLogger(logging.Nop()))
	require.NoError(t, err)
	require.NoError(t, ed.InsertElement([]int{0}, Paragraph, nil, "x"))
	require.NoError(t, ed.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	entries, err := journal.ReadAll(f)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClose(t *testing.T) {
	ed := newEditor(t)
	require.NoError(t, ed.Close())
	require.NoError(t, ed.Close())

	assert.ErrorIs(t, ed.Execute("bold"), ErrClosed)
	assert.ErrorIs(t, ed.Undo(), ErrClosed)
	assert.ErrorIs(t, ed.Type("x"), ErrClosed)
	assert.ErrorIs(t, ed.Select([]int{0}, nil), ErrClosed)
	assert.ErrorIs(t, ed.ReloadSchema(DefaultRules()), ErrClosed)
}

func firstBlock(ed *Editor) string {
	root := ed.Root()
	el := root.Child(0).(*treemodel.Element)
	return "<" + el.Name() + ">" + treemodel.Stringify(el) + "</" + el.Name() + ">"
}
