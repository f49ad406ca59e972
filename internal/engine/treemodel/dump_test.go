package treemodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringify(t *testing.T) {
	_, root := newDoc(t,
		para(txt("a"), bold("X"), txt("bc")),
		NewElement("image", Attributes{"src": "x.png"}),
	)

	assert.Equal(t,
		`<paragraph>a<$text bold="true">X</$text>bc</paragraph><image src="x.png"></image>`,
		Stringify(&root.Element))
}

func TestFromDump(t *testing.T) {
	src := `{
		"type": "heading1",
		"attrs": {"level": 1},
		"content": [
			{"type": "text", "text": "ab"},
			{"type": "text", "text": "cd", "marks": [{"type": "bold"}, {"type": "color", "attrs": {"value": "red"}}]}
		]
	}`
	var dn DumpNode
	require.NoError(t, json.Unmarshal([]byte(src), &dn))

	node, err := FromDump(dn)
	require.NoError(t, err)

	el, ok := node.(*Element)
	require.True(t, ok)
	assert.Equal(t, "heading1", el.Name())
	assert.Nil(t, el.Parent())
	assert.Equal(t, 2, el.ChildCount())
	assert.Equal(t, `ab<$text bold="true" color="red">cd</$text>`, Stringify(el))

	// Dumping again yields the same shape.
	again, err := json.Marshal(Dump(el))
	require.NoError(t, err)
	assert.JSONEq(t, src, string(again))
}

func TestFromDumpMergesAndSkipsEmptyText(t *testing.T) {
	node, err := FromDump(DumpNode{Type: "paragraph", Content: []DumpNode{
		{Type: "text", Text: "ab"},
		{Type: "text", Text: ""},
		{Type: "text", Text: "c"},
	}})
	require.NoError(t, err)

	el := node.(*Element)
	require.Equal(t, 1, el.ChildCount())
	assert.Equal(t, "abc", el.TextContent())
}

func TestFromDumpInvalid(t *testing.T) {
	tests := []struct {
		name string
		node DumpNode
	}{
		{"missing type", DumpNode{}},
		{"text with content", DumpNode{Type: "text", Content: []DumpNode{{Type: "paragraph"}}}},
		{"unnamed mark", DumpNode{Type: "text", Text: "a", Marks: []DumpMark{{}}}},
		{"element with text", DumpNode{Type: "paragraph", Text: "a"}},
		{"nested error", DumpNode{Type: "paragraph", Content: []DumpNode{{Type: ""}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDump(tt.node)
			assert.ErrorIs(t, err, ErrInvalidDump)
		})
	}
}
