package treemodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func para(children ...Node) *Element {
	return NewElement("paragraph", nil, children...)
}

func txt(data string) *Text {
	return NewText(data, nil)
}

func bold(data string) *Text {
	return NewText(data, Attributes{"bold": true})
}

// newDoc creates a document with a "main" root holding children. The
// content is inserted with a transparent batch so history starts empty.
func newDoc(t *testing.T, children ...Node) (*Document, *RootElement) {
	t.Helper()
	doc := NewDocument()
	root, err := doc.CreateRoot("main")
	require.NoError(t, err)
	if len(children) > 0 {
		require.NoError(t, doc.EnqueueChanges(func() error {
			return doc.Batch(BatchTransparent).Insert(at(&root.Element, 0), children...)
		}))
	}
	return doc, root
}

func pos(t *testing.T, root *RootElement, path ...int) Position {
	t.Helper()
	p, err := NewPosition(root, path)
	require.NoError(t, err)
	return p
}

func rng(t *testing.T, root *RootElement, start, end []int) Range {
	t.Helper()
	r, err := NewRange(pos(t, root, start...), pos(t, root, end...))
	require.NoError(t, err)
	return r
}

func change(t *testing.T, doc *Document, fn func(b *Batch) error) {
	t.Helper()
	require.NoError(t, doc.EnqueueChanges(func() error {
		return fn(doc.Batch(BatchDefault))
	}))
}
