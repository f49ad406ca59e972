package treemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRangeNormalizes(t *testing.T) {
	doc, root := newDoc(t, para(txt("foo")), para(txt("bar")))

	r, err := NewRange(pos(t, root, 1, 2), pos(t, root, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, r.Start.Path())
	assert.Equal(t, []int{1, 2}, r.End.Path())
	assert.False(t, r.IsCollapsed())
	assert.False(t, r.IsFlat())
	assert.Equal(t, "[main:[0 1], main:[1 2]]", r.String())

	other, err := doc.CreateRoot("other")
	require.NoError(t, err)
	_, err = NewRange(pos(t, root, 0), pos(t, other, 0))
	assert.ErrorIs(t, err, ErrRootMismatch)

	_, err = NewRange(Position{}, pos(t, root, 0))
	assert.ErrorIs(t, err, ErrDetachedNode)
}

func TestRangeContains(t *testing.T) {
	_, root := newDoc(t, para(txt("foobar")))
	r := rng(t, root, []int{0, 1}, []int{0, 4})

	assert.True(t, r.ContainsPosition(pos(t, root, 0, 2)))
	assert.False(t, r.ContainsPosition(pos(t, root, 0, 1)))
	assert.False(t, r.ContainsPosition(pos(t, root, 0, 4)))
	assert.True(t, r.IsFlat())

	assert.True(t, r.ContainsRange(r))
	assert.True(t, r.ContainsRange(rng(t, root, []int{0, 2}, []int{0, 3})))
	assert.False(t, r.ContainsRange(rng(t, root, []int{0, 0}, []int{0, 3})))

	collapsed := CollapsedRange(pos(t, root, 0, 2))
	assert.True(t, collapsed.IsCollapsed())
	assert.True(t, collapsed.IsEqual(rng(t, root, []int{0, 2}, []int{0, 2})))
}

func TestRangeOnAndInElement(t *testing.T) {
	_, root := newDoc(t, para(txt("foo")), para(txt("ba")))
	second := root.Child(1).(*Element)

	on, err := RangeOnElement(second)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, on.Start.Path())
	assert.Equal(t, []int{2}, on.End.Path())

	in, err := RangeInElement(second)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, in.Start.Path())
	assert.Equal(t, []int{1, 2}, in.End.Path())

	_, err = RangeOnElement(para())
	assert.ErrorIs(t, err, ErrDetachedNode)
}

func TestRangeItems(t *testing.T) {
	_, root := newDoc(t, para(txt("foo")), para(bold("ba"), txt("r")), para(txt("x")))

	items, err := rng(t, root, []int{0, 1}, []int{2}).Items()
	require.NoError(t, err)

	var got []string
	for _, it := range items {
		if p, ok := it.(*TextProxy); ok {
			got = append(got, p.Data())
			continue
		}
		got = append(got, it.Name())
	}
	assert.Equal(t, []string{"oo", "paragraph", "ba", "r"}, got)
}
