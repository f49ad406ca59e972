package treemodel

import "unicode/utf8"

// Text is a run of characters sharing one attribute set.
type Text struct {
	nodeBase
	data string
	size int
}

// NewText creates a detached text node.
func NewText(data string, attrs Attributes) *Text {
	return newText(data, attrs.Clone())
}

func newText(data string, attrs Attributes) *Text {
	t := &Text{data: data, size: utf8.RuneCountInString(data)}
	t.attrs = attrs
	return t
}

// Name returns "" for text.
func (t *Text) Name() string {
	return ""
}

// Data returns the characters of the node.
func (t *Text) Data() string {
	return t.data
}

// Index implements Node.
func (t *Text) Index() int {
	return indexOf(t)
}

// StartOffset implements Node.
func (t *Text) StartOffset() int {
	return startOffsetOf(t)
}

// EndOffset implements Node.
func (t *Text) EndOffset() int {
	if s := t.StartOffset(); s >= 0 {
		return s + t.size
	}
	return -1
}

// OffsetSize returns the rune count.
func (t *Text) OffsetSize() int {
	return t.size
}

// Root implements Node.
func (t *Text) Root() *RootElement {
	return rootOf(t)
}

// Clone implements Node.
func (t *Text) Clone() Node {
	return newText(t.data, t.attrs.Clone())
}

// TextProxy is a walker's view over characters of one parent element. With
// character merging it may span several adjacent text nodes that share
// attributes; it is always clipped to the walker boundaries.
type TextProxy struct {
	attributed
	parent     *Element
	start, end int
	data       string
}

// Name returns "" for text.
func (p *TextProxy) Name() string {
	return ""
}

// Data returns the characters covered by the proxy.
func (p *TextProxy) Data() string {
	return p.data
}

// Parent returns the element holding the text.
func (p *TextProxy) Parent() *Element {
	return p.parent
}

// StartOffset returns the offset of the first character in the parent.
func (p *TextProxy) StartOffset() int {
	return p.start
}

// EndOffset returns the offset after the last character in the parent.
func (p *TextProxy) EndOffset() int {
	return p.end
}

// OffsetSize returns the number of characters covered.
func (p *TextProxy) OffsetSize() int {
	return p.end - p.start
}
