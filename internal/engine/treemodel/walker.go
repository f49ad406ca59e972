package treemodel

import (
	"fmt"
	"iter"
	"strings"
)

// StepType tags the kind of item a walker step produced.
type StepType int

const (
	// StepElementStart enters an element.
	StepElementStart StepType = iota
	// StepElementEnd leaves an element.
	StepElementEnd
	// StepCharacter covers a single character.
	StepCharacter
	// StepText covers a merged run of characters.
	StepText
)

// String returns the step name.
func (s StepType) String() string {
	switch s {
	case StepElementStart:
		return "elementStart"
	case StepElementEnd:
		return "elementEnd"
	case StepCharacter:
		return "character"
	case StepText:
		return "text"
	default:
		return fmt.Sprintf("StepType(%d)", int(s))
	}
}

// WalkerValue is one step of a TreeWalker.
type WalkerValue struct {
	Type StepType

	// Item is an *Element for element steps and a *TextProxy otherwise.
	Item Item

	PreviousPosition Position
	NextPosition     Position

	// Length is the number of offsets the step moved over.
	Length int
}

// WalkerOptions configures a TreeWalker.
type WalkerOptions struct {
	// Boundaries limits the traversal. Required.
	Boundaries Range

	// StartPosition defaults to Boundaries.Start and must lie within them.
	StartPosition Position

	// MergeCharacters emits runs of equally attributed text as one step.
	MergeCharacters bool

	// IgnoreElementEnd suppresses element end steps.
	IgnoreElementEnd bool
}

// TreeWalker traverses a tree forward in document order between two
// boundaries. It keeps an explicit parent/offset cursor so it can stop and
// continue at any step. A walker is single-use.
//
// The tree must not change while a walker is in use.
type TreeWalker struct {
	opts WalkerOptions
	end  Position

	parent *Element
	offset int
	done   bool
}

// NewTreeWalker validates the options and returns a walker positioned at
// the start position.
func NewTreeWalker(opts WalkerOptions) (*TreeWalker, error) {
	b := opts.Boundaries
	if b.Start.IsZero() || b.End.IsZero() {
		return nil, fmt.Errorf("%w: walker needs boundaries", ErrInvalidRange)
	}
	if b.Start.root != b.End.root {
		return nil, fmt.Errorf("%w: walker boundaries", ErrRootMismatch)
	}
	if !b.Start.IsValid() || !b.End.IsValid() {
		return nil, fmt.Errorf("%w: walker boundaries %s", ErrInvalidPath, b)
	}
	if b.Start.IsAfter(b.End) {
		return nil, fmt.Errorf("%w: start after end in %s", ErrInvalidRange, b)
	}

	start := opts.StartPosition
	if start.IsZero() {
		start = b.Start
	}
	if start.root != b.Start.root || start.IsBefore(b.Start) || start.IsAfter(b.End) || !start.IsValid() {
		return nil, fmt.Errorf("%w: start position %s outside %s", ErrInvalidRange, start, b)
	}
	opts.StartPosition = start

	return &TreeWalker{
		opts:   opts,
		end:    b.End,
		parent: start.Parent(),
		offset: start.Offset(),
	}, nil
}

// Boundaries returns the walker's range.
func (w *TreeWalker) Boundaries() Range {
	return w.opts.Boundaries
}

// Position returns the boundary after the last produced step.
func (w *TreeWalker) Position() Position {
	return at(w.parent, w.offset)
}

// Next advances the walker. It returns false once the end boundary is reached.
func (w *TreeWalker) Next() (WalkerValue, bool) {
	for !w.done {
		prev := w.Position()
		if !prev.IsBefore(w.end) {
			w.done = true
			break
		}

		node, index, start := w.parent.childAt(w.offset)
		if node == nil {
			el := w.parent
			if el.parent == nil {
				w.done = true
				break
			}
			w.parent, w.offset = el.parent, el.EndOffset()
			if w.opts.IgnoreElementEnd {
				continue
			}
			return WalkerValue{
				Type:             StepElementEnd,
				Item:             el,
				PreviousPosition: prev,
				NextPosition:     w.Position(),
				Length:           1,
			}, true
		}

		switch n := node.(type) {
		case *Element:
			w.parent, w.offset = n, 0
			return WalkerValue{
				Type:             StepElementStart,
				Item:             n,
				PreviousPosition: prev,
				NextPosition:     w.Position(),
				Length:           1,
			}, true
		case *Text:
			return w.textStep(n, index, start, prev), true
		}
	}
	return WalkerValue{}, false
}

func (w *TreeWalker) textStep(t *Text, index, start int, prev Position) WalkerValue {
	typ := StepCharacter
	runEnd := w.offset + 1
	var buf strings.Builder
	buf.WriteString(t.data)

	if w.opts.MergeCharacters {
		typ = StepText
		runEnd = start + t.size
		for _, c := range w.parent.children[index+1:] {
			next, ok := c.(*Text)
			if !ok || !next.attrs.Equal(t.attrs) {
				break
			}
			buf.WriteString(next.data)
			runEnd += next.size
		}
	}
	if w.parent == w.end.Parent() && w.end.Offset() < runEnd {
		runEnd = w.end.Offset()
	}

	runes := []rune(buf.String())
	proxy := &TextProxy{
		parent: w.parent,
		start:  w.offset,
		end:    runEnd,
		data:   string(runes[w.offset-start : runEnd-start]),
	}
	proxy.attrs = t.attrs.Clone()

	length := runEnd - w.offset
	w.offset = runEnd
	return WalkerValue{
		Type:             typ,
		Item:             proxy,
		PreviousPosition: prev,
		NextPosition:     w.Position(),
		Length:           length,
	}
}

// Values returns an iterator over the remaining steps.
func (w *TreeWalker) Values() iter.Seq[WalkerValue] {
	return func(yield func(WalkerValue) bool) {
		for {
			v, ok := w.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}
