package treemodel

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DumpNode is the JSON shape of a dumped tree. Text attributes are written
// as marks; a mark carries its value in attrs unless the value is true.
type DumpNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []DumpNode     `json:"content,omitempty"`
	Marks   []DumpMark     `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// DumpMark is a text attribute in a dump.
type DumpMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Dump converts el and its descendants to the dump shape.
func Dump(el *Element) DumpNode {
	n := DumpNode{Type: el.name, Attrs: el.attrs.Clone()}
	for _, c := range el.children {
		switch v := c.(type) {
		case *Element:
			n.Content = append(n.Content, Dump(v))
		case *Text:
			n.Content = append(n.Content, dumpText(v))
		}
	}
	return n
}

func dumpText(t *Text) DumpNode {
	n := DumpNode{Type: "text", Text: t.data}
	for _, key := range t.attrs.Keys() {
		m := DumpMark{Type: key}
		if v := t.attrs[key]; v != true {
			m.Attrs = map[string]any{"value": v}
		}
		n.Marks = append(n.Marks, m)
	}
	return n
}

// FromDump builds a detached node from its dump shape. Nodes of type "text"
// become Text with their marks as attributes; every other type becomes an
// Element.
func FromDump(n DumpNode) (Node, error) {
	if n.Type == "" {
		return nil, fmt.Errorf("%w: node without type", ErrInvalidDump)
	}
	if n.Type == "text" {
		if len(n.Content) > 0 {
			return nil, fmt.Errorf("%w: text node with content", ErrInvalidDump)
		}
		var attrs Attributes
		for _, m := range n.Marks {
			if m.Type == "" {
				return nil, fmt.Errorf("%w: mark without type", ErrInvalidDump)
			}
			if attrs == nil {
				attrs = make(Attributes, len(n.Marks))
			}
			if v, ok := m.Attrs["value"]; ok {
				attrs[m.Type] = v
			} else {
				attrs[m.Type] = true
			}
		}
		return NewText(n.Text, attrs), nil
	}
	if len(n.Marks) > 0 || n.Text != "" {
		return nil, fmt.Errorf("%w: element %q with text or marks", ErrInvalidDump, n.Type)
	}

	children := make([]Node, 0, len(n.Content))
	for _, c := range n.Content {
		child, err := FromDump(c)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return NewElement(n.Type, Attributes(n.Attrs), children...), nil
}

// MarshalJSON writes the element in the dump shape.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(Dump(e))
}

// Stringify renders the content of el in a compact markup used by tests and
// the shell, e.g. `<paragraph>foo<$text bold="true">bar</$text></paragraph>`.
func Stringify(el *Element) string {
	var b strings.Builder
	stringifyChildren(&b, el)
	return b.String()
}

func stringifyChildren(b *strings.Builder, el *Element) {
	for _, c := range el.children {
		switch v := c.(type) {
		case *Element:
			b.WriteString("<" + v.name)
			writeAttrs(b, v.attrs)
			if v.IsEmpty() {
				b.WriteString("></" + v.name + ">")
				continue
			}
			b.WriteString(">")
			stringifyChildren(b, v)
			b.WriteString("</" + v.name + ">")
		case *Text:
			if len(v.attrs) == 0 {
				b.WriteString(v.data)
				continue
			}
			b.WriteString("<" + TextName)
			writeAttrs(b, v.attrs)
			b.WriteString(">" + v.data + "</" + TextName + ">")
		}
	}
}

func writeAttrs(b *strings.Builder, attrs Attributes) {
	for _, k := range attrs.Keys() {
		fmt.Fprintf(b, " %s=%q", k, fmt.Sprint(attrs[k]))
	}
}
