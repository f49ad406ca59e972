package schema

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/folio/internal/engine/treemodel"
)

// Built-in item names.
const (
	Root   = "$root"
	Block  = "$block"
	Inline = "$inline"
	Text   = treemodel.TextName
)

// Rule allows or disallows an item inside an ancestor path.
type Rule struct {
	// Name is the item the rule applies to.
	Name string `toml:"name" yaml:"name"`

	// Inside is a space separated ancestor path, e.g. "$root heading1".
	// An empty path matches everywhere.
	Inside string `toml:"inside" yaml:"inside"`

	// Attributes lists the attribute keys the rule covers. An allow rule
	// without attributes only admits the item without attributes; a
	// disallow rule without attributes rejects the item altogether.
	Attributes []string `toml:"attributes" yaml:"attributes"`
}

// Query is a check with an explicit ancestor context, root first.
type Query struct {
	Name       string
	Inside     []string
	Attributes []string
}

type path struct {
	inside []string
	attrs  []string
}

type item struct {
	name       string
	base       string
	allowed    []path
	disallowed []path
}

// Schema is a registry of items and rules. It is safe for concurrent use.
type Schema struct {
	mu    sync.RWMutex
	items map[string]*item
	order []string
}

// New returns a schema holding the built-in items and rules.
func New() *Schema {
	s := &Schema{items: make(map[string]*item)}
	for _, it := range [][2]string{{Root, ""}, {Block, ""}, {Inline, ""}, {Text, Inline}} {
		_ = s.RegisterItem(it[0], it[1])
	}
	_ = s.Allow(Rule{Name: Block, Inside: Root})
	_ = s.Allow(Rule{Name: Inline, Inside: Block})
	return s
}

// RegisterItem adds an item, optionally based on an existing one.
func (s *Schema) RegisterItem(name, base string) error {
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[name]; ok {
		return fmt.Errorf("%w: %q", ErrItemExists, name)
	}
	if base != "" {
		if _, ok := s.items[base]; !ok {
			return fmt.Errorf("%w: %q for %q", ErrUnknownBase, base, name)
		}
	}
	s.items[name] = &item{name: name, base: base}
	s.order = append(s.order, name)
	return nil
}

// HasItem reports whether name is registered.
func (s *Schema) HasItem(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[name]
	return ok
}

// Items returns registered item names in registration order.
func (s *Schema) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// BaseOf returns the base item of name, or "".
func (s *Schema) BaseOf(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it, ok := s.items[name]; ok {
		return it.base
	}
	return ""
}

// Allow adds an allow rule.
func (s *Schema) Allow(r Rule) error {
	return s.addRule(r, true)
}

// Disallow adds a disallow rule. Disallow rules win over allow rules.
func (s *Schema) Disallow(r Rule) error {
	return s.addRule(r, false)
}

func (s *Schema) addRule(r Rule, allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[r.Name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, r.Name)
	}
	p := path{inside: strings.Fields(r.Inside), attrs: normalizeKeys(r.Attributes)}
	if allow {
		it.allowed = append(it.allowed, p)
	} else {
		it.disallowed = append(it.disallowed, p)
	}
	return nil
}

// Check answers q against the rules.
func (s *Schema) Check(q Query) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(q.Name, q.Inside, normalizeKeys(q.Attributes))
}

// CheckAtPosition reports whether an item named name with attributeKeys may
// exist at pos. The context is the chain of ancestor names of pos, root
// first.
func (s *Schema) CheckAtPosition(pos treemodel.Position, name string, attributeKeys ...string) bool {
	ancestors := pos.Ancestors()
	if len(ancestors) == 0 {
		return false
	}
	names := make([]string, len(ancestors))
	for i, el := range ancestors {
		names[i] = el.Name()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(name, names, normalizeKeys(attributeKeys))
}

func (s *Schema) check(name string, context, attrs []string) bool {
	if _, ok := s.items[name]; !ok {
		return false
	}
	chain := s.chain(name)

	for _, it := range chain {
		for _, p := range it.disallowed {
			if s.matchesContext(p.inside, context) && disallows(p.attrs, attrs) {
				return false
			}
		}
	}
	for _, it := range chain {
		for _, p := range it.allowed {
			if s.matchesContext(p.inside, context) && allows(p.attrs, attrs) {
				return true
			}
		}
	}
	return false
}

// chain returns the item followed by its bases.
func (s *Schema) chain(name string) []*item {
	var out []*item
	seen := map[string]bool{}
	for it, ok := s.items[name]; ok && !seen[it.name]; it, ok = s.items[it.base] {
		seen[it.name] = true
		out = append(out, it)
	}
	return out
}

// is reports whether name is target or based on it.
func (s *Schema) is(name, target string) bool {
	if name == target {
		return true
	}
	for _, it := range s.chain(name) {
		if it.name == target {
			return true
		}
	}
	return false
}

// matchesContext reports whether inside matches the end of context.
func (s *Schema) matchesContext(inside, context []string) bool {
	if len(inside) > len(context) {
		return false
	}
	offset := len(context) - len(inside)
	for i, want := range inside {
		if !s.is(context[offset+i], want) {
			return false
		}
	}
	return true
}

func allows(ruleAttrs, attrs []string) bool {
	for _, a := range attrs {
		if _, ok := slices.BinarySearch(ruleAttrs, a); !ok {
			return false
		}
	}
	return true
}

func disallows(ruleAttrs, attrs []string) bool {
	if len(ruleAttrs) == 0 {
		return true
	}
	for _, a := range attrs {
		if _, ok := slices.BinarySearch(ruleAttrs, a); ok {
			return true
		}
	}
	return false
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

var _ treemodel.Schema = (*Schema)(nil)
