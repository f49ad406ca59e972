// Package schema decides which items may appear where in a document tree.
//
// Items are registered by name and may be based on another item, inheriting
// its rules. Built-in items are $root, $block, $inline and $text (based on
// $inline); $block is allowed in $root and $inline in $block.
//
// A rule names an item, an ancestor path it applies inside, and optionally
// a set of attribute keys:
//
//	s.Allow(schema.Rule{Name: "$text", Inside: "$block", Attributes: []string{"bold"}})
//	s.Disallow(schema.Rule{Name: "$text", Inside: "heading1", Attributes: []string{"bold"}})
//
// Inside is matched against the end of the ancestor chain of the checked
// position, where an ancestor matches its own name or any item it is based
// on. A check passes when some allow rule matches and no disallow rule does.
// Checks never fail: unknown items and detached positions are not allowed.
package schema
