// Package topic provides hierarchical topic names and wildcard matching for
// document and command notifications.
//
// Topics use dot-notation:
//
//	document.change
//	selection.change.attribute
//	command.change.isEnabled
//
// Two wildcards are supported in subscription patterns:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// So "selection.change.*" matches both selection.change.range and
// selection.change.attribute, and "**" matches everything.
package topic
