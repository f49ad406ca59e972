// Package command turns editing intents into document changes.
//
// A Command carries two observable properties: IsEnabled, recomputed from
// its Variant whenever the document selection moves or a change scope
// closes, and Value, which variants maintain themselves. Both publish
// command.change.<property> events only when they actually change.
//
// AttributeCommand toggles one attribute on the selection. On a collapsed
// selection it only updates the selection's stored attributes; otherwise it
// applies the attribute, as one undo step, to the parts of the selection the
// schema permits.
//
// A Registry maps command names to commands and runs execution hooks.
package command
