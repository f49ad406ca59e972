// Package config loads folio's configuration.
//
// Configuration comes from three layers, later layers overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file chosen by extension (Load)
//  3. FOLIO_* environment variables (ApplyEnv)
//
// A missing file is not an error; the defaults are used instead. The file
// may carry a [schema] section with item declarations and allow/disallow
// rules, which the editor feeds to schema.LoadRules.
//
// Watcher reloads the file through fsnotify and hands every successfully
// parsed and validated Config to a callback.
package config
