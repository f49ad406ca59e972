package config

import (
	"slices"

	"github.com/dshills/folio/internal/engine/history"
	"github.com/dshills/folio/internal/engine/schema"
)

// Config is the complete folio configuration.
type Config struct {
	Log     LogConfig      `toml:"log" yaml:"log"`
	History HistoryConfig  `toml:"history" yaml:"history"`
	Journal JournalConfig  `toml:"journal" yaml:"journal"`
	Schema  schema.RuleSet `toml:"schema" yaml:"schema"`

	// Commands lists the attribute keys that get an attribute command.
	Commands []string `toml:"commands" yaml:"commands"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Prefix string `toml:"prefix" yaml:"prefix"`
}

// HistoryConfig configures undo history.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries" yaml:"max_entries"`
}

// JournalConfig configures the batch journal. An empty Path disables it.
type JournalConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// DefaultCommands are the attribute keys registered when the configuration
// names none.
var DefaultCommands = []string{"bold", "italic", "underline", "code"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Prefix: "folio",
		},
		History: HistoryConfig{
			MaxEntries: history.DefaultMaxEntries,
		},
		Commands: slices.Clone(DefaultCommands),
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Commands = slices.Clone(c.Commands)
	out.Schema = schema.RuleSet{
		Items:    slices.Clone(c.Schema.Items),
		Allow:    cloneRules(c.Schema.Allow),
		Disallow: cloneRules(c.Schema.Disallow),
	}
	return out
}

func cloneRules(rules []schema.Rule) []schema.Rule {
	if rules == nil {
		return nil
	}
	out := make([]schema.Rule, len(rules))
	for i, r := range rules {
		out[i] = schema.Rule{
			Name:       r.Name,
			Inside:     r.Inside,
			Attributes: slices.Clone(r.Attributes),
		}
	}
	return out
}
