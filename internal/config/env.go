package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FOLIO_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// envSetters maps each environment variable to the field it overrides.
// Empty values are applied as given rather than treated as unset.
var envSetters = map[string]func(cfg *Config, val string) error{
	EnvPrefix + "LOG_LEVEL": func(cfg *Config, val string) error {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(val))
		return nil
	},
	EnvPrefix + "HISTORY_MAX_ENTRIES": func(cfg *Config, val string) error {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return err
		}
		cfg.History.MaxEntries = n
		return nil
	},
	EnvPrefix + "JOURNAL_PATH": func(cfg *Config, val string) error {
		cfg.Journal.Path = val
		return nil
	},
	EnvPrefix + "COMMANDS": func(cfg *Config, val string) error {
		cfg.Commands = splitList(val)
		return nil
	},
}

// EnvVars returns the names of the recognized environment variables.
func EnvVars() []string {
	return []string{
		EnvPrefix + "LOG_LEVEL",
		EnvPrefix + "HISTORY_MAX_ENTRIES",
		EnvPrefix + "JOURNAL_PATH",
		EnvPrefix + "COMMANDS",
	}
}

// ApplyEnv overrides cfg with the environment variables visible through
// lookup. Malformed values are reported together in a *ValidationErrors.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	errs := &ValidationErrors{}
	for _, name := range EnvVars() {
		val, ok := lookup(name)
		if !ok {
			continue
		}
		if err := envSetters[name](cfg, val); err != nil {
			errs.AddWithValue(name, fmt.Sprintf("invalid value: %v", err), val)
		}
	}
	return errs.AsError()
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
