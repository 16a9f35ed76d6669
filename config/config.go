// Package config loads cxxbind.toml, the settings of a generation session.
package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/ownership"
	"github.com/wippyai/cxxbind/typemap"
)

// FileName is the configuration file looked up by the CLI.
const FileName = "cxxbind.toml"

// Backend names.
const (
	BackendLegacy   = "legacy"
	BackendEmbedded = "embedded"
)

// Config is a decoded cxxbind.toml.
type Config struct {
	Module    string            `toml:"module"`
	Output    string            `toml:"output"`
	Backends  []string          `toml:"backends"`
	Enums     EnumConfig        `toml:"enums"`
	Ownership map[string]string `toml:"ownership"`
	Templates map[string]string `toml:"templates"`
	Log       LogConfig         `toml:"log"`
	// ReleaseToken lists callables that release the execution token while
	// native code runs, by qualified name or symbol.
	ReleaseToken   []string `toml:"release_token"`
	ExpandDefaults bool     `toml:"expand_defaults"`
}

// EnumConfig selects enum modes.
type EnumConfig struct {
	Overrides   map[string]string `toml:"overrides"`
	DefaultMode string            `toml:"default_mode"`
}

// LogConfig configures the zap logger built by the CLI.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Output:         "bindings.msgpack",
		Backends:       []string{BackendLegacy, BackendEmbedded},
		Enums:          EnumConfig{DefaultMode: enumbridge.ModeTyped.String()},
		ExpandDefaults: true,
		Log:            LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read "+path)
	}
	cfg, err := Decode(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, path)
	}
	return cfg, nil
}

// Decode parses TOML over the defaults and validates the result.
func Decode(data string) (*Config, error) {
	cfg := Default()
	meta, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse TOML")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown keys: "+strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown modes, backends, policies and template rules.
func (c *Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "no backends selected")
	}
	for _, b := range c.Backends {
		if b != BackendLegacy && b != BackendEmbedded {
			return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown backend %q", b))
		}
	}
	if _, err := enumbridge.ParseMode(c.Enums.DefaultMode); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "enums.default_mode")
	}
	for _, name := range sortedKeys(c.Enums.Overrides) {
		if _, err := enumbridge.ParseMode(c.Enums.Overrides[name]); err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "enums.overrides."+name)
		}
	}
	for _, name := range sortedKeys(c.Ownership) {
		if !validPolicy(c.Ownership[name]) {
			return errors.InvalidInput(errors.PhaseConfig,
				fmt.Sprintf("ownership.%s: unknown policy %q", name, c.Ownership[name]))
		}
	}
	for _, name := range sortedKeys(c.Templates) {
		if _, ok := typemap.RuleFor(c.Templates[name]); !ok {
			return errors.InvalidInput(errors.PhaseConfig,
				fmt.Sprintf("templates.%s: unknown rule %q", name, c.Templates[name]))
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	return nil
}

// EnumMode returns the mode of the enum with the given qualified name.
// A mode in the declaration wins over the configuration.
func (c *Config) EnumMode(qualified, declared string) (enumbridge.Mode, error) {
	if declared != "" {
		return enumbridge.ParseMode(declared)
	}
	if m, ok := c.Enums.Overrides[qualified]; ok {
		return enumbridge.ParseMode(m)
	}
	return enumbridge.ParseMode(c.Enums.DefaultMode)
}

// Policy returns the configured policy override for a declaration, keyed
// by symbol or qualified name.
func (c *Config) Policy(symbol, qualified string) (string, bool) {
	if p, ok := c.Ownership[symbol]; ok {
		return p, true
	}
	p, ok := c.Ownership[qualified]
	return p, ok
}

// Releases reports whether a callable releases the execution token.
func (c *Config) Releases(symbol, qualified string) bool {
	return slices.Contains(c.ReleaseToken, symbol) || slices.Contains(c.ReleaseToken, qualified)
}

// HasBackend reports whether name is selected.
func (c *Config) HasBackend(name string) bool {
	return slices.Contains(c.Backends, name)
}

func validPolicy(p string) bool {
	switch p {
	case ownership.PolicyCopy, ownership.PolicyMove, ownership.PolicyTakeOwnership,
		ownership.PolicyReference, ownership.PolicyReferenceInternal:
		return true
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
