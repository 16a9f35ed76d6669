package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/errors"
)

func TestDecode(t *testing.T) {
	cfg, err := Decode(`
module = "zoo"
backends = ["embedded"]
expand_defaults = false
release_token = ["zoo::sleep"]

[enums]
default_mode = "legacy"
overrides = { "zoo::Color" = "typed" }

[ownership]
"zoo::adopt(zoo::Pet*)" = "take_ownership"

[templates]
"util::SmallVec" = "list"

[log]
level = "debug"
format = "json"
`)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Module != "zoo" || cfg.ExpandDefaults {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.HasBackend(BackendEmbedded) || cfg.HasBackend(BackendLegacy) {
		t.Errorf("backends = %v", cfg.Backends)
	}
	if cfg.Output != "bindings.msgpack" {
		t.Errorf("default output lost: %q", cfg.Output)
	}

	mode, err := cfg.EnumMode("zoo::Color", "")
	if err != nil || mode != enumbridge.ModeTyped {
		t.Errorf("override mode = %v, %v", mode, err)
	}
	mode, _ = cfg.EnumMode("zoo::Size", "")
	if mode != enumbridge.ModeLegacy {
		t.Errorf("default mode = %v", mode)
	}
	mode, _ = cfg.EnumMode("zoo::Color", "legacy")
	if mode != enumbridge.ModeLegacy {
		t.Errorf("declared mode should win, got %v", mode)
	}

	if p, ok := cfg.Policy("zoo::adopt(zoo::Pet*)", "zoo::adopt"); !ok || p != "take_ownership" {
		t.Errorf("Policy = %q, %v", p, ok)
	}
	if !cfg.Releases("zoo::sleep(int)", "zoo::sleep") {
		t.Error("release by qualified name not honored")
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `module = `},
		{"backend", `backends = ["cffi"]`},
		{"no backends", `backends = []`},
		{"enum mode", "[enums]\ndefault_mode = \"flag\""},
		{"override mode", "[enums]\noverrides = { A = \"x\" }"},
		{"policy", "[ownership]\nf = \"steal\""},
		{"template", "[templates]\nX = \"tree\""},
		{"log format", "[log]\nformat = \"xml\""},
		{"unknown key", `modul = "zoo"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if err == nil {
				t.Fatal("expected an error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseConfig {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("module = \"zoo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Module != "zoo" || len(cfg.Backends) != 2 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}
}
