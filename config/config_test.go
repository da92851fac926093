package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"markestedt/pastemd/hotkey"
)

func TestLoadFromCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Hotkey != DefaultHotkey || !cfg.Enabled {
		t.Errorf("defaults not applied: hotkey=%q enabled=%v", cfg.Hotkey, cfg.Enabled)
	}
	if cfg.Clipboard.HTMLWaitMs != 300 || cfg.Clipboard.PollIntervalMs != 30 {
		t.Errorf("clipboard defaults = %+v", cfg.Clipboard)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}
}

func TestLoadFromKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `hotkey = "<ctrl>+<alt>+m"

[output]
action = "save"

[web]
port = 9000
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Hotkey != "<ctrl>+<alt>+m" || cfg.Output.Action != ActionSave || cfg.Web.Port != 9000 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !cfg.Conversion.LatexSupport || cfg.Clipboard.HTMLWaitMs != 300 {
		t.Error("defaults lost for keys absent from the file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Hotkey = "<ctrl>+<shift>+<f9>"
	cfg.Excel.KeepFormat = false
	cfg.Conversion.PandocPath = `C:\Tools\pandoc.exe`

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hotkey != cfg.Hotkey || got.Excel.KeepFormat || got.Conversion.PandocPath != cfg.Conversion.PandocPath {
		t.Errorf("LoadFrom() after SaveTo() = %+v", got)
	}
}

func TestLoadFromInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("hotkey = [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() returned nil error for invalid TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"reserved hotkey", func(c *Config) { c.Hotkey = "<ctrl>+c" }, "reserved"},
		{"no modifier", func(c *Config) { c.Hotkey = "a" }, "modifier"},
		{"unknown action", func(c *Config) { c.Output.Action = "print" }, "output action"},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }, "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureValidHotkey(t *testing.T) {
	cfg := Default()
	cfg.Hotkey = "<shift>+a"

	err := cfg.EnsureValidHotkey()
	if !errors.Is(err, hotkey.ErrShiftOnly) {
		t.Errorf("EnsureValidHotkey() error = %v, want ErrShiftOnly", err)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Hotkey = %q, want reset to %q", cfg.Hotkey, DefaultHotkey)
	}

	if err := cfg.EnsureValidHotkey(); err != nil {
		t.Errorf("EnsureValidHotkey() on default = %v", err)
	}
}

func TestHotkeyCombination(t *testing.T) {
	combo, err := Default().HotkeyCombination()
	if err != nil {
		t.Fatal(err)
	}
	if combo.String() != DefaultHotkey {
		t.Errorf("HotkeyCombination() = %q, want %q", combo.String(), DefaultHotkey)
	}
}
