package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"markestedt/pastemd/hotkey"
)

// DefaultHotkey is used on first start and whenever the configured hotkey is invalid
const DefaultHotkey = "<ctrl>+<shift>+b"

// Output actions when no target application is focused
const (
	ActionOpen      = "open"
	ActionSave      = "save"
	ActionClipboard = "clipboard"
	ActionNone      = "none"
)

type Config struct {
	Hotkey     string           `toml:"hotkey"`
	Enabled    bool             `toml:"enabled"`
	Output     OutputConfig     `toml:"output"`
	Conversion ConversionConfig `toml:"conversion"`
	Excel      ExcelConfig      `toml:"excel"`
	Clipboard  ClipboardConfig  `toml:"clipboard"`
	Web        WebConfig        `toml:"web"`
	Log        LogConfig        `toml:"log"`

	path string
}

type OutputConfig struct {
	Action   string `toml:"action"`
	SaveDir  string `toml:"save_dir"`
	KeepFile bool   `toml:"keep_file"`
}

type ConversionConfig struct {
	PandocPath           string `toml:"pandoc_path"`
	ReferenceDocx        string `toml:"reference_docx"`
	NormalizeMarkdown    bool   `toml:"normalize_markdown"`
	LatexSupport         bool   `toml:"latex_support"`
	FixSingleDollarBlock bool   `toml:"fix_single_dollar_block"`
	ConvertStrikethrough bool   `toml:"convert_strikethrough"`
	RemoveSVG            bool   `toml:"remove_svg"`
}

type ExcelConfig struct {
	Enabled    bool `toml:"enabled"`
	KeepFormat bool `toml:"keep_format"`
}

type ClipboardConfig struct {
	HTMLWaitMs     int `toml:"html_wait_ms"`
	PollIntervalMs int `toml:"poll_interval_ms"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration written on first start
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Hotkey:  DefaultHotkey,
		Enabled: true,
		Output: OutputConfig{
			Action:   ActionOpen,
			SaveDir:  filepath.Join(home, "Documents", "pastemd"),
			KeepFile: false,
		},
		Conversion: ConversionConfig{
			NormalizeMarkdown:    true,
			LatexSupport:         true,
			FixSingleDollarBlock: true,
			ConvertStrikethrough: true,
			RemoveSVG:            true,
		},
		Excel: ExcelConfig{
			Enabled:    true,
			KeepFormat: true,
		},
		Clipboard: ClipboardConfig{
			HTMLWaitMs:     300,
			PollIntervalMs: 30,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8765,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the application data directory, creating it if needed
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}

	dir := filepath.Join(base, "pastemd")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return dir, nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path.
// If the file doesn't exist, it is created with default values.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.path = path
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = path

	return cfg, nil
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file
func (c *Config) Save() error {
	if c.path == "" {
		path, err := ConfigPath()
		if err != nil {
			return err
		}
		c.path = path
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the configuration to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Clone returns a copy that can be modified independently
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate checks the fields that would otherwise fail at runtime
func (c *Config) Validate() error {
	if err := hotkey.ValidateString(c.Hotkey); err != nil {
		return fmt.Errorf("invalid hotkey %q: %w", c.Hotkey, err)
	}

	switch c.Output.Action {
	case ActionOpen, ActionSave, ActionClipboard, ActionNone:
	default:
		return fmt.Errorf("unknown output action: %s", c.Output.Action)
	}

	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Web.Port)
	}

	return nil
}

// HotkeyCombination parses the configured hotkey
func (c *Config) HotkeyCombination() (hotkey.Combination, error) {
	return hotkey.ParseCombination(c.Hotkey)
}

// EnsureValidHotkey resets an invalid hotkey to the default.
// It returns the validation error that triggered the reset, or nil.
func (c *Config) EnsureValidHotkey() error {
	err := hotkey.ValidateString(c.Hotkey)
	if err == nil {
		return nil
	}
	c.ResetHotkey()
	return err
}

// ResetHotkey restores the default trigger hotkey
func (c *Config) ResetHotkey() {
	c.Hotkey = DefaultHotkey
}
