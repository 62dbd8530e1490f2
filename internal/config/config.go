package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonext/internal/errors"
	"github.com/mcncl/jsonext/internal/hooks"
	"github.com/mcncl/jsonext/internal/renderer"
	"github.com/mcncl/jsonext/internal/scanner"
)

// Config represents the complete configuration for jsonext
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Hooks  HooksConfig  `yaml:"hooks"`
	Date   DateConfig   `yaml:"date"`
	Dev    DevConfig    `yaml:"dev"`
}

// InputConfig controls decoding
type InputConfig struct {
	Strict   bool `yaml:"strict"`
	MaxDepth int  `yaml:"max_depth"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Indent      int  `yaml:"indent"`
	SortKeys    bool `yaml:"sort_keys"`
	EnsureASCII bool `yaml:"ensure_ascii"`
	Compact     bool `yaml:"compact"`
	AllowNaN    bool `yaml:"allow_nan"`
	MaxDepth    int  `yaml:"max_depth"`
}

// HooksConfig lists the hooks to use, in the order they are tried. Names are
// case-insensitive: "date", "Date" and "DATE" all select the Date hook.
type HooksConfig struct {
	Decode []string `yaml:"decode"`
	Encode []string `yaml:"encode"`
	// Raw keeps constructors no hook recognizes instead of failing.
	Raw bool `yaml:"raw"`
}

// DateConfig controls the Date hook
type DateConfig struct {
	TruncateToSeconds bool `yaml:"truncate_to_seconds"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Input: InputConfig{
			Strict:   true,
			MaxDepth: scanner.DefaultMaxDepth,
		},
		Output: OutputConfig{
			Indent:      0,
			SortKeys:    false,
			EnsureASCII: true,
			Compact:     false,
			AllowNaN:    true,
			MaxDepth:    renderer.DefaultMaxDepth,
		},
		Hooks: HooksConfig{
			Decode: []string{"date", "set", "error"},
			Encode: []string{"date", "set", "error"},
			Raw:    false,
		},
		Date: DateConfig{
			TruncateToSeconds: false,
		},
		Dev: DevConfig{
			Debug: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonext.yml", ".jsonext.yaml", "jsonext.yml", "jsonext.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks that every hook name resolves and numeric options are sane
func (c *Config) Validate() error {
	if c.Output.Indent < 0 {
		return fmt.Errorf("output.indent must not be negative, got %d", c.Output.Indent)
	}
	if _, err := c.resolve(c.Hooks.Decode); err != nil {
		return fmt.Errorf("hooks.decode: %w", err)
	}
	if _, err := c.resolve(c.Hooks.Encode); err != nil {
		return fmt.Errorf("hooks.encode: %w", err)
	}
	return nil
}

// HookName normalizes a configured hook name to the registered tag name
func HookName(name string) string {
	return strcase.ToCamel(strings.ToLower(strings.TrimSpace(name)))
}

func (c *Config) resolve(names []string) ([]hooks.Hook, error) {
	out := make([]hooks.Hook, 0, len(names)+1)
	for _, name := range names {
		h, err := hooks.Lookup(HookName(name))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrUnknownHook, err)
		}
		if d, ok := h.(*hooks.DateHook); ok {
			d.TruncateToSeconds = c.Date.TruncateToSeconds
		}
		out = append(out, h)
	}
	if c.Hooks.Raw {
		out = append(out, &hooks.PassthroughHook{})
	}
	return out, nil
}

// Decoders returns the configured decoder chain
func (c *Config) Decoders() (hooks.Decoders, error) {
	hs, err := c.resolve(c.Hooks.Decode)
	if err != nil {
		return nil, err
	}
	return hooks.DecodersOf(hs), nil
}

// Encoders returns the configured encoder chain
func (c *Config) Encoders() (hooks.Encoders, error) {
	hs, err := c.resolve(c.Hooks.Encode)
	if err != nil {
		return nil, err
	}
	return hooks.EncodersOf(hs), nil
}

// RenderOptions converts the output section into renderer options
func (c *Config) RenderOptions() renderer.Options {
	return renderer.Options{
		Indent:      strings.Repeat(" ", c.Output.Indent),
		SortKeys:    c.Output.SortKeys,
		EnsureASCII: c.Output.EnsureASCII,
		Compact:     c.Output.Compact,
		AllowNaN:    c.Output.AllowNaN,
		MaxDepth:    c.Output.MaxDepth,
	}
}

// ScannerOptions converts the input section into scanner options
func (c *Config) ScannerOptions() []scanner.Option {
	return []scanner.Option{
		scanner.WithStrict(c.Input.Strict),
		scanner.WithMaxDepth(c.Input.MaxDepth),
	}
}

// Overrides holds values given on the command line. Indent is -1 when the
// flag was not given; boolean flags only take effect when set.
type Overrides struct {
	Indent   int
	SortKeys bool
	Unicode  bool
	Compact  bool
	Raw      bool
	Debug    bool
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, cli Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	// Apply CLI overrides only if they're not the default values so config
	// file values win over untouched flags
	if cli.Indent >= 0 {
		cfg.Output.Indent = cli.Indent
	}
	if cli.SortKeys {
		cfg.Output.SortKeys = true
	}
	if cli.Unicode {
		cfg.Output.EnsureASCII = false
	}
	if cli.Compact {
		cfg.Output.Compact = true
	}
	if cli.Raw {
		cfg.Hooks.Raw = true
	}
	if cli.Debug {
		cfg.Dev.Debug = true
	}

	return cfg, nil
}
