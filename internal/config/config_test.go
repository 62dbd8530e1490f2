package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonerrors "github.com/mcncl/jsonext/internal/errors"
	"github.com/mcncl/jsonext/internal/hooks"
	"github.com/mcncl/jsonext/internal/renderer"
	"github.com/mcncl/jsonext/internal/scanner"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config_test_*.yml")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(tmpFile.Name()) })

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	_ = tmpFile.Close()
	return tmpFile.Name()
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg := NewConfig()

	// Test default values
	assert.True(t, cfg.Input.Strict)
	assert.Equal(t, scanner.DefaultMaxDepth, cfg.Input.MaxDepth)
	assert.Equal(t, 0, cfg.Output.Indent)
	assert.False(t, cfg.Output.SortKeys)
	assert.True(t, cfg.Output.EnsureASCII)
	assert.False(t, cfg.Output.Compact)
	assert.True(t, cfg.Output.AllowNaN)
	assert.Equal(t, []string{"date", "set", "error"}, cfg.Hooks.Decode)
	assert.Equal(t, []string{"date", "set", "error"}, cfg.Hooks.Encode)
	assert.False(t, cfg.Hooks.Raw)
	assert.False(t, cfg.Date.TruncateToSeconds)
	assert.False(t, cfg.Dev.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
input:
  strict: false
  max_depth: 64
output:
  indent: 2
  sort_keys: true
  ensure_ascii: false
  allow_nan: false
hooks:
  decode: [Date, error]
  encode: [set]
  raw: true
date:
  truncate_to_seconds: true
dev:
  debug: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, cfg.Input.Strict)
	assert.Equal(t, 64, cfg.Input.MaxDepth)
	assert.Equal(t, 2, cfg.Output.Indent)
	assert.True(t, cfg.Output.SortKeys)
	assert.False(t, cfg.Output.EnsureASCII)
	assert.False(t, cfg.Output.AllowNaN)
	assert.Equal(t, renderer.DefaultMaxDepth, cfg.Output.MaxDepth, "unset keys keep defaults")
	assert.Equal(t, []string{"Date", "error"}, cfg.Hooks.Decode)
	assert.Equal(t, []string{"set"}, cfg.Hooks.Encode)
	assert.True(t, cfg.Hooks.Raw)
	assert.True(t, cfg.Date.TruncateToSeconds)
	assert.True(t, cfg.Dev.Debug)
}

func TestConfig_LoadNonExistentFile(t *testing.T) {
	_, err := LoadConfig("/non/existent/config.yml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, `
output:
  indent: [unclosed array
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfig_LoadUnknownHook(t *testing.T) {
	path := writeConfig(t, `
hooks:
  decode: [date, uuid]
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config file")
	assert.Contains(t, err.Error(), "hooks.decode")
	assert.True(t, errors.Is(err, jsonerrors.ErrUnknownHook))
}

func TestConfig_ValidateNegativeIndent(t *testing.T) {
	cfg := NewConfig()
	cfg.Output.Indent = -2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.indent must not be negative")
}

func TestConfig_FindConfigFile(t *testing.T) {
	// Create temp directory structure
	tmpDir, err := os.MkdirTemp("", "config_search_test")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	// Create nested directory
	nestedDir := filepath.Join(tmpDir, "project", "subdir")
	err = os.MkdirAll(nestedDir, 0o755)
	require.NoError(t, err)

	// Create config file in project root
	configPath := filepath.Join(tmpDir, "project", ".jsonext.yml")
	err = os.WriteFile(configPath, []byte("output:\n  indent: 4\n"), 0o644)
	require.NoError(t, err)

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()

	err = os.Chdir(nestedDir)
	require.NoError(t, err)

	// Should find it in the parent directory
	foundPath := FindConfigFile()
	require.NotEmpty(t, foundPath, "Should find config file")

	foundContent, err := os.ReadFile(foundPath)
	require.NoError(t, err)
	assert.Contains(t, string(foundContent), "indent: 4")
}

func TestConfig_FindConfigFileNotFound(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "no_config_test")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()

	err = os.Chdir(tmpDir)
	require.NoError(t, err)

	foundPath := FindConfigFile()
	assert.Empty(t, foundPath)
}

func TestHookName(t *testing.T) {
	tests := map[string]string{
		"date":        "Date",
		"DATE":        "Date",
		" Set ":       "Set",
		"error":       "Error",
		"passthrough": "Passthrough",
	}

	for in, want := range tests {
		assert.Equal(t, want, HookName(in), "HookName(%q)", in)
	}
}

func TestConfig_Decoders(t *testing.T) {
	cfg := NewConfig()
	cfg.Hooks.Decode = []string{"error", "date"}
	cfg.Date.TruncateToSeconds = true
	cfg.Hooks.Raw = true

	decoders, err := cfg.Decoders()
	require.NoError(t, err)
	require.Len(t, decoders, 3)

	assert.IsType(t, &hooks.ErrorHook{}, decoders[0])
	assert.IsType(t, &hooks.PassthroughHook{}, decoders[2])

	date, ok := decoders[1].(*hooks.DateHook)
	require.True(t, ok)
	assert.True(t, date.TruncateToSeconds)

	v, ok, err := decoders.Decode("Date", []any{int64(1999)})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(1, 0).UTC(), v)
}

func TestConfig_Encoders(t *testing.T) {
	cfg := NewConfig()
	cfg.Hooks.Encode = []string{"set"}

	encoders, err := cfg.Encoders()
	require.NoError(t, err)
	require.Len(t, encoders, 1)
	assert.IsType(t, &hooks.SetHook{}, encoders[0])

	cfg.Hooks.Encode = []string{"bogus"}
	_, err = cfg.Encoders()
	assert.ErrorIs(t, err, jsonerrors.ErrUnknownHook)
}

func TestConfig_RenderOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Output.Indent = 4
	cfg.Output.SortKeys = true
	cfg.Output.Compact = true

	opts := cfg.RenderOptions()
	assert.Equal(t, "    ", opts.Indent)
	assert.True(t, opts.SortKeys)
	assert.True(t, opts.EnsureASCII)
	assert.True(t, opts.Compact)
	assert.True(t, opts.AllowNaN)
	assert.Equal(t, renderer.DefaultMaxDepth, opts.MaxDepth)
}

func TestConfig_ScannerOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Input.MaxDepth = 1

	s := scanner.New(nil, cfg.ScannerOptions()...)
	_, err := s.Decode("[[1]]")
	assert.Error(t, err)

	cfg.Input.MaxDepth = 2
	s = scanner.New(nil, cfg.ScannerOptions()...)
	_, err = s.Decode("[[1]]")
	assert.NoError(t, err)
}

func TestLoadConfigWithPrecedence(t *testing.T) {
	path := writeConfig(t, `
output:
  indent: 2
  sort_keys: false
hooks:
  raw: false
`)

	cfg, err := LoadConfigWithCLI(path, Overrides{
		Indent:   4,
		SortKeys: true,
		Unicode:  true,
		Raw:      true,
	})
	require.NoError(t, err)

	// Verify precedence: CLI > config file > defaults
	assert.Equal(t, 4, cfg.Output.Indent)
	assert.True(t, cfg.Output.SortKeys)
	assert.False(t, cfg.Output.EnsureASCII)
	assert.True(t, cfg.Hooks.Raw)
	assert.False(t, cfg.Output.Compact)
}

func TestLoadConfigWithPrecedence_NoOverrides(t *testing.T) {
	path := writeConfig(t, `
output:
  indent: 2
  compact: true
`)

	cfg, err := LoadConfigWithCLI(path, Overrides{Indent: -1})
	require.NoError(t, err)

	// Should use config file values
	assert.Equal(t, 2, cfg.Output.Indent)
	assert.True(t, cfg.Output.Compact)
	assert.True(t, cfg.Output.EnsureASCII) // Default value
}

func TestLoadConfigWithCLI_NoFile(t *testing.T) {
	cfg, err := LoadConfigWithCLI("", Overrides{Indent: 0, Debug: true})
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Output.Indent)
	assert.True(t, cfg.Dev.Debug)
}

func TestLoadConfigWithCLI_BadFile(t *testing.T) {
	_, err := LoadConfigWithCLI("/non/existent/config.yml", Overrides{Indent: -1})
	assert.Error(t, err)
}
