package main

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonext/internal/config"
	"github.com/mcncl/jsonext/internal/errors"
	"github.com/mcncl/jsonext/internal/logging"
)

func newTestContext() *Context {
	return &Context{
		Config: config.NewConfig(),
		Logger: logging.New(io.Discard, false),
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "test_input_*.jsonx")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(tmpFile.Name()) })

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	_ = tmpFile.Close()
	return tmpFile.Name()
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	fn()
	_ = w.Close()

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	_ = r.Close()
	return string(out)
}

func TestRun_SimpleDocument(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeTempFile(t, `{"name":"John","age":30,"seen":Date(0)}`)

	var err error
	out := captureStdout(t, func() {
		_, err = run(newTestContext())
	})
	require.NoError(t, err)
	assert.Equal(t, `{"name": "John", "age": 30, "seen": Date(0)}`+"\n", out)
}

func TestRun_WithOutputFile(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeTempFile(t, `{"id": 1, "tags": Set(["b", "a"])}`)
	CLI.Output = filepath.Join(t.TempDir(), "out.jsonx")

	ctx := newTestContext()
	ctx.Config.Output.Indent = 2

	_, err := run(ctx)
	require.NoError(t, err)

	content, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": 1,\n  \"tags\": Set([\n    \"a\",\n    \"b\"\n  ])\n}\n", string(content))
}

func TestRun_Check(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeTempFile(t, `[Error("boom", 1), NaN]`)
	CLI.Check = true

	var err error
	out := captureStdout(t, func() {
		_, err = run(newTestContext())
	})
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestRun_ParseErrorKeepsInput(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	path := writeTempFile(t, `{"a": Nope(1)}`)
	CLI.Input = path

	in, err := run(newTestContext())
	require.Error(t, err)
	assert.Equal(t, path, in.name)
	assert.Equal(t, `{"a": Nope(1)}`, in.text)

	var perr *errors.ParseError
	require.True(t, stderrors.As(err, &perr))
	assert.Equal(t, errors.UnrecognizedTag, perr.Kind)
	assert.Equal(t, 6, perr.Offset)
}

func TestRun_RawKeepsUnknownConstructors(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeTempFile(t, `[Point(1, 2), Date(5)]`)

	ctx := newTestContext()
	ctx.Config.Hooks.Raw = true

	var err error
	out := captureStdout(t, func() {
		_, err = run(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, "[Point(1, 2), Date(5)]\n", out)
}

func TestRun_InvalidHooks(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeTempFile(t, `[]`)

	ctx := newTestContext()
	ctx.Config.Hooks.Encode = []string{"uuid"}

	_, err := run(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeConfig}))
	assert.True(t, stderrors.Is(err, errors.ErrUnknownHook))
}

func TestReadInput_FromFile(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	path := writeTempFile(t, `{"user": {"name": "Alice", "id": 42}}`)
	CLI.Input = path

	in, err := readInput()
	require.NoError(t, err)
	assert.Equal(t, path, in.name)
	assert.Equal(t, `{"user": {"name": "Alice", "id": 42}}`, in.text)
}

func TestReadInput_FromStdin(t *testing.T) {
	// Save original CLI state and stdin
	originalCLI := CLI
	originalStdin := os.Stdin
	defer func() {
		CLI = originalCLI
		os.Stdin = originalStdin
	}()

	// Clear input file to force stdin reading
	CLI.Input = ""

	// Create a pipe to simulate stdin
	data := `[Set([1]), Date(2)]`
	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		defer func() { _ = w.Close() }()
		_, _ = w.WriteString(data)
	}()

	os.Stdin = r
	defer func() { _ = r.Close() }()

	in, err := readInput()
	require.NoError(t, err)
	assert.Equal(t, "<stdin>", in.name)
	assert.Equal(t, data, in.text)
}

func TestReadInput_EmptyStdin(t *testing.T) {
	// Save original CLI state and stdin
	originalCLI := CLI
	originalStdin := os.Stdin
	defer func() {
		CLI = originalCLI
		os.Stdin = originalStdin
	}()

	CLI.Input = ""

	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, _ = w.WriteString("  \n\t")
	_ = w.Close()

	os.Stdin = r
	defer func() { _ = r.Close() }()

	_, err = readInput()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestReadFile_Errors(t *testing.T) {
	empty := writeTempFile(t, "")

	tests := []struct {
		name     string
		path     string
		sentinel error
		contains string
	}{
		{"missing", "/non/existent/file.jsonx", errors.ErrFileNotFound, "not found"},
		{"empty", empty, errors.ErrFileEmpty, "is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readFile(tt.path)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.sentinel))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestWriteOutput_ToFile(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Output = filepath.Join(t.TempDir(), "out.jsonx")

	err := writeOutput(`{"a": Date(1)}`)
	require.NoError(t, err)

	content, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Equal(t, `{"a": Date(1)}`+"\n", string(content))
}

func TestWriteOutput_ToStdout(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	// Clear output file to force stdout
	CLI.Output = ""

	var err error
	out := captureStdout(t, func() {
		err = writeOutput("[1, 2]")
	})
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]\n", out)
}

func TestWriteOutput_FileError(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	// Try to write to a directory that doesn't exist
	CLI.Output = "/non/existent/dir/output.jsonx"

	err := writeOutput("[]")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeOutput}))
}

func TestNewContext(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	configPath := filepath.Join(t.TempDir(), "jsonext.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("output:\n  indent: 2\n  sort_keys: true\n"), 0o644))

	CLI.Config = configPath
	CLI.Indent = 4
	CLI.Unicode = true

	ctx, err := newContext()
	require.NoError(t, err)
	assert.NotNil(t, ctx.Logger)
	assert.Equal(t, 4, ctx.Config.Output.Indent)
	assert.True(t, ctx.Config.Output.SortKeys)
	assert.False(t, ctx.Config.Output.EnsureASCII)
}

func TestNewContext_BadConfig(t *testing.T) {
	// Save original CLI state
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Config = "/non/existent/jsonext.yml"

	_, err := newContext()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeConfig}))
}
