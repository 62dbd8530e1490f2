package main

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/mcncl/jsonext/internal/config"
	"github.com/mcncl/jsonext/internal/diag"
	"github.com/mcncl/jsonext/internal/errors"
	"github.com/mcncl/jsonext/internal/formatter"
	"github.com/mcncl/jsonext/internal/logging"
	"github.com/mcncl/jsonext/internal/parser"
)

// CLI defines the command-line interface
var CLI struct {
	Input       string `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
	Output      string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Config      string `help:"Path to config file. Defaults to the nearest .jsonext.yml." short:"c" type:"path"`
	Indent      int    `help:"Indent nested values by N spaces." default:"-1" placeholder:"N"`
	SortKeys    bool   `help:"Sort object keys."`
	Unicode     bool   `help:"Write non-ASCII characters as-is instead of escaping them."`
	Compact     bool   `help:"Use the most compact separators."`
	Raw         bool   `help:"Keep constructors no hook recognizes instead of failing."`
	Check       bool   `help:"Only validate the input and print ok."`
	Debug       bool   `help:"Enable debug logging." short:"d"`
	Version     bool   `help:"Show version information." short:"v"`
	Interactive bool   `help:"Run in interactive mode, allowing direct input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Config *config.Config
	Logger log.Logger
}

// Version information
const (
	Version = "0.1.0"
)

// input is a document read from a file or stdin, kept for error snippets
type input struct {
	name string
	text string
}

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("jsonext"),
		kong.Description("Reformat and validate extended JSON with tagged constructors such as Date(...) and Set([...])"),
		kong.UsageOnError(),
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("jsonext version %s\n", Version)
		return
	}

	ctx, err := newContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	in, err := run(ctx)
	if err != nil {
		reportError(in, err)
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonext --help\n")
		os.Exit(1)
	}
}

// newContext loads configuration and applies command line overrides
func newContext() (*Context, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, config.Overrides{
		Indent:   CLI.Indent,
		SortKeys: CLI.SortKeys,
		Unicode:  CLI.Unicode,
		Compact:  CLI.Compact,
		Raw:      CLI.Raw,
		Debug:    CLI.Debug,
	})
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}

	logger := logging.New(os.Stderr, cfg.Dev.Debug)
	if configPath != "" {
		level.Debug(logger).Log("msg", "loaded config", "path", configPath)
	}
	return &Context{Config: cfg, Logger: logger}, nil
}

// run executes the main program logic. The input is returned even on
// failure so parse errors can be shown against the source.
func run(ctx *Context) (input, error) {
	in, err := readInput()
	if err != nil {
		return in, err
	}
	level.Debug(ctx.Logger).Log("msg", "read input", "source", in.name, "bytes", len(in.text))

	decoders, err := ctx.Config.Decoders()
	if err != nil {
		return in, errors.NewConfigError("invalid decode hooks", err)
	}
	encoders, err := ctx.Config.Encoders()
	if err != nil {
		return in, errors.NewConfigError("invalid encode hooks", err)
	}

	doc, err := parser.ParseString(in.text,
		parser.WithDecoders(decoders),
		parser.WithScannerOptions(ctx.Config.ScannerOptions()...),
	)
	if err != nil {
		return in, err
	}
	level.Debug(ctx.Logger).Log("msg", "decoded document", "kind", doc.Kind)

	if CLI.Check {
		return in, writeOutput("ok")
	}

	f := formatter.NewFormatter(
		formatter.WithEncoders(encoders),
		formatter.WithRenderOptions(ctx.Config.RenderOptions()),
	)
	text, err := f.Serialize(doc.Root)
	if err != nil {
		return in, err
	}
	level.Debug(ctx.Logger).Log("msg", "rendered document", "bytes", len(text))

	return in, writeOutput(text)
}

// reportError prints err and, for parse errors, the offending source line
func reportError(in input, err error) {
	var perr *errors.ParseError
	if stderrors.As(err, &perr) && in.text != "" {
		if derr := diag.Fprint(os.Stderr, in.name, in.text, perr); derr == nil {
			return
		}
	}
	fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
}

// readInput reads the document from file or stdin
func readInput() (input, error) {
	if CLI.Input != "" {
		return readFile(CLI.Input)
	}

	// Check if stdin has data
	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return input{}, errors.NewInputError("failed to access stdin", err)
	}

	// Interactive mode or piped input
	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		if CLI.Interactive {
			return readInteractiveInput()
		}
		return input{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return input{}, errors.NewInputError("failed to read from stdin", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return input{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return input{name: "<stdin>", text: string(data)}, nil
}

// readFile validates and reads the input file. ParseFile performs the same
// checks; they are repeated here because the text is needed for snippets.
func readFile(path string) (input, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return input{}, errors.NewInputError(fmt.Sprintf("file '%s' not found", path), errors.ErrFileNotFound)
		}
		return input{}, errors.NewInputError(fmt.Sprintf("failed to access file '%s'", path), err)
	}
	if info.Size() == 0 {
		return input{}, errors.NewInputError(fmt.Sprintf("input file '%s' is empty", path), errors.ErrFileEmpty)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return input{}, errors.NewInputError(fmt.Sprintf("failed to read file '%s'", path), err)
	}
	return input{name: path, text: string(data)}, nil
}

// writeOutput writes text to file or stdout
func writeOutput(text string) error {
	if CLI.Output != "" {
		if err := os.WriteFile(CLI.Output, []byte(text+"\n"), 0644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", CLI.Output)
		return nil
	}

	if _, err := fmt.Println(text); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste a
// document and signal completion with Ctrl+D (EOF)
func readInteractiveInput() (input, error) {
	fmt.Fprintln(os.Stderr, "jsonext Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your document below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(os.Stdin)
	var builder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		builder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return input{}, errors.NewInputError("error reading input", err)
		}
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return input{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing...")
	return input{name: "<stdin>", text: text}, nil
}
