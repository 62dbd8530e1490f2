package parser

import (
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcncl/jsonext/internal/errors" // Custom errors package
	"github.com/mcncl/jsonext/internal/hooks"
	"github.com/mcncl/jsonext/internal/models"
	"github.com/mcncl/jsonext/internal/scanner"
)

// Option configures a parse call.
type Option func(*options)

type options struct {
	decoders hooks.Decoders
	scanOpts []scanner.Option
}

// WithDecoders replaces the default Date, Set and Error decoders.
func WithDecoders(decoders hooks.Decoders) Option {
	return func(o *options) { o.decoders = decoders }
}

// WithScannerOptions passes options through to the scanner.
func WithScannerOptions(opts ...scanner.Option) Option {
	return func(o *options) { o.scanOpts = append(o.scanOpts, opts...) }
}

func newOptions(opts []Option) *options {
	o := &options{decoders: hooks.DecodersOf(hooks.Defaults())}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Parse reads an extended JSON document from reader and decodes it
func Parse(reader io.Reader, opts ...Option) (models.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read input", err)
	}
	return decode(string(data), newOptions(opts))
}

// ParseString decodes an extended JSON document held in a string
func ParseString(text string, opts ...Option) (models.Document, error) {
	return decode(text, newOptions(opts))
}

// ParseFile decodes the extended JSON document stored at filePath
func ParseFile(filePath string, opts ...Option) (models.Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file, opts...)
}

func decode(text string, o *options) (models.Document, error) {
	root, err := scanner.New(o.decoders, o.scanOpts...).Decode(text)
	if err != nil {
		var perr *errors.ParseError
		if stderrors.As(err, &perr) {
			if stderrors.Is(perr, errors.ErrEmptyInput) {
				return models.Document{}, errors.NewParsingError("input is empty or contains only whitespace", perr)
			}
			return models.Document{}, errors.NewParsingError(
				fmt.Sprintf("syntax error at line %d column %d", perr.Line, perr.Column),
				perr,
			)
		}
		return models.Document{}, errors.NewParsingError("failed to decode input", err)
	}

	return models.Document{
		Root: root,
		Kind: models.KindOf(root),
	}, nil
}
