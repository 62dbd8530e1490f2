package formatter

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcncl/jsonext/internal/errors"
	"github.com/mcncl/jsonext/internal/hooks"
	"github.com/mcncl/jsonext/internal/parser"
	"github.com/mcncl/jsonext/internal/renderer"
	"github.com/mcncl/jsonext/internal/scanner"
)

// Formatter serializes native values and reformats extended JSON text
type Formatter struct {
	decoders hooks.Decoders
	encoders hooks.Encoders
	options  renderer.Options
	scanOpts []scanner.Option
}

// Option configures a Formatter
type Option func(*Formatter)

// WithDecoders replaces the decoder chain used by Format
func WithDecoders(decoders hooks.Decoders) Option {
	return func(f *Formatter) { f.decoders = decoders }
}

// WithEncoders replaces the encoder chain
func WithEncoders(encoders hooks.Encoders) Option {
	return func(f *Formatter) { f.encoders = encoders }
}

// WithRenderOptions sets indentation, key ordering and escaping
func WithRenderOptions(opts renderer.Options) Option {
	return func(f *Formatter) { f.options = opts }
}

// WithScannerOptions passes options through to the scanner used by Format
func WithScannerOptions(opts ...scanner.Option) Option {
	return func(f *Formatter) { f.scanOpts = append(f.scanOpts, opts...) }
}

// WithRaw keeps constructors that no other hook recognizes, so Format can
// reindent documents that use tags it knows nothing about
func WithRaw() Option {
	return func(f *Formatter) {
		f.decoders = append(append(hooks.Decoders{}, f.decoders...), &hooks.PassthroughHook{})
		f.encoders = append(append(hooks.Encoders{}, f.encoders...), &hooks.PassthroughHook{})
	}
}

// NewFormatter creates a new Formatter with the default hooks and options
func NewFormatter(opts ...Option) *Formatter {
	defaults := hooks.Defaults()
	f := &Formatter{
		decoders: hooks.DecodersOf(defaults),
		encoders: hooks.EncodersOf(defaults),
		options:  renderer.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Serialize renders v using the default hooks and options
func Serialize(v any) (string, error) {
	return NewFormatter().Serialize(v)
}

// Serialize renders v as extended JSON text
func (f *Formatter) Serialize(v any) (string, error) {
	var b strings.Builder
	if err := f.SerializeTo(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// SerializeTo writes v as extended JSON text to w
func (f *Formatter) SerializeTo(w io.Writer, v any) error {
	r := renderer.New(f.encoders, f.options)
	if err := r.Render(v, w); err != nil {
		var serr *errors.SerializeError
		if stderrors.As(err, &serr) {
			return errors.NewEncodingError(fmt.Sprintf("cannot render value of type %s", serr.Type), serr)
		}
		return errors.NewOutputError("failed to write output", err)
	}
	return nil
}

// SerializeFile writes v to filePath, followed by a newline
func (f *Formatter) SerializeFile(filePath string, v any) error {
	text, err := f.Serialize(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, []byte(text+"\n"), 0644); err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", filePath), err)
	}
	return nil
}

// Format decodes text and renders it again with the formatter's options
func (f *Formatter) Format(text string) (string, error) {
	// Handle empty input
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	doc, err := parser.ParseString(text,
		parser.WithDecoders(f.decoders),
		parser.WithScannerOptions(f.scanOpts...),
	)
	if err != nil {
		return "", err
	}
	return f.Serialize(doc.Root)
}
