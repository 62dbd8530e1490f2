// Package scanner decodes extended JSON text: standard JSON plus tagged
// constructors such as Date(1700000000000) or Set([1, 2, 3]).
//
// Decoding is a single recursive descent over the input. Constructors are
// resolved through a hooks.Decoders chain as soon as their closing
// parenthesis is read, so inner constructors are converted before the ones
// that contain them.
package scanner

import (
	stderrors "errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mcncl/jsonext/internal/errors"
	"github.com/mcncl/jsonext/internal/hooks"
	"github.com/mcncl/jsonext/internal/models"
)

// DefaultMaxDepth bounds container nesting unless overridden.
const DefaultMaxDepth = 1000

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Scanner decodes extended JSON values. A Scanner holds no per-call state and
// may be shared between goroutines as long as its decoders are safe to call
// concurrently.
type Scanner struct {
	decoders hooks.Decoders
	strict   bool
	maxDepth int

	parseInt      LiteralParser
	parseFloat    LiteralParser
	parseConstant LiteralParser
	objectHook    ObjectHook
}

// LiteralParser converts a literal exactly as written in the input into a
// native value.
type LiteralParser func(lit string) (any, error)

// ObjectHook replaces a decoded object with another value.
type ObjectHook func(obj *models.Object) (any, error)

// Option configures a Scanner.
type Option func(*Scanner)

// WithStrict controls whether raw control characters are rejected inside
// strings. Scanners are strict by default.
func WithStrict(strict bool) Option {
	return func(s *Scanner) { s.strict = strict }
}

// WithMaxDepth sets the maximum nesting of arrays, objects and constructors.
// A value <= 0 disables the limit.
func WithMaxDepth(depth int) Option {
	return func(s *Scanner) { s.maxDepth = depth }
}

// WithIntParser decodes integer literals with p instead of producing int64
// or *big.Int.
func WithIntParser(p LiteralParser) Option {
	return func(s *Scanner) { s.parseInt = p }
}

// WithFloatParser decodes literals with a fraction or exponent with p instead
// of producing float64.
func WithFloatParser(p LiteralParser) Option {
	return func(s *Scanner) { s.parseFloat = p }
}

// WithConstantParser decodes NaN, Infinity and -Infinity with p.
func WithConstantParser(p LiteralParser) Option {
	return func(s *Scanner) { s.parseConstant = p }
}

// WithObjectHook passes every decoded object through h, innermost first.
func WithObjectHook(h ObjectHook) Option {
	return func(s *Scanner) { s.objectHook = h }
}

// New creates a Scanner that resolves constructors with decoders.
func New(decoders hooks.Decoders, opts ...Option) *Scanner {
	s := &Scanner{
		decoders: decoders,
		strict:   true,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode decodes a complete document. Leading and trailing whitespace is
// ignored; anything else after the first value is an error. A document with
// no value at all fails with UnexpectedEnd wrapping errors.ErrEmptyInput.
func (s *Scanner) Decode(text string) (any, error) {
	start := skipWhitespace(text, 0)
	if start == len(text) {
		perr := errors.NewParseError(errors.UnexpectedEnd, "Expecting value", text, start)
		perr.Err = errors.ErrEmptyInput
		return nil, perr
	}
	v, end, err := s.Scan(text, start)
	if err != nil {
		return nil, err
	}
	end = skipWhitespace(text, end)
	if end != len(text) {
		return nil, errors.NewParseError(errors.UnexpectedCharacter, "Extra data", text, end)
	}
	return v, nil
}

// Scan decodes the value starting at pos and returns it together with the
// offset just past it.
func (s *Scanner) Scan(text string, pos int) (any, int, error) {
	return s.scan(text, pos, 0)
}

func (s *Scanner) scan(text string, pos, depth int) (any, int, error) {
	if pos >= len(text) {
		return nil, pos, errors.NewParseError(errors.UnexpectedEnd, "Expecting value", text, pos)
	}

	c := text[pos]
	switch {
	case c == '"':
		return s.scanString(text, pos)
	case c == '{':
		if err := s.checkDepth(text, pos, depth+1); err != nil {
			return nil, pos, err
		}
		return s.scanObject(text, pos+1, depth+1)
	case c == '[':
		if err := s.checkDepth(text, pos, depth+1); err != nil {
			return nil, pos, err
		}
		return s.scanArray(text, pos+1, depth+1)
	case c == 'n' && strings.HasPrefix(text[pos:], "null"):
		return nil, pos + 4, nil
	case c == 't' && strings.HasPrefix(text[pos:], "true"):
		return true, pos + 4, nil
	case c == 'f' && strings.HasPrefix(text[pos:], "false"):
		return false, pos + 5, nil
	case c == 'N' && strings.HasPrefix(text[pos:], "NaN"):
		return s.constant(text, pos, "NaN", math.NaN())
	case c == 'I' && strings.HasPrefix(text[pos:], "Infinity"):
		return s.constant(text, pos, "Infinity", math.Inf(1))
	case c == '-' && strings.HasPrefix(text[pos:], "-Infinity"):
		return s.constant(text, pos, "-Infinity", math.Inf(-1))
	}

	if c == '-' || isDigit(c) {
		if end, isFloat, ok := matchNumber(text, pos); ok {
			return s.number(text, pos, end, isFloat)
		}
	}

	if models.IsTagStart(c) {
		if tag, open, ok := matchConstructor(text, pos); ok {
			if err := s.checkDepth(text, pos, depth+1); err != nil {
				return nil, pos, err
			}
			return s.scanStruct(text, pos, tag, open+1, depth+1)
		}
	}

	return nil, pos, errors.NewParseError(errors.UnexpectedCharacter, "Expecting value", text, pos)
}

func (s *Scanner) checkDepth(text string, pos, depth int) error {
	if s.maxDepth > 0 && depth > s.maxDepth {
		return errors.NewParseError(errors.UnexpectedCharacter, "Maximum nesting depth exceeded", text, pos)
	}
	return nil
}

// scanStruct parses the argument list of a constructor. start is the offset
// of the tag and pos the offset just past the opening parenthesis.
func (s *Scanner) scanStruct(text string, start int, tag string, pos, depth int) (any, int, error) {
	var args []any

	pos = skipWhitespace(text, pos)
	if pos < len(text) && text[pos] == ')' {
		pos++
	} else {
		for {
			v, next, err := s.scan(text, pos, depth)
			if err != nil {
				var perr *errors.ParseError
				if stderrors.As(err, &perr) && perr.Offset == pos && perr.Msg == "Expecting value" {
					return nil, pos, errors.NewParseError(perr.Kind, "Expecting object", text, pos)
				}
				return nil, pos, err
			}
			args = append(args, v)

			pos = skipWhitespace(text, next)
			if pos >= len(text) {
				return nil, pos, errors.NewParseError(errors.UnexpectedEnd, "Expecting ',' delimiter", text, pos)
			}
			c := text[pos]
			pos++
			if c == ')' {
				break
			}
			if c != ',' {
				return nil, pos - 1, errors.NewParseError(errors.UnexpectedCharacter, "Expecting ',' delimiter", text, pos-1)
			}
			pos = skipWhitespace(text, pos)
		}
	}

	v, ok, err := s.decoders.Decode(tag, args)
	if err != nil {
		return nil, start, hookFailure(text, start, err)
	}
	if !ok {
		return nil, start, errors.NewParseError(errors.UnrecognizedTag, "Unsupported type "+tag, text, start)
	}
	return v, pos, nil
}

func (s *Scanner) scanObject(text string, pos, depth int) (any, int, error) {
	start := pos - 1
	obj := models.NewObject()

	pos = skipWhitespace(text, pos)
	if pos < len(text) && text[pos] == '}' {
		return s.finishObject(text, start, obj, pos+1)
	}
	if pos >= len(text) || text[pos] != '"' {
		return nil, pos, expected(text, pos, "Expecting property name enclosed in double quotes")
	}

	for {
		key, next, err := s.scanString(text, pos)
		if err != nil {
			return nil, pos, err
		}
		pos = skipWhitespace(text, next)
		if pos >= len(text) || text[pos] != ':' {
			return nil, pos, expected(text, pos, "Expecting ':' delimiter")
		}
		pos = skipWhitespace(text, pos+1)

		v, next, err := s.scan(text, pos, depth)
		if err != nil {
			return nil, pos, err
		}
		obj.Set(key.(string), v)

		pos = skipWhitespace(text, next)
		if pos >= len(text) {
			return nil, pos, expected(text, pos, "Expecting ',' delimiter")
		}
		c := text[pos]
		pos++
		if c == '}' {
			return s.finishObject(text, start, obj, pos)
		}
		if c != ',' {
			return nil, pos - 1, expected(text, pos-1, "Expecting ',' delimiter")
		}
		pos = skipWhitespace(text, pos)
		if pos >= len(text) || text[pos] != '"' {
			return nil, pos, expected(text, pos, "Expecting property name enclosed in double quotes")
		}
	}
}

func (s *Scanner) finishObject(text string, start int, obj *models.Object, end int) (any, int, error) {
	if s.objectHook == nil {
		return obj, end, nil
	}
	v, err := s.objectHook(obj)
	if err != nil {
		return nil, start, hookFailure(text, start, err)
	}
	return v, end, nil
}

func (s *Scanner) scanArray(text string, pos, depth int) (any, int, error) {
	items := []any{}

	pos = skipWhitespace(text, pos)
	if pos < len(text) && text[pos] == ']' {
		return items, pos + 1, nil
	}

	for {
		v, next, err := s.scan(text, pos, depth)
		if err != nil {
			return nil, pos, err
		}
		items = append(items, v)

		pos = skipWhitespace(text, next)
		if pos >= len(text) {
			return nil, pos, expected(text, pos, "Expecting ',' delimiter")
		}
		c := text[pos]
		pos++
		if c == ']' {
			return items, pos, nil
		}
		if c != ',' {
			return nil, pos - 1, expected(text, pos-1, "Expecting ',' delimiter")
		}
		pos = skipWhitespace(text, pos)
	}
}

// scanString decodes the string literal whose opening quote is at pos.
// Escapes are validated here so errors point at the offending backslash;
// the actual unescaping is left to json-iterator.
func (s *Scanner) scanString(text string, pos int) (any, int, error) {
	hasEscape, hasControl := false, false

	i := pos + 1
	for {
		if i >= len(text) {
			return nil, pos, errors.NewParseError(errors.UnexpectedEnd, "Unterminated string starting at", text, pos)
		}
		c := text[i]
		if c == '"' {
			break
		}
		switch {
		case c == '\\':
			hasEscape = true
			if i+1 >= len(text) {
				return nil, pos, errors.NewParseError(errors.UnexpectedEnd, "Unterminated string starting at", text, pos)
			}
			switch text[i+1] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				i += 2
			case 'u':
				if i+6 > len(text) || !isHex4(text[i+2:i+6]) {
					return nil, i, errors.NewParseError(errors.UnexpectedCharacter, "Invalid \\uXXXX escape", text, i)
				}
				i += 6
			default:
				return nil, i, errors.NewParseError(errors.UnexpectedCharacter, "Invalid \\escape", text, i)
			}
		case c < 0x20:
			if s.strict {
				return nil, i, errors.NewParseError(errors.UnexpectedCharacter, "Invalid control character at", text, i)
			}
			hasControl = true
			i++
		default:
			i++
		}
	}
	end := i + 1

	if !hasEscape {
		return text[pos+1 : i], end, nil
	}

	raw := text[pos:end]
	if hasControl {
		raw = escapeControl(raw)
	}
	var out string
	if err := jsonAPI.UnmarshalFromString(raw, &out); err != nil {
		perr := errors.NewParseError(errors.UnexpectedCharacter, "Invalid string literal", text, pos)
		perr.Err = err
		return nil, pos, perr
	}
	return out, end, nil
}

// matchNumber matches -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)? at pos
// and reports where the literal ends and whether a fraction or exponent makes
// it a float.
func matchNumber(text string, pos int) (int, bool, bool) {
	i := pos
	if i < len(text) && text[i] == '-' {
		i++
	}
	if i >= len(text) || !isDigit(text[i]) {
		return pos, false, false
	}
	if text[i] == '0' {
		i++
	} else {
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}

	isFloat := false
	if i+1 < len(text) && text[i] == '.' && isDigit(text[i+1]) {
		i += 2
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		isFloat = true
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '+' || text[j] == '-') {
			j++
		}
		if j < len(text) && isDigit(text[j]) {
			for j < len(text) && isDigit(text[j]) {
				j++
			}
			i = j
			isFloat = true
		}
	}
	return i, isFloat, true
}

// number converts text[pos:end]. Without parsers, floats become float64 and
// integers int64, or *big.Int when they do not fit.
func (s *Scanner) number(text string, pos, end int, isFloat bool) (any, int, error) {
	lit := text[pos:end]
	if isFloat {
		if s.parseFloat != nil {
			return s.parseLiteral(s.parseFloat, text, pos, end)
		}
		// Out-of-range literals parse to ±Inf alongside ErrRange, which is
		// the value we want.
		f, _ := strconv.ParseFloat(lit, 64)
		return f, end, nil
	}
	if s.parseInt != nil {
		return s.parseLiteral(s.parseInt, text, pos, end)
	}
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return n, end, nil
	}
	n, _ := new(big.Int).SetString(lit, 10)
	return n, end, nil
}

func (s *Scanner) constant(text string, pos int, name string, v float64) (any, int, error) {
	end := pos + len(name)
	if s.parseConstant != nil {
		return s.parseLiteral(s.parseConstant, text, pos, end)
	}
	return v, end, nil
}

func (s *Scanner) parseLiteral(p LiteralParser, text string, pos, end int) (any, int, error) {
	v, err := p(text[pos:end])
	if err != nil {
		return nil, pos, hookFailure(text, pos, err)
	}
	return v, end, nil
}

// hookFailure reports an error from user code at offset. A *ParseError
// returned by the hook is kept as it is.
func hookFailure(text string, offset int, err error) *errors.ParseError {
	var perr *errors.ParseError
	if stderrors.As(err, &perr) {
		return perr
	}
	herr := errors.NewParseError(errors.HookFailure, "Parse error: "+err.Error(), text, offset)
	herr.Err = err
	return herr
}

// matchConstructor matches [A-Z][A-Za-z0-9_]*\s*\( at pos and returns the tag
// and the offset of the opening parenthesis.
func matchConstructor(text string, pos int) (string, int, bool) {
	i := pos + 1
	for i < len(text) && models.IsTagChar(text[i]) {
		i++
	}
	tag := text[pos:i]
	i = skipWhitespace(text, i)
	if i < len(text) && text[i] == '(' {
		return tag, i, true
	}
	return "", pos, false
}

func expected(text string, pos int, msg string) *errors.ParseError {
	if pos >= len(text) {
		return errors.NewParseError(errors.UnexpectedEnd, msg, text, pos)
	}
	return errors.NewParseError(errors.UnexpectedCharacter, msg, text, pos)
}

func skipWhitespace(text string, pos int) int {
	for pos < len(text) {
		switch text[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex4(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return len(s) == 4
}

func escapeControl(raw string) string {
	const hex = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(raw) + 8)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < 0x20 {
			b.WriteString(`\u00`)
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
