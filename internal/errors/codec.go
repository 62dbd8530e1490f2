package errors

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind classifies scanner and renderer failures.
type Kind int

const (
	// UnexpectedEnd means the input ended where a value, delimiter or
	// closing bracket was expected.
	UnexpectedEnd Kind = iota + 1
	// UnexpectedCharacter means the character at the cursor matches no
	// expected token.
	UnexpectedCharacter
	// UnrecognizedTag means no decode hook accepted a well-formed struct.
	UnrecognizedTag
	// HookFailure means a decode or encode hook returned an error.
	HookFailure
	// NotRepresentable means no encode hook accepted a value.
	NotRepresentable
)

func (k Kind) String() string {
	switch k {
	case UnexpectedEnd:
		return "UnexpectedEnd"
	case UnexpectedCharacter:
		return "UnexpectedCharacter"
	case UnrecognizedTag:
		return "UnrecognizedTag"
	case HookFailure:
		return "HookFailure"
	case NotRepresentable:
		return "NotRepresentable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseError reports a decoding failure at a byte offset of the input.
type ParseError struct {
	Kind   Kind
	Msg    string
	Offset int
	Line   int
	Column int
	Err    error
}

// NewParseError builds a ParseError, computing the 1-based line and column
// of offset within text.
func NewParseError(kind Kind, msg, text string, offset int) *ParseError {
	line, col := Position(text, offset)
	return &ParseError{
		Kind:   kind,
		Msg:    msg,
		Offset: offset,
		Line:   line,
		Column: col,
	}
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: line %d column %d (char %d)", e.Msg, e.Line, e.Column, e.Offset)
}

// Unwrap returns the hook error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches another *ParseError with the same Kind.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// SerializeError reports a rendering failure for a value of the given type.
type SerializeError struct {
	Kind Kind
	Type string
	Msg  string
	Err  error
}

// Error implements error.
func (e *SerializeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap returns the hook error, if any.
func (e *SerializeError) Unwrap() error {
	return e.Err
}

// Is matches another *SerializeError with the same Kind.
func (e *SerializeError) Is(target error) bool {
	t, ok := target.(*SerializeError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Position converts a byte offset into a 1-based line and column. Columns
// count characters, not bytes.
func Position(text string, offset int) (line, column int) {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := text[:offset]
	line = strings.Count(prefix, "\n") + 1
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	column = utf8.RuneCountInString(prefix[lineStart:]) + 1
	return line, column
}
