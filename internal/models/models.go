package models

import (
	"fmt"
	"math/big"
	"strings"
)

// Kind identifies which member of the extended value union a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindStruct
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
	KindStruct: "struct",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Value is the extended value tree: plain JSON plus tagged constructors.
// Only the fields that belong to Kind are meaningful.
type Value struct {
	Kind Kind

	Bool   bool
	Int    *big.Int
	Float  float64
	String string

	// Items holds array elements, or struct arguments when Kind is Struct.
	Items  []Value
	Fields []Field
	Tag    string
}

// Field is a single key/value pair of an object Value.
type Field struct {
	Key   string
	Value Value
}

// Document is the result of a top-level parse.
type Document struct {
	Root any
	Kind Kind // KindStruct when a hook produced the root
}

// KindOf reports the extended kind of a decoded native value. Anything that
// is not a plain JSON type must have come from a constructor.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int64, *big.Int:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case []any:
		return KindArray
	case *Object:
		return KindObject
	}
	return KindStruct
}

// ErrorValue is the native value of an Error(...) constructor. Args keeps the
// positional detail fields exactly as they were decoded.
type ErrorValue struct {
	Args []any
}

// NewErrorValue builds an ErrorValue from positional detail fields.
func NewErrorValue(args ...any) *ErrorValue {
	return &ErrorValue{Args: args}
}

// Error implements error.
func (e *ErrorValue) Error() string {
	switch len(e.Args) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(e.Args[0])
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		if s, ok := a.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
		} else {
			parts[i] = fmt.Sprint(a)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// StructValue is a constructor kept as-is, with no hook resolving it to a
// richer native type.
type StructValue struct {
	Tag  string
	Args []any
}

// IsValidTag reports whether s matches [A-Z][A-Za-z0-9_]*.
func IsValidTag(s string) bool {
	if s == "" || !IsTagStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsTagChar(s[i]) {
			return false
		}
	}
	return true
}

// IsTagStart reports whether c can begin a constructor tag.
func IsTagStart(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// IsTagChar reports whether c can continue a constructor tag.
func IsTagChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
