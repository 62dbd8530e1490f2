// Package renderer writes native Go values as extended JSON text.
//
// Rendering happens in two phases. Classify walks the native value and
// builds a models.Value tree, asking the encoder chain to turn any value
// that is not plain JSON into a constructor. Emit then writes that tree as
// text; a constructor's arguments are rendered into their own fragments and
// spliced in as Tag(arg1, arg2) without further quoting.
package renderer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"

	"github.com/mcncl/jsonext/internal/errors"
	"github.com/mcncl/jsonext/internal/hooks"
	"github.com/mcncl/jsonext/internal/models"
)

// DefaultMaxDepth bounds the nesting of rendered values.
const DefaultMaxDepth = 1000

// Options controls the plain JSON aspects of the output.
type Options struct {
	// Indent is repeated once per nesting level. Empty keeps everything on
	// one line.
	Indent string
	// SortKeys orders *models.Object keys. Go maps are always sorted.
	SortKeys bool
	// EnsureASCII escapes every non-ASCII character as \uXXXX.
	EnsureASCII bool
	// Compact drops the space after ',' and ':'.
	Compact bool
	// AllowNaN permits NaN, Infinity and -Infinity in the output.
	AllowNaN bool
	// MaxDepth limits nesting; <= 0 disables the check.
	MaxDepth int
}

// DefaultOptions returns single-line, ASCII-only output that permits
// non-finite floats.
func DefaultOptions() Options {
	return Options{
		EnsureASCII: true,
		AllowNaN:    true,
		MaxDepth:    DefaultMaxDepth,
	}
}

// Renderer renders native values. It holds only read-only configuration and
// is safe for concurrent use.
type Renderer struct {
	encoders hooks.Encoders
	opts     Options
}

// New creates a Renderer that turns non-JSON values into constructors with
// encoders.
func New(encoders hooks.Encoders, opts Options) *Renderer {
	return &Renderer{encoders: encoders, opts: opts}
}

// Render writes the text of v to w.
func (r *Renderer) Render(v any, w io.Writer) error {
	node, err := r.Classify(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	r.emit(&buf, node, 0)
	_, err = w.Write(buf.Bytes())
	return err
}

// Marshal returns the text of v.
func (r *Renderer) Marshal(v any) (string, error) {
	var b strings.Builder
	if err := r.Render(v, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Classify converts v into an extended value tree, resolving every value
// that is not plain JSON through the encoder chain.
func (r *Renderer) Classify(v any) (models.Value, error) {
	return r.classify(v, 0)
}

func (r *Renderer) classify(v any, depth int) (models.Value, error) {
	if r.opts.MaxDepth > 0 && depth > r.opts.MaxDepth {
		return models.Value{}, &errors.SerializeError{
			Kind: errors.NotRepresentable,
			Type: fmt.Sprintf("%T", v),
			Msg:  "Maximum nesting depth exceeded",
		}
	}

	switch x := v.(type) {
	case nil:
		return models.Value{Kind: models.KindNull}, nil
	case bool:
		return models.Value{Kind: models.KindBool, Bool: x}, nil
	case string:
		return models.Value{Kind: models.KindString, String: x}, nil
	case int:
		return intValue(int64(x)), nil
	case int64:
		return intValue(x), nil
	case int32:
		return intValue(int64(x)), nil
	case float64:
		return r.floatValue(x, v)
	case float32:
		return r.floatValue(float64(x), v)
	case *big.Int:
		if x == nil {
			return models.Value{Kind: models.KindNull}, nil
		}
		return models.Value{Kind: models.KindInt, Int: x}, nil
	case []any:
		return r.classifyItems(len(x), func(i int) any { return x[i] }, depth)
	case *models.Object:
		if x == nil {
			return models.Value{Kind: models.KindNull}, nil
		}
		return r.classifyObject(x, depth)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return r.classifyFields(keys, func(i int) any { return x[keys[i]] }, depth)
	}

	tag, args, ok, err := r.encoders.Encode(v)
	if err != nil {
		return models.Value{}, &errors.SerializeError{
			Kind: errors.HookFailure,
			Type: fmt.Sprintf("%T", v),
			Msg:  fmt.Sprintf("Encoding object of type %T failed", v),
			Err:  err,
		}
	}
	if ok {
		return r.classifyStruct(v, tag, args, depth)
	}

	return r.classifyReflect(v, depth)
}

func (r *Renderer) classifyStruct(v any, tag string, args []any, depth int) (models.Value, error) {
	if !models.IsValidTag(tag) {
		return models.Value{}, &errors.SerializeError{
			Kind: errors.HookFailure,
			Type: fmt.Sprintf("%T", v),
			Msg:  fmt.Sprintf("Invalid constructor tag %q for object of type %T", tag, v),
		}
	}
	items := make([]models.Value, len(args))
	for i, a := range args {
		item, err := r.classify(a, depth+1)
		if err != nil {
			return models.Value{}, err
		}
		items[i] = item
	}
	return models.Value{Kind: models.KindStruct, Tag: tag, Items: items}, nil
}

func (r *Renderer) classifyItems(n int, at func(int) any, depth int) (models.Value, error) {
	items := make([]models.Value, n)
	for i := 0; i < n; i++ {
		item, err := r.classify(at(i), depth+1)
		if err != nil {
			return models.Value{}, err
		}
		items[i] = item
	}
	return models.Value{Kind: models.KindArray, Items: items}, nil
}

func (r *Renderer) classifyObject(obj *models.Object, depth int) (models.Value, error) {
	keys := obj.Keys()
	if r.opts.SortKeys {
		keys = append([]string(nil), keys...)
		sort.Strings(keys)
	}
	return r.classifyFields(keys, func(i int) any {
		v, _ := obj.Get(keys[i])
		return v
	}, depth)
}

func (r *Renderer) classifyFields(keys []string, at func(int) any, depth int) (models.Value, error) {
	fields := make([]models.Field, len(keys))
	for i, k := range keys {
		val, err := r.classify(at(i), depth+1)
		if err != nil {
			return models.Value{}, err
		}
		fields[i] = models.Field{Key: k, Value: val}
	}
	return models.Value{Kind: models.KindObject, Fields: fields}, nil
}

// classifyReflect handles named and generic types that reduce to plain JSON:
// typed slices and arrays, maps with string or integer keys, pointers and
// named scalars.
func (r *Renderer) classifyReflect(v any, depth int) (models.Value, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return models.Value{Kind: models.KindBool, Bool: rv.Bool()}, nil
	case reflect.String:
		return models.Value{Kind: models.KindString, String: rv.String()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intValue(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return models.Value{Kind: models.KindInt, Int: new(big.Int).SetUint64(rv.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return r.floatValue(rv.Float(), v)
	case reflect.Slice:
		if rv.IsNil() {
			return models.Value{Kind: models.KindNull}, nil
		}
		return r.classifyItems(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, depth)
	case reflect.Array:
		return r.classifyItems(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, depth)
	case reflect.Map:
		return r.classifyMap(rv, depth)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return models.Value{Kind: models.KindNull}, nil
		}
		return r.classify(rv.Elem().Interface(), depth+1)
	}
	return models.Value{}, notRepresentable(v)
}

func (r *Renderer) classifyMap(rv reflect.Value, depth int) (models.Value, error) {
	if rv.IsNil() {
		return models.Value{Kind: models.KindNull}, nil
	}
	keys := rv.MapKeys()
	switch rv.Type().Key().Kind() {
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	default:
		return models.Value{}, &errors.SerializeError{
			Kind: errors.NotRepresentable,
			Type: rv.Type().String(),
			Msg:  fmt.Sprintf("Keys of type %s are not representable, keys must be strings or integers", rv.Type().Key()),
		}
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = fmt.Sprint(k.Interface())
	}
	return r.classifyFields(names, func(i int) any { return rv.MapIndex(keys[i]).Interface() }, depth)
}

func (r *Renderer) floatValue(f float64, v any) (models.Value, error) {
	if !r.opts.AllowNaN && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return models.Value{}, &errors.SerializeError{
			Kind: errors.NotRepresentable,
			Type: fmt.Sprintf("%T", v),
			Msg:  "Out of range float values are not JSON compliant",
		}
	}
	return models.Value{Kind: models.KindFloat, Float: f}, nil
}

func intValue(n int64) models.Value {
	return models.Value{Kind: models.KindInt, Int: big.NewInt(n)}
}

func notRepresentable(v any) error {
	return &errors.SerializeError{
		Kind: errors.NotRepresentable,
		Type: fmt.Sprintf("%T", v),
		Msg:  fmt.Sprintf("Object of type %T is not representable", v),
	}
}
