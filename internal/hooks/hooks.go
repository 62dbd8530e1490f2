// Package hooks maps constructor values such as Date(0) to native Go values
// and back. Decoders and encoders are tried in registration order and the
// first one that recognizes its input wins.
package hooks

import (
	"fmt"
	"sort"
)

// Decoder turns a parsed constructor into a native value. ok is false when
// the tag is not one the decoder handles.
type Decoder interface {
	Decode(tag string, args []any) (v any, ok bool, err error)
}

// Encoder turns a native value into a constructor tag and arguments. ok is
// false when the value is not one the encoder handles.
type Encoder interface {
	Encode(v any) (tag string, args []any, ok bool, err error)
}

// Hook is a named decoder/encoder pair.
type Hook interface {
	Decoder
	Encoder
	Name() string
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(tag string, args []any) (any, bool, error)

// Decode calls f.
func (f DecoderFunc) Decode(tag string, args []any) (any, bool, error) {
	return f(tag, args)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(v any) (string, []any, bool, error)

// Encode calls f.
func (f EncoderFunc) Encode(v any) (string, []any, bool, error) {
	return f(v)
}

// Decoders is an ordered decoder chain.
type Decoders []Decoder

// Decode returns the result of the first decoder that recognizes tag. An
// error from a decoder that recognized the tag stops the search.
func (c Decoders) Decode(tag string, args []any) (any, bool, error) {
	for _, d := range c {
		v, ok, err := d.Decode(tag, args)
		if err != nil {
			return nil, true, err
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// Encoders is an ordered encoder chain.
type Encoders []Encoder

// Encode returns the result of the first encoder that recognizes v.
func (c Encoders) Encode(v any) (string, []any, bool, error) {
	for _, e := range c {
		tag, args, ok, err := e.Encode(v)
		if err != nil {
			return "", nil, true, err
		}
		if ok {
			return tag, args, true, nil
		}
	}
	return "", nil, false, nil
}

var registry = map[string]func() Hook{
	"Date":        func() Hook { return &DateHook{} },
	"Set":         func() Hook { return &SetHook{} },
	"Error":       func() Hook { return &ErrorHook{} },
	"Passthrough": func() Hook { return &PassthroughHook{} },
}

// Lookup returns a new instance of the hook registered under name.
func Lookup(name string) (Hook, error) {
	newHook, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("no hook named %q (known hooks: %v)", name, Names())
	}
	return newHook(), nil
}

// Names lists the registered hook names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the default hook set: Date, Set and Error.
func Defaults() []Hook {
	return []Hook{&DateHook{}, &SetHook{}, &ErrorHook{}}
}

// DecodersOf returns the decoder chain for hs, preserving order.
func DecodersOf(hs []Hook) Decoders {
	out := make(Decoders, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}

// EncodersOf returns the encoder chain for hs, preserving order.
func EncodersOf(hs []Hook) Encoders {
	out := make(Encoders, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}
