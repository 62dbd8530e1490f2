package renderer

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/mcncl/jsonext/internal/models"
)

// Constructor arguments are always joined with ", ", independent of the
// item separator used for arrays and objects.
const argSeparator = ", "

var jsonAPI = jsoniter.Config{EscapeHTML: false}.Froze()

func (r *Renderer) emit(buf *bytes.Buffer, node models.Value, depth int) {
	switch node.Kind {
	case models.KindNull:
		buf.WriteString("null")
	case models.KindBool:
		if node.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case models.KindInt:
		buf.WriteString(node.Int.String())
	case models.KindFloat:
		buf.WriteString(formatFloat(node.Float))
	case models.KindString:
		r.writeString(buf, node.String)
	case models.KindArray:
		if len(node.Items) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteByte('[')
		for i, item := range node.Items {
			if i > 0 {
				buf.WriteString(r.itemSeparator())
			}
			r.newline(buf, depth+1)
			r.emit(buf, item, depth+1)
		}
		r.newline(buf, depth)
		buf.WriteByte(']')
	case models.KindObject:
		if len(node.Fields) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteByte('{')
		for i, f := range node.Fields {
			if i > 0 {
				buf.WriteString(r.itemSeparator())
			}
			r.newline(buf, depth+1)
			r.writeString(buf, f.Key)
			buf.WriteString(r.keySeparator())
			r.emit(buf, f.Value, depth+1)
		}
		r.newline(buf, depth)
		buf.WriteByte('}')
	case models.KindStruct:
		// Each argument becomes a standalone fragment at the current depth,
		// then the fragments are spliced in verbatim.
		frags := make([]string, len(node.Items))
		for i, arg := range node.Items {
			var fb bytes.Buffer
			r.emit(&fb, arg, depth)
			frags[i] = fb.String()
		}
		buf.WriteString(node.Tag)
		buf.WriteByte('(')
		buf.WriteString(strings.Join(frags, argSeparator))
		buf.WriteByte(')')
	}
}

func (r *Renderer) itemSeparator() string {
	if r.opts.Compact || r.opts.Indent != "" {
		return ","
	}
	return ", "
}

func (r *Renderer) keySeparator() string {
	if r.opts.Compact {
		return ":"
	}
	return ": "
}

func (r *Renderer) newline(buf *bytes.Buffer, depth int) {
	if r.opts.Indent == "" {
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString(r.opts.Indent)
	}
}

func (r *Renderer) writeString(buf *bytes.Buffer, s string) {
	if !r.opts.EnsureASCII {
		out, err := jsonAPI.MarshalToString(s)
		if err == nil {
			buf.WriteString(out)
			return
		}
	}
	writeASCIIString(buf, s)
}

func writeASCIIString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	writeU := func(r rune) {
		buf.WriteString(`\u`)
		buf.WriteByte(hex[r>>12&0xf])
		buf.WriteByte(hex[r>>8&0xf])
		buf.WriteByte(hex[r>>4&0xf])
		buf.WriteByte(hex[r&0xf])
	}

	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			default:
				if c < 0x20 || c == 0x7f {
					writeU(rune(c))
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		ru, size := utf8.DecodeRuneInString(s[i:])
		if ru > 0xffff {
			r1, r2 := utf16.EncodeRune(ru)
			writeU(r1)
			writeU(r2)
		} else {
			writeU(ru)
		}
		i += size
	}
	buf.WriteByte('"')
}

// formatFloat writes f so that it reads back as a float: integral values keep
// a ".0" and large or tiny magnitudes use an exponent.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	var s string
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
