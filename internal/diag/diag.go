// Package diag pretty-prints parse errors with the offending source line and
// a caret under the failing column.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mcncl/jsonext/internal/errors"
)

var (
	errorColor  = color.New(color.FgRed, color.Bold)
	gutterColor = color.New(color.FgBlue)
	caretColor  = color.New(color.FgRed)
)

// Fprint writes perr to w:
//
//	input.jsonx:1:10: Expecting ',' delimiter
//	  1 | {"a": [1 2]}
//	    |          ^
//
// name may be empty, in which case the position prefix omits it.
func Fprint(w io.Writer, name, text string, perr *errors.ParseError) error {
	pos := fmt.Sprintf("%d:%d", perr.Line, perr.Column)
	if name != "" {
		pos = name + ":" + pos
	}
	if _, err := errorColor.Fprintf(w, "%s: %s\n", pos, perr.Msg); err != nil {
		return err
	}

	line := sourceLine(text, perr.Line)
	num := fmt.Sprint(perr.Line)
	pad := strings.Repeat(" ", len(num))

	if _, err := gutterColor.Fprintf(w, "  %s | ", num); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if _, err := gutterColor.Fprintf(w, "  %s | ", pad); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, caretIndent(line, perr.Column)); err != nil {
		return err
	}
	_, err := caretColor.Fprintln(w, "^")
	return err
}

// sourceLine returns the 1-based line n of text without its newline.
func sourceLine(text string, n int) string {
	lines := strings.Split(text, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[n-1], "\r")
}

// caretIndent returns the whitespace that puts a caret under column col,
// keeping tabs so the caret lines up with tab-indented source.
func caretIndent(line string, col int) string {
	var b strings.Builder
	i := 1
	for _, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		i++
	}
	for ; i < col; i++ {
		b.WriteByte(' ')
	}
	return b.String()
}
