// Package debug produces human readable dumps of internal structures for
// debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxText limits length (in runes) of text values written by TextBlock.
const MaxText = 200

// TreeWriter accumulates indented lines, two spaces per level.
type TreeWriter struct {
	w     *strings.Builder
	lines int
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

// Lines returns number of lines written so far.
func (tw *TreeWriter) Lines() int {
	return tw.lines
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
	tw.lines++
}

// TextBlock writes "label: value" line with value quoted so whitespace and
// control characters stay visible. Empty values are written without quotes,
// long ones are truncated.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
	tw.lines++
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	n := utf8.RuneCountInString(raw)
	if n <= MaxText {
		return strconv.Quote(raw)
	}
	cut, count := 0, 0
	for i := range raw {
		if count == MaxText {
			cut = i
			break
		}
		count++
	}
	return strconv.Quote(raw[:cut]) + fmt.Sprintf("... (%d more)", n-MaxText)
}
