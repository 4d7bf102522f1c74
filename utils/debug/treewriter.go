// Package debug has helpers for human readable dumps of internal structures.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Pairs writes single line with label followed by key=value pairs taken from
// kv in order. Values are quoted, odd trailing key is written without value.
func (tw TreeWriter) Pairs(depth int, label string, kv ...string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	for i := 0; i < len(kv); i += 2 {
		tw.w.WriteByte(' ')
		tw.w.WriteString(kv[i])
		if i+1 < len(kv) {
			tw.w.WriteByte('=')
			tw.w.WriteString(strconv.Quote(kv[i+1]))
		}
	}
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
