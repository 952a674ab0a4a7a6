package debug

import (
	"strings"
	"testing"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "stylesheet", nil, "stylesheet\n"},
		{"nested", 2, "group @%s", []any{"media"}, "    group @media\n"},
		{"counts", 1, "rule: %d selectors, %d declarations", []any{2, 3}, "  rule: 2 selectors, 3 declarations\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{"plain", 1, "selector", ".a > .b", "  selector: \".a > .b\"\n"},
		{"empty", 0, "condition", "", "condition: \n"},
		{"escaped", 0, "value", "a\tb\n\"c\"", "value: \"a\\tb\\n\\\"c\\\"\"\n"},
		{"unicode", 0, "content", "«x»", "content: \"«x»\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlockTruncated(t *testing.T) {
	tw := NewTreeWriter()
	tw.TextBlock(0, "body", strings.Repeat("я", MaxText+5))

	want := "body: \"" + strings.Repeat("я", MaxText) + "\"... (5 more)\n"
	if got := tw.String(); got != want {
		t.Errorf("TextBlock() = %q, want %q", got, want)
	}
}

func TestTreeWriter_Lines(t *testing.T) {
	tw := NewTreeWriter()
	if tw.Lines() != 0 || tw.String() != "" {
		t.Fatal("new writer is not empty")
	}
	tw.Line(0, "stylesheet: %d items", 1)
	tw.TextBlock(1, "selector", ".a")
	tw.Line(1, "rule")
	if tw.Lines() != 3 {
		t.Errorf("Lines() = %d, want 3", tw.Lines())
	}
	if got := strings.Count(tw.String(), "\n"); got != 3 {
		t.Errorf("output has %d lines, want 3", got)
	}
}
