package css

import (
	"io"
	"strings"

	"cssprune/common"
	"cssprune/utils/debug"
)

// String returns stylesheet text in pretty form.
func (s *Stylesheet) String() string {
	return s.Format(common.OutputStylePretty)
}

// Format serializes rule tree in requested style.
func (s *Stylesheet) Format(style common.OutputStyle) string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	w := writer{sb: &sb, compact: style == common.OutputStyleCompact}
	w.items(s.Items, 0)
	return sb.String()
}

// WriteTo writes stylesheet text in pretty form, it implements io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// formatItems returns compact text for items, used for blocks kept verbatim.
func formatItems(items []Item) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	w := writer{sb: &sb, compact: true}
	w.items(items, 0)
	return sb.String()
}

type writer struct {
	sb      *strings.Builder
	compact bool
}

func (w writer) indent(depth int) {
	if w.compact {
		return
	}
	for range depth {
		w.sb.WriteString("  ")
	}
}

func (w writer) newline() {
	if !w.compact {
		w.sb.WriteByte('\n')
	}
}

func (w writer) items(items []Item, depth int) {
	for i, it := range items {
		if i > 0 && depth == 0 {
			w.newline()
		}
		switch {
		case it.Rule != nil:
			w.rule(it.Rule, depth)
		case it.Group != nil:
			w.open("@"+it.Group.Keyword, it.Group.Condition, depth)
			w.items(it.Group.Items, depth+1)
			w.close(depth)
		case it.Named != nil:
			w.open("@"+it.Named.Keyword, it.Named.Prelude, depth)
			for j := range it.Named.Frames {
				w.rule(&it.Named.Frames[j], depth+1)
			}
			w.declarations(it.Named.Declarations, depth+1)
			w.close(depth)
		case it.Opaque != nil:
			w.opaque(it.Opaque, depth)
		}
	}
}

func (w writer) rule(r *StyleRule, depth int) {
	sep := ", "
	if w.compact {
		sep = ","
	}
	w.indent(depth)
	w.sb.WriteString(strings.Join(r.Selectors, sep))
	if !w.compact {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteByte('{')
	w.newline()
	w.declarations(r.Declarations, depth+1)
	if len(r.Nested) > 0 {
		if w.compact && len(r.Declarations) > 0 {
			w.sb.WriteByte(';')
		}
		w.items(r.Nested, depth+1)
	}
	w.close(depth)
}

func (w writer) open(keyword, prelude string, depth int) {
	w.indent(depth)
	w.sb.WriteString(keyword)
	if prelude != "" {
		w.sb.WriteByte(' ')
		w.sb.WriteString(prelude)
	}
	if !w.compact {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteByte('{')
	w.newline()
}

func (w writer) close(depth int) {
	w.indent(depth)
	w.sb.WriteByte('}')
	w.newline()
}

func (w writer) opaque(o *OpaqueRule, depth int) {
	if !o.Block {
		w.indent(depth)
		w.sb.WriteString("@" + o.Keyword)
		if o.Prelude != "" {
			w.sb.WriteByte(' ')
			w.sb.WriteString(o.Prelude)
		}
		w.sb.WriteByte(';')
		w.newline()
		return
	}
	w.open("@"+o.Keyword, o.Prelude, depth)
	w.declarations(o.Declarations, depth+1)
	if o.Body != "" {
		if w.compact && len(o.Declarations) > 0 {
			w.sb.WriteByte(';')
		}
		w.indent(depth + 1)
		w.sb.WriteString(o.Body)
		w.newline()
	}
	w.close(depth)
}

func (w writer) declarations(decls []Declaration, depth int) {
	for i, d := range decls {
		if w.compact {
			if i > 0 {
				w.sb.WriteByte(';')
			}
			w.sb.WriteString(d.Property)
			w.sb.WriteByte(':')
			w.sb.WriteString(d.Value)
			if d.Important {
				w.sb.WriteString("!important")
			}
			continue
		}
		w.indent(depth)
		w.sb.WriteString(d.Property)
		w.sb.WriteString(": ")
		w.sb.WriteString(d.Value)
		if d.Important {
			w.sb.WriteString(" !important")
		}
		w.sb.WriteByte(';')
		w.newline()
	}
}

// Dump returns human readable tree of the stylesheet for debugging.
func (s *Stylesheet) Dump() string {
	tw := debug.NewTreeWriter()
	if s == nil {
		tw.Line(0, "stylesheet: <nil>")
		return tw.String()
	}
	tw.Line(0, "stylesheet: %d items (%d total)", len(s.Items), s.Len())
	dumpItems(tw, s.Items, 1)
	return tw.String()
}

func dumpItems(tw *debug.TreeWriter, items []Item, depth int) {
	for _, it := range items {
		switch {
		case it.Rule != nil:
			dumpRule(tw, "rule", it.Rule, depth)
		case it.Group != nil:
			tw.Line(depth, "group @%s", it.Group.Keyword)
			tw.TextBlock(depth+1, "condition", it.Group.Condition)
			dumpItems(tw, it.Group.Items, depth+1)
		case it.Named != nil:
			tw.Line(depth, "named @%s", it.Named.Keyword)
			tw.TextBlock(depth+1, "name", it.Named.Name)
			for i := range it.Named.Frames {
				dumpRule(tw, "frame", &it.Named.Frames[i], depth+1)
			}
			dumpDeclarations(tw, it.Named.Declarations, depth+1)
		case it.Opaque != nil:
			tw.Line(depth, "opaque @%s block=%t", it.Opaque.Keyword, it.Opaque.Block)
			tw.TextBlock(depth+1, "prelude", it.Opaque.Prelude)
			dumpDeclarations(tw, it.Opaque.Declarations, depth+1)
			if it.Opaque.Body != "" {
				tw.TextBlock(depth+1, "body", it.Opaque.Body)
			}
		default:
			tw.Line(depth, "malformed item")
		}
	}
}

func dumpRule(tw *debug.TreeWriter, label string, r *StyleRule, depth int) {
	tw.Line(depth, "%s: %d selectors, %d declarations", label, len(r.Selectors), len(r.Declarations))
	for _, sel := range r.Selectors {
		tw.TextBlock(depth+1, "selector", sel)
	}
	dumpDeclarations(tw, r.Declarations, depth+1)
	dumpItems(tw, r.Nested, depth+1)
}

func dumpDeclarations(tw *debug.TreeWriter, decls []Declaration, depth int) {
	for _, d := range decls {
		v := d.Value
		if d.Important {
			v += " !important"
		}
		tw.TextBlock(depth, d.Property, v)
	}
}
