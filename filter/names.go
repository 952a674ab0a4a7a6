package filter

import (
	"maps"
	"slices"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	csstree "cssprune/css"
)

// Kinds of named at-rules.
const (
	KindKeyframes    = "keyframes"
	KindFontFace     = "font-face"
	KindCounterStyle = "counter-style"
)

// KindOf returns kind of named at-rule by its keyword, vendor prefixed
// keyframes are all of the same kind.
func KindOf(keyword string) string {
	if csstree.IsKeyframes(keyword) {
		return KindKeyframes
	}
	return strings.ToLower(keyword)
}

// References maps kind of named at-rule to properties which refer to it by
// name.
type References map[string][]string

// DefaultReferences returns built-in reference table.
func DefaultReferences() References {
	return References{
		KindKeyframes: {
			"animation-name", "animation",
			"-webkit-animation-name", "-webkit-animation",
			"-moz-animation-name", "-moz-animation",
			"-o-animation-name", "-o-animation",
		},
		KindFontFace:     {"font-family", "font"},
		KindCounterStyle: {"list-style-type", "list-style", "system"},
	}
}

// Merge returns new table with additional properties added to the kinds.
func (r References) Merge(extra map[string][]string) References {
	out := make(References, len(r)+len(extra))
	for k, v := range r {
		out[k] = slices.Clone(v)
	}
	for k, props := range extra {
		k = KindOf(k)
		for _, p := range props {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" && !slices.Contains(out[k], p) {
				out[k] = append(out[k], p)
			}
		}
	}
	return out
}

// byProperty inverts reference table.
func (r References) byProperty() map[string][]string {
	out := make(map[string][]string)
	for _, kind := range slices.Sorted(maps.Keys(r)) {
		for _, p := range r[kind] {
			out[strings.ToLower(p)] = append(out[strings.ToLower(p)], kind)
		}
	}
	return out
}

// animationKeywords never name keyframes.
var animationKeywords = map[string]bool{
	"none": true, "initial": true, "inherit": true, "unset": true, "revert": true, "revert-layer": true,
	"ease": true, "ease-in": true, "ease-out": true, "ease-in-out": true, "linear": true,
	"step-start": true, "step-end": true, "infinite": true,
	"normal": true, "reverse": true, "alternate": true, "alternate-reverse": true,
	"forwards": true, "backwards": true, "both": true, "running": true, "paused": true,
}

// NameSet holds names referenced from declarations per kind of named at-rule.
type NameSet map[string]map[string]struct{}

func (s NameSet) add(kind, name string) {
	if name == "" {
		return
	}
	if kind == KindFontFace {
		name = strings.ToLower(name)
	}
	if s[kind] == nil {
		s[kind] = make(map[string]struct{})
	}
	s[kind][name] = struct{}{}
}

// Has reports whether name of the given kind is referenced. Font family
// names are compared case-insensitively.
func (s NameSet) Has(kind, name string) bool {
	kind = KindOf(kind)
	if kind == KindFontFace {
		name = strings.ToLower(name)
	}
	_, ok := s[kind][name]
	return ok
}

// Len returns number of referenced names of all kinds.
func (s NameSet) Len() int {
	n := 0
	for _, names := range s {
		n += len(names)
	}
	return n
}

// CollectReferencedNames scans declarations of rules for names referenced by
// properties from refs. Values reaching names through var() are followed to
// custom properties declared by the rules.
func CollectReferencedNames(rules []*csstree.StyleRule, refs References) NameSet {
	byProp := refs.byProperty()
	custom := make(map[string][]string)
	for _, r := range rules {
		for _, d := range r.Declarations {
			if strings.HasPrefix(d.Property, "--") {
				custom[d.Property] = append(custom[d.Property], d.Value)
			}
		}
	}

	names := make(NameSet)
	for _, r := range rules {
		for _, d := range r.Declarations {
			kinds, ok := byProp[d.Property]
			if !ok {
				continue
			}
			var candidates []string
			for _, v := range expandVars(d.Value, custom) {
				candidates = append(candidates, valueNames(v)...)
			}
			for _, kind := range kinds {
				for _, c := range candidates {
					if kind == KindKeyframes && animationKeywords[strings.ToLower(c)] {
						continue
					}
					names.add(kind, c)
				}
			}
		}
	}
	return names
}

// expandVars returns value followed by every value it may take through
// var() references: values of referenced custom properties and fallbacks,
// recursively. Each custom property is expanded once.
func expandVars(value string, custom map[string][]string) []string {
	out := []string{value}
	seen := make(map[string]bool)
	for i := 0; i < len(out); i++ {
		refs, fallbacks := varRefs(out[i])
		out = append(out, fallbacks...)
		for _, name := range refs {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, custom[name]...)
		}
	}
	return out
}

// varRefs returns custom property names referred to by var() calls in value
// together with fallback values of those calls. Calls nested in a fallback
// are left for the fallback itself.
func varRefs(value string) (refs, fallbacks []string) {
	type call struct {
		isVar    bool
		comma    bool
		fallback strings.Builder
	}
	var (
		stack     []*call
		collector *call // outermost var call past its comma
	)
	l := css.NewLexer(parse.NewInputString(value))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		if collector != nil && (tt != css.RightParenthesisToken || stack[len(stack)-1] != collector) {
			collector.fallback.Write(data)
			switch tt {
			case css.FunctionToken, css.LeftParenthesisToken:
				stack = append(stack, &call{})
			case css.RightParenthesisToken:
				stack = stack[:len(stack)-1]
			}
			continue
		}
		switch tt {
		case css.FunctionToken:
			stack = append(stack, &call{isVar: strings.EqualFold(string(data), "var(")})
		case css.LeftParenthesisToken:
			stack = append(stack, &call{})
		case css.RightParenthesisToken:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top == collector {
				if fb := strings.TrimSpace(top.fallback.String()); fb != "" {
					fallbacks = append(fallbacks, fb)
				}
				collector = nil
			}
		case css.CustomPropertyNameToken, css.IdentToken:
			if n := len(stack); n > 0 && stack[n-1].isVar && !stack[n-1].comma && strings.HasPrefix(string(data), "--") {
				refs = append(refs, string(data))
			}
		case css.CommaToken:
			if n := len(stack); n > 0 && stack[n-1].isVar && !stack[n-1].comma {
				stack[n-1].comma = true
				collector = stack[n-1]
			}
		}
	}
	if collector != nil {
		if fb := strings.TrimSpace(collector.fallback.String()); fb != "" {
			fallbacks = append(fallbacks, fb)
		}
	}
	return refs, fallbacks
}

// valueNames returns identifiers and strings from comma separated value.
// Consecutive identifiers of one list item are also returned joined, so
// unquoted multi word family names are found. Function arguments are skipped.
func valueNames(value string) []string {
	var (
		out   []string
		run   []string
		depth int
	)
	flush := func() {
		if len(run) > 1 {
			out = append(out, strings.Join(run, " "))
		}
		run = run[:0]
	}

	l := css.NewLexer(parse.NewInputString(value))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		switch tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
			flush()
			continue
		case css.RightParenthesisToken:
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 {
			continue
		}
		switch tt {
		case css.IdentToken:
			out = append(out, string(data))
			run = append(run, string(data))
		case css.StringToken:
			flush()
			out = append(out, unquote(string(data)))
		case css.WhitespaceToken, css.CommentToken:
		default:
			flush()
		}
	}
	flush()
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
