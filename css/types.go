package css

import "strings"

// Declaration is a single property declaration. Filtering never looks inside
// declaration values except for name references, so value text is kept as
// it was written (with whitespace collapsed).
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// StyleRule is a selector list with its declaration block. Nested holds
// rules written inside the block (CSS nesting), those are style rules and
// verbatim at-rules only.
type StyleRule struct {
	Selectors    []string // top level comma separated selectors in source order
	Declarations []Declaration
	Nested       []Item
}

// GroupRule is a conditional group (@media, @supports, ...) containing
// a nested rule tree.
type GroupRule struct {
	Keyword   string // lowercase, without "@"
	Condition string
	Items     []Item
}

// NamedRule is an at-rule identified by name rather than by document
// structure (@keyframes, @font-face, @counter-style). It is kept or dropped
// as a unit.
type NamedRule struct {
	Keyword      string // lowercase, without "@", vendor prefix preserved
	Name         string // keyframes or counter-style name, font family for @font-face
	Prelude      string
	Frames       []StyleRule // keyframe blocks
	Declarations []Declaration
}

// OpaqueRule is any other at-rule. It is always retained verbatim.
type OpaqueRule struct {
	Keyword      string
	Prelude      string
	Block        bool // false for statements like @import ...;
	Declarations []Declaration
	Body         string // nested rules of the block in compact form
}

// Item is a single node of the rule tree. Exactly one field is non-nil.
type Item struct {
	Rule   *StyleRule
	Group  *GroupRule
	Named  *NamedRule
	Opaque *OpaqueRule
}

// Stylesheet is a parsed rule tree.
type Stylesheet struct {
	Items []Item
}

// Kind names the non-nil field of an item, or "" when the item is malformed
// (no field or more than one field set).
func (it Item) Kind() string {
	var kind string
	n := 0
	if it.Rule != nil {
		kind, n = "rule", n+1
	}
	if it.Group != nil {
		kind, n = "group", n+1
	}
	if it.Named != nil {
		kind, n = "named", n+1
	}
	if it.Opaque != nil {
		kind, n = "opaque", n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// Len returns number of items in the rule tree counting nested ones.
func (s *Stylesheet) Len() int {
	if s == nil {
		return 0
	}
	return countItems(s.Items)
}

func countItems(items []Item) int {
	n := len(items)
	for _, it := range items {
		switch {
		case it.Group != nil:
			n += countItems(it.Group.Items)
		case it.Rule != nil:
			n += countItems(it.Rule.Nested)
		}
	}
	return n
}

// Walk calls fn for every item in depth first order. Nested items of a group
// or a style rule are visited right after the item itself.
func (s *Stylesheet) Walk(fn func(it Item) bool) {
	if s == nil {
		return
	}
	walkItems(s.Items, fn)
}

func walkItems(items []Item, fn func(it Item) bool) bool {
	for _, it := range items {
		if !fn(it) {
			return false
		}
		if it.Group != nil && !walkItems(it.Group.Items, fn) {
			return false
		}
		if it.Rule != nil && !walkItems(it.Rule.Nested, fn) {
			return false
		}
	}
	return true
}

// IsKeyframes reports whether keyword names keyframes at-rule, possibly
// vendor prefixed.
func IsKeyframes(keyword string) bool {
	return strings.HasSuffix(strings.ToLower(keyword), "keyframes")
}

// groupKeywords are at-rules with nested rule tree.
var groupKeywords = map[string]bool{
	"media":          true,
	"supports":       true,
	"document":       true,
	"-moz-document":  true,
	"container":      true,
	"layer":          true,
	"scope":          true,
	"starting-style": true,
}

// isNamedKeyword reports at-rules kept or dropped by name reference.
func isNamedKeyword(keyword string) bool {
	return IsKeyframes(keyword) || keyword == "font-face" || keyword == "counter-style"
}
