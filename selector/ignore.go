package selector

import (
	"fmt"
	"regexp"
	"strings"
)

// IgnoreEntry is either a literal selector or a pattern.
type IgnoreEntry struct {
	Literal string
	Pattern *regexp.Regexp
}

// Match reports whether entry matches original selector text. Literal must be
// equal to the text up to whitespace (runs of whitespace are the same as one
// space, whitespace around combinators does not count), pattern may match
// anywhere in the text.
func (e IgnoreEntry) Match(text string) bool {
	if e.Pattern != nil {
		return e.Pattern.MatchString(text)
	}
	return e.Literal == text || canonicalText(e.Literal) == canonicalText(text)
}

// canonicalText collapses whitespace of selector text and removes it around
// combinators and commas outside of brackets. Strings are left alone.
func canonicalText(s string) string {
	var (
		out   []byte
		space bool
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote == 0 && strings.IndexByte(" \t\n\r\f", c) >= 0 {
			space = len(out) > 0
			continue
		}
		if space && (depth > 0 || !isJoiner(c) && !isJoiner(out[len(out)-1])) {
			out = append(out, ' ')
		}
		space = false
		out = append(out, c)
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			out = append(out, s[i])
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		}
	}
	return string(out)
}

func isJoiner(c byte) bool {
	return c == '>' || c == '+' || c == '~' || c == ','
}

func (e IgnoreEntry) String() string {
	if e.Pattern != nil {
		return "/" + e.Pattern.String() + "/"
	}
	return e.Literal
}

// IgnoreList holds selectors which are always kept.
type IgnoreList []IgnoreEntry

// ParseIgnoreList builds list from textual entries, "/expr/" denotes regular
// expression, anything else is a literal selector.
func ParseIgnoreList(entries []string) (IgnoreList, error) {
	list := make(IgnoreList, 0, len(entries))
	for _, s := range entries {
		if len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
			re, err := regexp.Compile(s[1 : len(s)-1])
			if err != nil {
				return nil, fmt.Errorf("bad ignore pattern %q: %w", s, err)
			}
			list = append(list, IgnoreEntry{Pattern: re})
			continue
		}
		if s == "" {
			continue
		}
		list = append(list, IgnoreEntry{Literal: s})
	}
	return list, nil
}

// Ignored reports whether any entry matches original selector text.
func (l IgnoreList) Ignored(text string) bool {
	for _, e := range l {
		if e.Match(text) {
			return true
		}
	}
	return false
}
