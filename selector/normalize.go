// Package selector prepares CSS selectors for testing against static
// documents and decides which selectors are force-kept.
package selector

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var (
	// ErrUnparsable is returned for selector text that could not be tokenized
	// or has unbalanced brackets.
	ErrUnparsable = errors.New("unparsable selector")
	// ErrUnsupportedPseudo is returned for pseudo-classes normalization does
	// not know about.
	ErrUnsupportedPseudo = errors.New("unsupported pseudo selector")
)

type token struct {
	tt   css.TokenType
	data string
}

// Normalize removes pseudo-elements and dynamic pseudo-classes from selector
// so the rest can be tested against static document. Structural
// pseudo-classes are kept. Compound selector left empty after removal is
// replaced with "*". Any error means selector must be treated as used.
func Normalize(text string) (string, error) {
	toks, err := tokenize(text)
	if err != nil {
		return "", err
	}
	out, _, err := normalizeTokens(toks)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", ErrUnparsable
	}
	return out, nil
}

func tokenize(text string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(text))

	var (
		toks  []token
		depth int
	)
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrUnparsable, err)
			}
			if depth != 0 {
				return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrUnparsable, text)
			}
			return toks, nil
		case css.BadStringToken, css.BadURLToken, css.LeftBraceToken, css.RightBraceToken, css.SemicolonToken:
			return nil, fmt.Errorf("%w: unexpected %q", ErrUnparsable, data)
		case css.CommentToken:
			continue
		case css.LeftParenthesisToken, css.LeftBracketToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth--; depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrUnparsable, text)
			}
		}
		toks = append(toks, token{tt: tt, data: string(data)})
	}
}

// closing returns index of the token closing the block opened at toks[open].
func closing(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].tt {
		case css.LeftParenthesisToken, css.LeftBracketToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth--; depth == 0 {
				return i
			}
		}
	}
	return len(toks) - 1
}

func isCombinator(t token) bool {
	switch t.tt {
	case css.WhitespaceToken, css.CommaToken, css.ColumnToken:
		return true
	case css.DelimToken:
		return t.data == ">" || t.data == "+" || t.data == "~"
	}
	return false
}

// normalizeTokens rebuilds selector (or selector list) text from tokens and
// reports whether anything was removed.
func normalizeTokens(toks []token) (string, bool, error) {
	var (
		sb       strings.Builder
		changed  bool
		content  bool // current compound has something left
		stripped bool // something was removed from current compound
	)
	endCompound := func() {
		if stripped && !content {
			sb.WriteByte('*')
		}
		content, stripped = false, false
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]

		if isCombinator(t) {
			endCompound()
			if t.tt == css.WhitespaceToken {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(t.data)
			}
			continue
		}

		switch t.tt {
		case css.LeftBracketToken:
			end := closing(toks, i)
			for _, a := range toks[i : end+1] {
				sb.WriteString(a.data)
			}
			i, content = end, true
			continue
		case css.ColonToken:
		default:
			sb.WriteString(t.data)
			content = true
			continue
		}

		// pseudo-element
		if i+1 < len(toks) && toks[i+1].tt == css.ColonToken {
			if i+2 >= len(toks) {
				return "", false, fmt.Errorf("%w: dangling pseudo-element", ErrUnparsable)
			}
			i += 2
			if toks[i].tt == css.FunctionToken {
				i = closing(toks, i)
			}
			changed, stripped = true, true
			continue
		}
		if i+1 >= len(toks) {
			return "", false, fmt.Errorf("%w: dangling colon", ErrUnparsable)
		}

		i++
		name := toks[i]
		switch name.tt {
		case css.IdentToken:
			switch Classify(name.data) {
			case PseudoDynamic, PseudoElement:
				changed, stripped = true, true
			case PseudoStructural:
				sb.WriteString(":" + name.data)
				content = true
			default:
				return "", false, fmt.Errorf("%w: :%s", ErrUnsupportedPseudo, name.data)
			}

		case css.FunctionToken:
			end := closing(toks, i)
			args := toks[i+1 : end]
			fn := strings.ToLower(name.data)
			if Classify(fn) != PseudoStructural {
				return "", false, fmt.Errorf("%w: :%s)", ErrUnsupportedPseudo, name.data)
			}
			switch fn {
			case "not(":
				arg, argChanged, err := normalizeTokens(args)
				if err != nil {
					return "", false, err
				}
				if argChanged {
					// stripping inside negation would narrow the match
					changed, stripped = true, true
				} else {
					sb.WriteString(":" + name.data + arg + ")")
					content = true
				}
			case "has(":
				arg, argChanged, err := normalizeTokens(args)
				if err != nil {
					return "", false, err
				}
				changed = changed || argChanged
				sb.WriteString(":" + name.data + arg + ")")
				content = true
			default:
				sb.WriteString(":" + name.data)
				for _, a := range args {
					sb.WriteString(a.data)
				}
				sb.WriteByte(')')
				content = true
			}
			i = end

		default:
			return "", false, fmt.Errorf("%w: unexpected %q after colon", ErrUnparsable, name.data)
		}
	}
	endCompound()

	return strings.TrimSpace(sb.String()), changed, nil
}
