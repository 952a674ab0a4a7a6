package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into rule trees.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Comments are dropped.
// The optional source parameter identifies what's being parsed (for logging).
// Syntax errors the parser can recover from are logged, an error is returned
// only when nothing could be parsed at all.
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	var src string
	if len(source) > 0 {
		src = source[0]
	}
	if src != "" {
		p.log.Debug("Parsing CSS", zap.String("source", src), zap.Int("bytes", len(data)))
	}

	r := newReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), false)
	sheet := &Stylesheet{Items: r.items(false)}

	for _, err := range r.errs {
		p.log.Warn("CSS syntax error", zap.String("source", src), zap.Error(err))
	}
	if len(sheet.Items) == 0 && len(r.errs) > 0 {
		if src != "" {
			return nil, fmt.Errorf("unable to parse css from %s: %w", src, multierr.Combine(r.errs...))
		}
		return nil, fmt.Errorf("unable to parse css: %w", multierr.Combine(r.errs...))
	}
	return sheet, nil
}

// reader walks grammar produced by tdewolff parser building rule tree.
type reader struct {
	p       *css.Parser
	src     []byte
	end     int // source offset past the last element
	pending *element
	errs    []error
}

// element is a single grammar element returned by the parser, start and end
// delimit source text it was produced from.
type element struct {
	gt         css.GrammarType
	tt         css.TokenType
	data       []byte
	values     []css.Token
	start, end int
}

func (r *reader) next() element {
	if r.pending != nil {
		el := *r.pending
		r.pending = nil
		return el
	}
	gt, tt, data := r.p.Next()
	el := element{gt: gt, tt: tt, data: data, values: r.p.Values(), start: r.end, end: r.p.Offset()}
	r.end = el.end
	return el
}

func newReader(data []byte, inline bool) *reader {
	return &reader{p: css.NewParser(parse.NewInput(bytes.NewReader(data)), inline), src: data}
}

// failed records syntax error and reports whether input is exhausted.
func (r *reader) failed() bool {
	err := r.p.Err()
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	r.errs = append(r.errs, err)
	return false
}

// items reads rule list until end of enclosing block (when nested) or end of
// input.
func (r *reader) items(nested bool) []Item {
	var (
		items     []Item
		selectors []string
	)
	for {
		el := r.next()
		switch el.gt {
		case css.ErrorGrammar:
			if r.failed() {
				return items
			}
			selectors = nil
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			if nested {
				return items
			}
		case css.QualifiedRuleGrammar:
			selectors = append(selectors, splitSelectors(r.selectorText(el))...)
		case css.BeginRulesetGrammar:
			selectors = append(selectors, splitSelectors(r.selectorText(el))...)
			items = append(items, Item{Rule: r.styleRule(selectors, el)})
			selectors = nil
		case css.AtRuleGrammar:
			items = append(items, Item{Opaque: &OpaqueRule{
				Keyword: atKeyword(el.data),
				Prelude: tokensText(nil, el.values),
			}})
		case css.BeginAtRuleGrammar:
			items = append(items, r.atRule(atKeyword(el.data), tokensText(nil, el.values)))
		}
	}
}

// atRule reads block of at-rule and classifies it.
func (r *reader) atRule(keyword, prelude string) Item {
	switch {
	case groupKeywords[keyword]:
		return Item{Group: &GroupRule{Keyword: keyword, Condition: prelude, Items: r.nestedItems()}}

	case isNamedKeyword(keyword):
		named := &NamedRule{Keyword: keyword, Prelude: prelude}
		if keyword == "font-face" {
			named.Declarations = r.blockDeclarations()
			for _, d := range named.Declarations {
				if d.Property == "font-family" {
					named.Name = unquote(d.Value)
				}
			}
			return Item{Named: named}
		}
		named.Name = unquote(prelude)
		if IsKeyframes(keyword) {
			for _, it := range r.nestedItems() {
				if it.Rule != nil {
					named.Frames = append(named.Frames, *it.Rule)
				}
			}
			return Item{Named: named}
		}
		named.Declarations = r.blockDeclarations()
		return Item{Named: named}

	default:
		opaque := &OpaqueRule{Keyword: keyword, Prelude: prelude, Block: true}
		opaque.Declarations, opaque.Body = r.opaqueBlock()
		return Item{Opaque: opaque}
	}
}

// nestedItems reads rule list inside at-rule block. Blocks of at-rules
// the underlying parser does not know are delivered token by token, those
// are collected and parsed separately.
func (r *reader) nestedItems() []Item {
	raw, tokenized := r.rawBlock()
	if !tokenized {
		return r.items(true)
	}
	sub := newReader(raw, false)
	items := sub.items(false)
	r.errs = append(r.errs, sub.errs...)
	return items
}

// blockDeclarations reads declaration list of at-rule block.
func (r *reader) blockDeclarations() []Declaration {
	raw, tokenized := r.rawBlock()
	if !tokenized {
		return r.declarations(css.EndAtRuleGrammar)
	}
	return r.inlineDeclarations(raw)
}

// opaqueBlock reads block of at-rule kept verbatim: declarations if block
// consists of declarations only, nested rules are kept in compact form.
func (r *reader) opaqueBlock() ([]Declaration, string) {
	raw, tokenized := r.rawBlock()
	if tokenized {
		if bytes.IndexByte(raw, '{') < 0 {
			return r.inlineDeclarations(raw), ""
		}
		sub := newReader(raw, false)
		items := sub.items(false)
		r.errs = append(r.errs, sub.errs...)
		return nil, formatItems(items)
	}

	var (
		decls  []Declaration
		nested []Item
	)
	for {
		el := r.next()
		switch el.gt {
		case css.ErrorGrammar:
			if r.failed() {
				return decls, formatItems(nested)
			}
		case css.EndAtRuleGrammar:
			return decls, formatItems(nested)
		case css.DeclarationGrammar:
			decls = append(decls, declaration(string(el.data), el.values))
		case css.CustomPropertyGrammar:
			decls = append(decls, customProperty(string(el.data), el.values))
		case css.AtRuleGrammar:
			nested = append(nested, Item{Opaque: &OpaqueRule{Keyword: atKeyword(el.data), Prelude: tokensText(nil, el.values)}})
		case css.BeginAtRuleGrammar:
			nested = append(nested, r.atRule(atKeyword(el.data), tokensText(nil, el.values)))
		case css.BeginRulesetGrammar:
			nested = append(nested, Item{Rule: r.styleRule(splitSelectors(r.selectorText(el)), el)})
		}
	}
}

// rawBlock peeks at the first grammar element of the block. When parser
// handles block as unknown at-rule it returns tokens one by one, in which case
// the whole block text is collected and returned with tokenized set.
// Otherwise nothing is consumed.
func (r *reader) rawBlock() ([]byte, bool) {
	el := r.next()
	if el.gt != css.TokenGrammar {
		r.pending = &el
		return nil, false
	}
	var buf bytes.Buffer
	for ; el.gt == css.TokenGrammar; el = r.next() {
		if el.tt != css.CommentToken {
			buf.Write(el.data)
		}
	}
	if el.gt == css.ErrorGrammar {
		r.failed()
	}
	return buf.Bytes(), true
}

// styleRule reads block of the style rule started by el. Blocks holding
// nested rules are split from source text, the underlying parser only
// recognizes nested selectors starting with an identifier or a delimiter.
func (r *reader) styleRule(selectors []string, el element) *StyleRule {
	rule := &StyleRule{Selectors: selectors}
	if el.end > len(r.src) {
		rule.Declarations = r.declarations(css.EndRulesetGrammar)
		return rule
	}
	end := blockEnd(r.src, el.end)
	if !hasBlock(r.src[el.end:end]) {
		rule.Declarations = r.declarations(css.EndRulesetGrammar)
		return rule
	}
	rule.Declarations, rule.Nested = r.nestedBody(r.src[el.end:end])
	r.skipTo(end)
	return rule
}

// skipTo consumes grammar up to the end of block closed at source offset end.
func (r *reader) skipTo(end int) {
	for {
		el := r.next()
		switch el.gt {
		case css.ErrorGrammar:
			if err := r.p.Err(); err == nil || errors.Is(err, io.EOF) {
				return
			}
		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			if el.end > end {
				return
			}
		}
	}
}

// nestedBody parses block of a style rule with nested rules. Declarations
// are gathered in front of the nested rules, nested at-rules are kept
// verbatim.
func (r *reader) nestedBody(body []byte) ([]Declaration, []Item) {
	var (
		decls  bytes.Buffer
		nested []Item
	)
	for _, st := range splitStatements(body) {
		text := sourceText(st.prelude)
		switch {
		case !st.block && text == "":
		case !st.block && strings.HasPrefix(text, "@"):
			keyword, prelude := splitAtRule(text)
			nested = append(nested, Item{Opaque: &OpaqueRule{Keyword: keyword, Prelude: prelude}})
		case !st.block:
			decls.Write(st.prelude)
			decls.WriteByte(';')
		case strings.HasPrefix(text, "@"):
			keyword, prelude := splitAtRule(text)
			o := &OpaqueRule{Keyword: keyword, Prelude: prelude, Block: true}
			var items []Item
			o.Declarations, items = r.nestedBody(st.body)
			o.Body = formatItems(items)
			nested = append(nested, Item{Opaque: o})
		default:
			rule := &StyleRule{Selectors: splitSelectors(text)}
			rule.Declarations, rule.Nested = r.nestedBody(st.body)
			nested = append(nested, Item{Rule: rule})
		}
	}
	if decls.Len() == 0 {
		return nil, nested
	}
	return r.inlineDeclarations(decls.Bytes()), nested
}

// selectorText returns selector list of a ruleset as it was written with
// comments removed and whitespace collapsed. The underlying parser drops
// whitespace around combinators, its tokens are used only when source
// offsets are not usable.
func (r *reader) selectorText(el element) string {
	if el.start < el.end && el.end <= len(r.src) && r.src[el.end-1] == '{' {
		if text := sourceText(r.src[el.start : el.end-1]); text != "" {
			return text
		}
	}
	return tokensText(el.data, el.values)
}

// declarations reads declarations until end grammar of the current block.
// Nested blocks of at-rules are skipped.
func (r *reader) declarations(end css.GrammarType) []Declaration {
	var decls []Declaration
	for depth := 0; ; {
		el := r.next()
		switch el.gt {
		case css.ErrorGrammar:
			if r.failed() {
				return decls
			}
		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			depth++
		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			if depth == 0 {
				if el.gt != end {
					r.errs = append(r.errs, errors.New("unexpected end of block"))
				}
				return decls
			}
			depth--
		case css.DeclarationGrammar:
			if depth == 0 {
				decls = append(decls, declaration(string(el.data), el.values))
			}
		case css.CustomPropertyGrammar:
			if depth == 0 {
				decls = append(decls, customProperty(string(el.data), el.values))
			}
		}
	}
}

func (r *reader) inlineDeclarations(raw []byte) []Declaration {
	sub := newReader(raw, true)
	var decls []Declaration
	for {
		el := sub.next()
		switch el.gt {
		case css.ErrorGrammar:
			if sub.failed() {
				r.errs = append(r.errs, sub.errs...)
				return decls
			}
		case css.DeclarationGrammar:
			decls = append(decls, declaration(string(el.data), el.values))
		case css.CustomPropertyGrammar:
			decls = append(decls, customProperty(string(el.data), el.values))
		}
	}
}

func declaration(property string, values []css.Token) Declaration {
	d := Declaration{Property: strings.ToLower(property)}

	// trailing "! important"
	end := len(values)
	for end > 0 && values[end-1].TokenType == css.WhitespaceToken {
		end--
	}
	if end > 0 && values[end-1].TokenType == css.IdentToken && strings.EqualFold(string(values[end-1].Data), "important") {
		i := end - 1
		for i > 0 && values[i-1].TokenType == css.WhitespaceToken {
			i--
		}
		if i > 0 && values[i-1].TokenType == css.DelimToken && string(values[i-1].Data) == "!" {
			d.Important = true
			end = i - 1
		}
	}
	d.Value = tokensText(nil, values[:end])
	return d
}

func customProperty(property string, values []css.Token) Declaration {
	var sb strings.Builder
	for _, v := range values {
		sb.Write(v.Data)
	}
	return Declaration{Property: property, Value: strings.TrimSpace(sb.String())}
}

// tokensText reconstructs text of grammar element from its data and values
// with runs of whitespace collapsed to a single space.
func tokensText(data []byte, values []css.Token) string {
	var sb strings.Builder
	space := false
	write := func(tt css.TokenType, b []byte) {
		switch tt {
		case css.WhitespaceToken:
			space = sb.Len() > 0
			return
		case css.CommentToken:
			return
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(b)
	}
	if len(data) > 0 && (len(values) == 0 || !bytes.Equal(values[0].Data, data)) {
		write(css.IdentToken, data)
	}
	for _, v := range values {
		write(v.TokenType, v.Data)
	}
	return sb.String()
}

// splitSelectors splits selector list at top level commas.
func splitSelectors(text string) []string {
	var (
		out   []string
		depth int
		start int
		quote byte
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\\':
			i++
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// sourceText returns text with comments removed, runs of whitespace
// collapsed to a single space and leftovers of preceding statements
// (semicolons, CDO and CDC) dropped.
func sourceText(b []byte) string {
	var sb strings.Builder
	space := false
	l := css.NewLexer(parse.NewInputString(string(b)))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return sb.String()
		case css.WhitespaceToken:
			space = sb.Len() > 0
			continue
		case css.CommentToken:
			continue
		case css.SemicolonToken, css.CDOToken, css.CDCToken:
			if sb.Len() == 0 {
				continue
			}
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(data)
	}
}

// splitAtRule splits "@keyword prelude" text.
func splitAtRule(text string) (string, string) {
	i := strings.IndexAny(text, " (\"'")
	if i < 0 {
		return atKeyword([]byte(text)), ""
	}
	return atKeyword([]byte(text[:i])), strings.TrimSpace(text[i:])
}

func atKeyword(data []byte) string {
	return strings.ToLower(strings.TrimPrefix(string(data), "@"))
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
