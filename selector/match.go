package selector

import (
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Matches reports whether normalized selector matches at least one node of
// the document. Selector which could not be compiled is reported as error.
func Matches(doc *html.Node, text string) (bool, error) {
	sel, err := compile(text)
	if err != nil {
		return false, err
	}
	return doc != nil && sel.MatchFirst(doc) != nil, nil
}

func compile(text string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(text)
	if err != nil {
		return nil, fmt.Errorf("unable to compile selector %q: %w", text, err)
	}
	return sel, nil
}

type result struct {
	matched bool
	err     error
}

// Matcher tests normalized selectors against a fixed list of documents
// remembering results. It is safe for concurrent use.
type Matcher struct {
	docs []*html.Node

	mu    sync.Mutex
	cache map[string]result
}

// NewMatcher returns matcher for documents. Documents are never modified.
func NewMatcher(docs []*html.Node) *Matcher {
	return &Matcher{docs: docs, cache: make(map[string]result)}
}

// Match reports whether normalized selector matches in any of the documents.
func (m *Matcher) Match(text string) (bool, error) {
	m.mu.Lock()
	r, ok := m.cache[text]
	m.mu.Unlock()
	if ok {
		return r.matched, r.err
	}

	r = m.evaluate(text)

	m.mu.Lock()
	m.cache[text] = r
	m.mu.Unlock()
	return r.matched, r.err
}

func (m *Matcher) evaluate(text string) result {
	sel, err := compile(text)
	if err != nil {
		return result{err: err}
	}
	for _, doc := range m.docs {
		if doc != nil && sel.MatchFirst(doc) != nil {
			return result{matched: true}
		}
	}
	return result{}
}

// Cached returns number of selectors evaluated so far.
func (m *Matcher) Cached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}
