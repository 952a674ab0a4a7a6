// Package filter prunes CSS rule tree down to rules used by a set of
// documents.
package filter

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"cssprune/css"
	"cssprune/selector"
)

// ErrMalformedRule is returned when rule tree item does not have exactly one
// kind of rule set.
var ErrMalformedRule = errors.New("malformed rule tree item")

// Options control single filter invocation.
type Options struct {
	// Ignore lists selectors (and named at-rules) which are always kept.
	Ignore selector.IgnoreList
	// References maps named at-rule kinds to referencing properties,
	// DefaultReferences() when nil.
	References References
	// Workers limits number of selectors evaluated in parallel,
	// GOMAXPROCS when not positive.
	Workers int
}

// Stats describes what filter did.
type Stats struct {
	RulesIn       int // style rules
	RulesOut      int
	SelectorsIn   int
	SelectorsOut  int
	Ignored       int // selectors kept because of ignore list
	FailOpen      int // selectors kept because they could not be evaluated
	Evaluated     int // distinct selectors tested against documents
	NamedIn       int
	NamedDropped  int
	GroupsDropped int
}

// Filter returns new rule tree containing only rules used by documents.
// Input tree and documents are not modified, unchanged nodes are shared
// between input and output.
func Filter(docs []*html.Node, sheet *css.Stylesheet, opts Options) (*css.Stylesheet, error) {
	out, _, err := NewFilterer(nil).Filter(docs, sheet, opts)
	return out, err
}

// Filterer runs filter with logging.
type Filterer struct {
	log *zap.Logger
}

// NewFilterer creates filterer, nil logger disables logging.
func NewFilterer(log *zap.Logger) *Filterer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Filterer{log: log.Named("filter")}
}

// decision for a single selector text.
type decision int

const (
	undecided decision = iota
	keepIgnored
	keepFailOpen
	needsMatch
)

// run keeps state of a single invocation.
type run struct {
	log       *zap.Logger
	opts      Options
	matcher   *selector.Matcher
	decisions map[string]decision // by original selector text
	normal    map[string]string   // original -> normalized
	stats     Stats
}

// Filter returns pruned rule tree together with statistics.
func (f *Filterer) Filter(docs []*html.Node, sheet *css.Stylesheet, opts Options) (*css.Stylesheet, Stats, error) {
	if sheet == nil {
		return &css.Stylesheet{}, Stats{}, nil
	}
	if err := validate(sheet.Items, "items"); err != nil {
		return nil, Stats{}, err
	}
	if opts.References == nil {
		opts.References = DefaultReferences()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	r := &run{
		log:       f.log,
		opts:      opts,
		matcher:   selector.NewMatcher(docs),
		decisions: make(map[string]decision),
		normal:    make(map[string]string),
	}

	if err := r.evaluate(sheet.Items); err != nil {
		return nil, Stats{}, err
	}
	items := r.sweep(r.prune(sheet.Items))

	f.log.Debug("Filtered rule tree",
		zap.Int("documents", len(docs)),
		zap.Int("rules.in", r.stats.RulesIn),
		zap.Int("rules.out", r.stats.RulesOut),
		zap.Int("selectors.in", r.stats.SelectorsIn),
		zap.Int("selectors.out", r.stats.SelectorsOut),
		zap.Int("fail-open", r.stats.FailOpen),
		zap.Int("named.dropped", r.stats.NamedDropped),
	)
	return &css.Stylesheet{Items: items}, r.stats, nil
}

func validate(items []css.Item, path string) error {
	for i, it := range items {
		p := fmt.Sprintf("%s[%d]", path, i)
		if it.Kind() == "" {
			return fmt.Errorf("%w at %s", ErrMalformedRule, p)
		}
		if it.Group != nil {
			if err := validate(it.Group.Items, p+".items"); err != nil {
				return err
			}
		}
		if it.Rule != nil {
			if err := validate(it.Rule.Nested, p+".nested"); err != nil {
				return err
			}
		}
	}
	return nil
}

// evaluate decides every distinct selector of the tree, tests needed
// against documents in parallel. Results are looked up by selector text
// afterwards so order of completion does not matter.
func (r *run) evaluate(items []css.Item) error {
	var pending []string
	seen := make(map[string]bool)

	var collect func(items []css.Item)
	collect = func(items []css.Item) {
		for _, it := range items {
			switch {
			case it.Group != nil:
				collect(it.Group.Items)
			case it.Rule != nil:
				for _, sel := range it.Rule.Selectors {
					if r.decisions[sel] != undecided {
						continue
					}
					if r.opts.Ignore.Ignored(sel) {
						r.decisions[sel] = keepIgnored
						continue
					}
					norm, err := selector.Normalize(sel)
					if err != nil {
						r.log.Debug("Keeping selector", zap.String("selector", sel), zap.Error(err))
						r.decisions[sel] = keepFailOpen
						continue
					}
					r.decisions[sel] = needsMatch
					r.normal[sel] = norm
					if !seen[norm] {
						seen[norm] = true
						pending = append(pending, norm)
					}
				}
			}
		}
	}
	collect(items)
	r.stats.Evaluated = len(pending)

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for _, norm := range pending {
		g.Go(func() error {
			// errors are cached by matcher and handled when tree is rebuilt
			_, _ = r.matcher.Match(norm)
			return nil
		})
	}
	return g.Wait()
}

// used reports whether selector survives.
func (r *run) used(sel string) bool {
	switch r.decisions[sel] {
	case keepIgnored:
		r.stats.Ignored++
		return true
	case keepFailOpen:
		r.stats.FailOpen++
		return true
	}
	matched, err := r.matcher.Match(r.normal[sel])
	if err != nil {
		r.log.Debug("Keeping selector", zap.String("selector", sel), zap.Error(err))
		r.stats.FailOpen++
		return true
	}
	return matched
}

// prune rebuilds items keeping used style rules and selectors. Named rules
// are kept until sweep. Nested rules stay with their parent rule.
func (r *run) prune(items []css.Item) []css.Item {
	out := make([]css.Item, 0, len(items))
	for _, it := range items {
		switch {
		case it.Rule != nil:
			r.stats.RulesIn++
			r.stats.SelectorsIn += len(it.Rule.Selectors)
			var kept []string
			for _, sel := range it.Rule.Selectors {
				if r.used(sel) {
					kept = append(kept, sel)
				}
			}
			if len(kept) == 0 {
				continue
			}
			r.stats.RulesOut++
			r.stats.SelectorsOut += len(kept)
			if len(kept) == len(it.Rule.Selectors) {
				out = append(out, it)
				continue
			}
			out = append(out, css.Item{Rule: &css.StyleRule{Selectors: kept, Declarations: it.Rule.Declarations, Nested: it.Rule.Nested}})
		case it.Group != nil:
			nested := r.prune(it.Group.Items)
			if len(nested) == 0 {
				r.stats.GroupsDropped++
				continue
			}
			g := *it.Group
			g.Items = nested
			out = append(out, css.Item{Group: &g})
		case it.Named != nil:
			r.stats.NamedIn++
			out = append(out, it)
		default:
			out = append(out, it)
		}
	}
	return out
}

// sweep drops named rules nobody refers to. Names are collected from all
// surviving style rules of the whole tree (nested ones included) and from
// declarations of verbatim at-rules, groups emptied here are dropped.
func (r *run) sweep(items []css.Item) []css.Item {
	var rules []*css.StyleRule
	(&css.Stylesheet{Items: items}).Walk(func(it css.Item) bool {
		switch {
		case it.Rule != nil:
			rules = append(rules, it.Rule)
		case it.Opaque != nil && len(it.Opaque.Declarations) > 0:
			rules = append(rules, &css.StyleRule{Declarations: it.Opaque.Declarations})
		}
		return true
	})
	names := CollectReferencedNames(rules, r.opts.References)
	return r.sweepItems(items, names)
}

func (r *run) sweepItems(items []css.Item, names NameSet) []css.Item {
	out := make([]css.Item, 0, len(items))
	for _, it := range items {
		switch {
		case it.Named != nil:
			if names.Has(it.Named.Keyword, it.Named.Name) || r.namedIgnored(it.Named) {
				out = append(out, it)
				continue
			}
			r.log.Debug("Dropping unreferenced rule", zap.String("rule", "@"+it.Named.Keyword), zap.String("name", it.Named.Name))
			r.stats.NamedDropped++
		case it.Group != nil:
			nested := r.sweepItems(it.Group.Items, names)
			if len(nested) == 0 {
				r.stats.GroupsDropped++
				continue
			}
			if len(nested) == len(it.Group.Items) {
				out = append(out, it)
				continue
			}
			g := *it.Group
			g.Items = nested
			out = append(out, css.Item{Group: &g})
		default:
			out = append(out, it)
		}
	}
	return out
}

// namedIgnored checks ignore list against rule name and "@keyword name".
func (r *run) namedIgnored(n *css.NamedRule) bool {
	text := "@" + n.Keyword
	if n.Name != "" {
		if r.opts.Ignore.Ignored(n.Name) {
			return true
		}
		text += " " + n.Name
	}
	return r.opts.Ignore.Ignored(text)
}
