// Package prune sequences loading of documents and stylesheets, filtering of
// the rule tree and writing of the result.
package prune

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"cssprune/css"
	"cssprune/document"
	"cssprune/filter"
	"cssprune/selector"
)

// ErrNoDocuments is returned when none of the sources produced a document.
var ErrNoDocuments = errors.New("no documents to process")

// Options describe single pruning run.
type Options struct {
	// Stylesheets, when not empty, replace stylesheets discovered in documents.
	Stylesheets []string
	// Raw is CSS text appended after all stylesheets.
	Raw string
	// Ignore entries, "/re/" for patterns.
	Ignore []string
	// CSSPath is inserted between local document directory and stylesheet
	// reference.
	CSSPath      string
	InlineStyles bool
	// ForceCharset overrides encoding of HTML documents.
	ForceCharset string
	References   map[string][]string
	Workers      int
	Fetch        document.FetchOptions
	// Stdin is used for "-" source, os.Stdin when nil.
	Stdin io.Reader
}

// Result of pruning run.
type Result struct {
	Documents   int
	Stylesheets []string
	// Input is CSS text which was parsed, empty when there was nothing to do.
	Input string
	Sheet *css.Stylesheet
	Stats filter.Stats
}

// Process loads documents from sources and filters CSS they use. Documents
// which could not be loaded are reported but do not stop processing as long
// as at least one document is available.
func Process(ctx context.Context, sources []string, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(sources) == 0 {
		return nil, errors.New("no input source has been specified")
	}
	ignore, err := selector.ParseIgnoreList(opts.Ignore)
	if err != nil {
		return nil, err
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}

	fetcher := document.NewFetcher(opts.Fetch, log)
	l := &loader{log: log, fetcher: fetcher, charset: opts.ForceCharset, stdin: opts.Stdin}

	pages, err := l.pages(ctx, sources)
	if err != nil {
		if len(pages) == 0 {
			return nil, errors.Join(ErrNoDocuments, err)
		}
		log.Warn("Some documents were not loaded", zap.Error(err))
	}
	if len(pages) == 0 {
		return nil, ErrNoDocuments
	}
	remote := 0
	for _, p := range pages {
		if p.kind.Remote() {
			remote++
		}
	}
	log.Debug("Documents loaded", zap.Int("count", len(pages)), zap.Int("remote", remote))

	res := &Result{Documents: len(pages), Stylesheets: stylesheets(pages, opts)}

	input, err := gather(ctx, fetcher, res.Stylesheets, pages, opts)
	if err != nil {
		return nil, err
	}
	if input == "" {
		log.Debug("No CSS to process")
		res.Sheet = &css.Stylesheet{}
		return res, nil
	}
	res.Input = input

	sheet, err := css.NewParser(log).Parse([]byte(input), "input")
	if err != nil {
		return nil, err
	}

	docs := make([]*html.Node, 0, len(pages))
	for _, p := range pages {
		docs = append(docs, p.doc)
	}
	start := time.Now()
	res.Sheet, res.Stats, err = filter.NewFilterer(log).Filter(docs, sheet, filter.Options{
		Ignore:     ignore,
		References: filter.DefaultReferences().Merge(opts.References),
		Workers:    opts.Workers,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Rule tree filtered", zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// stylesheets returns locations of stylesheets to read: explicitly requested
// ones or those referenced by documents, resolved and de-duplicated.
func stylesheets(pages []page, opts Options) []string {
	if len(opts.Stylesheets) > 0 {
		return opts.Stylesheets
	}
	var refs []string
	for _, p := range pages {
		for _, ref := range document.Stylesheets(p.doc) {
			refs = append(refs, document.Resolve(p.location, ref, opts.CSSPath))
		}
	}
	return document.Dedupe(refs)
}

// gather reads stylesheets and joins them with inline styles and raw CSS.
func gather(ctx context.Context, fetcher *document.Fetcher, locations []string, pages []page, opts Options) (string, error) {
	var parts []string
	for _, loc := range locations {
		data, _, err := fetcher.Fetch(ctx, loc)
		if err != nil {
			return "", fmt.Errorf("unable to read stylesheet: %w", err)
		}
		parts = append(parts, string(data))
	}
	if opts.InlineStyles {
		for _, p := range pages {
			parts = append(parts, document.InlineStyles(p.doc)...)
		}
	}
	if opts.Raw != "" {
		parts = append(parts, opts.Raw)
	}
	if strings.TrimSpace(strings.Join(parts, "")) == "" {
		return "", nil
	}
	return strings.Join(parts, " \n"), nil
}
