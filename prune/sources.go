package prune

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"cssprune/archive"
	"cssprune/common"
	"cssprune/document"
)

// StdinSource is source name for document read from standard input.
const StdinSource = "-"

// page is a loaded document together with location used to resolve
// stylesheet references.
type page struct {
	kind     common.SourceKind
	location string
	doc      *html.Node
}

// loader turns sources into documents.
type loader struct {
	log     *zap.Logger
	fetcher *document.Fetcher
	charset string
	stdin   io.Reader
}

func (l *loader) load(r io.Reader, contentType string) (*html.Node, error) {
	if l.charset != "" {
		return document.LoadEncoded(r, contentType, l.charset)
	}
	return document.Load(r, contentType)
}

// pages loads documents from all sources. Problems with individual documents
// are collected and do not stop processing.
func (l *loader) pages(ctx context.Context, sources []string) ([]page, error) {
	var (
		out  []page
		errs error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := l.source(ctx, src)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("source %q: %w", src, err))
		}
		out = append(out, got...)
	}
	return out, errs
}

func (l *loader) source(ctx context.Context, src string) ([]page, error) {
	switch {
	case src == StdinSource:
		return l.stdinPage()
	case document.IsURL(src):
		data, ct, err := l.fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		doc, err := l.load(bytes.NewReader(data), ct)
		if err != nil {
			return nil, err
		}
		return []page{{kind: common.SourceKindUrl, location: src, doc: doc}}, nil
	}

	src, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(src)
	if err != nil {
		// does not exists - probably path in archive
		arc, inner, ok := archive.Split(src)
		if !ok {
			return nil, fmt.Errorf("input source was not found: %w", err)
		}
		return l.archivePages(ctx, arc, inner)
	}

	switch {
	case fi.IsDir():
		return l.dirPages(ctx, src)
	case !fi.Mode().IsRegular():
		return nil, fmt.Errorf("unexpected path mode %s", fi.Mode())
	}

	isArchive, err := archive.IsArchive(src)
	if err != nil {
		return nil, fmt.Errorf("unable to check archive type: %w", err)
	}
	if isArchive {
		return l.archivePages(ctx, src, "")
	}
	p, err := l.filePage(src)
	if err != nil {
		return nil, err
	}
	return []page{p}, nil
}

func (l *loader) stdinPage() ([]page, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("unable to get working directory: %w", err)
	}
	doc, err := l.load(l.stdin, "")
	if err != nil {
		return nil, err
	}
	l.log.Debug("Loaded document", zap.String("source", "stdin"))
	// references are relative to current directory
	return []page{{kind: common.SourceKindFile, location: filepath.Join(wd, "stdin.html"), doc: doc}}, nil
}

func (l *loader) filePage(path string) (page, error) {
	f, err := os.Open(path)
	if err != nil {
		return page{}, err
	}
	defer f.Close()

	doc, err := l.load(f, "")
	if err != nil {
		return page{}, fmt.Errorf("unable to load %q: %w", path, err)
	}
	l.log.Debug("Loaded document", zap.String("file", path))
	return page{kind: common.SourceKindFile, location: path, doc: doc}, nil
}

// dirPages loads all HTML files under directory in natural order.
func (l *loader) dirPages(ctx context.Context, dir string) ([]page, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			l.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.Mode().IsRegular() && document.IsHTMLName(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		l.log.Debug("Nothing to process", zap.String("dir", dir))
		return nil, nil
	}
	slices.SortFunc(files, naturalOrder)

	var (
		out  []page
		errs error
	)
	for _, path := range files {
		p, err := l.filePage(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		p.kind = common.SourceKindDirectory
		out = append(out, p)
	}
	return out, errs
}

// archivePages loads HTML files from archive. Inner may name a single file
// or a directory inside archive.
func (l *loader) archivePages(ctx context.Context, arc, inner string) ([]page, error) {
	prefix := inner
	if prefix != "" && !document.IsHTMLName(prefix) {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}

	// zip reader is closed when Walk returns, so collect names first
	var names []string
	err := archive.Walk(arc, prefix, func(_ string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if document.IsHTMLName(f.Name) && (prefix == "" || strings.HasSuffix(prefix, "/") || f.Name == prefix) {
			names = append(names, f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to process archive: %w", err)
	}
	if len(names) == 0 {
		l.log.Debug("Nothing to process", zap.String("archive", arc), zap.String("path", inner))
		return nil, nil
	}
	slices.SortFunc(names, naturalOrder)

	var (
		out  []page
		errs error
	)
	for _, name := range names {
		data, err := archive.ReadFile(arc, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		doc, err := l.load(bytes.NewReader(data), "")
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to load %q from archive %q: %w", name, arc, err))
			continue
		}
		l.log.Debug("Loaded document", zap.String("archive", arc), zap.String("file", name))
		out = append(out, page{
			kind:     common.SourceKindArchive,
			location: filepath.Join(arc, filepath.FromSlash(name)),
			doc:      doc,
		})
	}
	return out, errs
}

func naturalOrder(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	}
	return 1
}
