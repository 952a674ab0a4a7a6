// Package document loads HTML documents and finds stylesheets they use.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrNotHTML is returned for content which cannot be HTML document.
var ErrNotHTML = errors.New("not an html document")

// Load parses HTML document. Content type (may be empty) is used to detect
// document encoding together with <meta> tags and byte order marks.
func Load(r io.Reader, contentType string) (*html.Node, error) {
	data, err := readHTML(r, contentType)
	if err != nil {
		return nil, err
	}
	cr, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("unable to detect document encoding: %w", err)
	}
	doc, err := html.Parse(cr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	return doc, nil
}

// LoadEncoded parses HTML document in explicitly specified encoding (IANA
// name), ignoring whatever document says about itself.
func LoadEncoded(r io.Reader, contentType, encoding string) (*html.Node, error) {
	enc, err := ianaindex.IANA.Encoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("unknown character set %q: %w", encoding, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported character set %q", encoding)
	}
	data, err := readHTML(r, contentType)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(enc.NewDecoder().Reader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	return doc, nil
}

// readHTML reads document rejecting content which is known not to be HTML.
func readHTML(r io.Reader, contentType string) ([]byte, error) {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil && !isHTMLMediaType(mt) {
			return nil, fmt.Errorf("%w: content type %q", ErrNotHTML, mt)
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return nil, fmt.Errorf("%w: looks like %s", ErrNotHTML, kind.MIME.Value)
	}
	return data, nil
}

func isHTMLMediaType(mt string) bool {
	switch mt {
	case "text/html", "application/xhtml+xml", "text/plain", "application/octet-stream":
		return true
	}
	return strings.HasSuffix(mt, "+xml") || mt == "application/xml" || mt == "text/xml"
}

// IsHTMLName reports whether file name looks like HTML document.
func IsHTMLName(name string) bool {
	switch strings.ToLower(extension(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

func extension(name string) string {
	if i := strings.LastIndexAny(name, "./\\"); i >= 0 && name[i] == '.' {
		return name[i:]
	}
	return ""
}
