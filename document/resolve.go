package document

import (
	"net/url"
	"path/filepath"
	"strings"
)

// IsURL reports whether location is http(s) URL.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Resolve makes stylesheet reference found in document at base location
// usable for fetching. For remote documents absolute references are used as
// is, host relative ones are joined with scheme and host, others with
// directory of the document path. For local documents reference is joined
// with document directory and cssPath.
func Resolve(base, ref, cssPath string) string {
	if IsURL(ref) {
		return ref
	}
	if IsURL(base) {
		u, err := url.Parse(base)
		if err != nil {
			return ref
		}
		switch {
		case strings.HasPrefix(ref, "//"):
			return u.Scheme + ":" + ref
		case strings.HasPrefix(ref, "/"):
			return u.Scheme + "://" + u.Host + ref
		}
		dir := u.Path[:strings.LastIndex(u.Path, "/")+1]
		if dir == "" {
			dir = "/"
		}
		return u.Scheme + "://" + u.Host + dir + ref
	}

	if strings.HasPrefix(ref, "file:") {
		if u, err := url.Parse(ref); err == nil {
			return filepath.FromSlash(u.Path)
		}
	}
	// query and fragment mean nothing for local files
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(cssPath), filepath.FromSlash(ref))
}

// Dedupe removes repeated locations keeping the last occurrence of each, in
// order of those last occurrences.
func Dedupe(locations []string) []string {
	last := make(map[string]int, len(locations))
	for i, l := range locations {
		last[l] = i
	}
	out := make([]string, 0, len(last))
	for i, l := range locations {
		if last[l] == i {
			out = append(out, l)
		}
	}
	return out
}

