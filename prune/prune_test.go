package prune

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap/zaptest"

	"cssprune/common"
	"cssprune/css"
	"cssprune/document"
)

const (
	siteCSS = `.used { color: red; animation: spin 1s; }
.unused { color: blue; }
@keyframes spin { from { opacity: 0; } to { opacity: 1; } }
@keyframes fade { from { opacity: 0; } }`

	siteExpected = `.used { color: red; animation: spin 1s; }
@keyframes spin { from { opacity: 0; } to { opacity: 1; } }`

	sitePage = `<!DOCTYPE html>
<html><head><link rel="stylesheet" href="css/main.css"></head>
<body><div class="used">text</div></body></html>`
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func mustParse(t *testing.T, src string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(nil).Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sheet
}

func checkSheet(t *testing.T, got *css.Stylesheet, want string) {
	t.Helper()
	if diff := cmp.Diff(mustParse(t, want), got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_File(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.html": sitePage, "css/main.css": siteCSS})

	res, err := Process(context.Background(), []string{filepath.Join(dir, "index.html")}, Options{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	checkSheet(t, res.Sheet, siteExpected)

	if res.Documents != 1 {
		t.Errorf("Documents = %d, want 1", res.Documents)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "css", "main.css")}, res.Stylesheets); diff != "" {
		t.Errorf("Stylesheets mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.RulesIn != 2 || res.Stats.RulesOut != 1 || res.Stats.NamedDropped != 1 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
}

func TestProcess_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.html":      sitePage,
		"about/page.html": `<html><head><link rel="stylesheet" href="../css/main.css"></head><body><p class="unused"></p></body></html>`,
		"about/notes.txt": `<p class="never"></p>`,
		"css/main.css":    siteCSS,
	})

	res, err := Process(context.Background(), []string{dir}, Options{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Documents != 2 {
		t.Errorf("Documents = %d, want 2", res.Documents)
	}
	if len(res.Stylesheets) != 1 {
		t.Errorf("Stylesheets = %v, want single de-duplicated entry", res.Stylesheets)
	}
	checkSheet(t, res.Sheet, `.used { color: red; animation: spin 1s; }
.unused { color: blue; }
@keyframes spin { from { opacity: 0; } to { opacity: 1; } }`)
}

func TestProcess_Archive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "site.zip")
	writeZip(t, zipPath, map[string]string{
		"site/index.html":   sitePage,
		"site/css/main.css": siteCSS,
		"other/page.html":   `<p class="unused"></p>`,
	})

	tests := []struct {
		name   string
		source string
		docs   int
		want   string
	}{
		{"whole archive", zipPath, 2, siteCSS[:strings.Index(siteCSS, "@keyframes fade")]},
		{"directory in archive", filepath.Join(zipPath, "site"), 1, siteExpected},
		{"file in archive", filepath.Join(zipPath, "site", "index.html"), 1, siteExpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Process(context.Background(), []string{tt.source}, Options{}, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if res.Documents != tt.docs {
				t.Errorf("Documents = %d, want %d", res.Documents, tt.docs)
			}
			checkSheet(t, res.Sheet, tt.want)
		})
	}
}

func TestProcess_URL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/blog/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
<link rel="stylesheet" href="/css/main.css">
<link rel="stylesheet" href="extra.css">
</head><body><div class="used"></div><span class="extra"></span></body></html>`))
	})
	mux.HandleFunc("/css/main.css", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(siteCSS))
	})
	mux.HandleFunc("/blog/extra.css", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`.extra { margin: 0; } .missing { margin: 1px; }`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := Process(context.Background(), []string{srv.URL + "/blog/index.html"}, Options{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []string{srv.URL + "/css/main.css", srv.URL + "/blog/extra.css"}
	if diff := cmp.Diff(want, res.Stylesheets); diff != "" {
		t.Errorf("Stylesheets mismatch (-want +got):\n%s", diff)
	}
	checkSheet(t, res.Sheet, siteExpected+"\n.extra { margin: 0; }")
}

func TestProcess_Options(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.html":          sitePage,
		"static/css/main.css": siteCSS,
		"alt.css":             `.used { margin: 0; } .gone { margin: 0; }`,
		"inline.html":         `<html><head><style>.inline { color: red; } .nope { color: red; }</style></head><body><b class="inline raw"></b></body></html>`,
	})
	index := filepath.Join(dir, "index.html")

	tests := []struct {
		name    string
		sources []string
		opts    Options
		want    string
	}{
		{"css path", []string{index}, Options{CSSPath: "static"}, siteExpected},
		{"explicit stylesheet", []string{index}, Options{Stylesheets: []string{filepath.Join(dir, "alt.css")}}, `.used { margin: 0; }`},
		{"raw", []string{index}, Options{CSSPath: "static", Raw: `.used::after { content: "x"; } .raw { color: red; }`},
			siteExpected + `
.used::after { content: "x"; }`},
		{"ignore", []string{index}, Options{CSSPath: "static", Ignore: []string{".unused", "fade"}}, siteCSS},
		{"ignore pattern", []string{index}, Options{CSSPath: "static", Ignore: []string{"/^\\.un/"}},
			siteCSS[:strings.Index(siteCSS, "@keyframes fade")]},
		{"inline styles", []string{filepath.Join(dir, "inline.html")}, Options{InlineStyles: true}, `.inline { color: red; }`},
		{"stdin", []string{StdinSource}, Options{Stylesheets: []string{filepath.Join(dir, "alt.css")}, Stdin: strings.NewReader(`<i class="gone"></i>`)},
			`.gone { margin: 0; }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Process(context.Background(), tt.sources, tt.opts, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			checkSheet(t, res.Sheet, tt.want)
		})
	}
}

func TestProcess_NoCSS(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.html": `<html><body><p>plain</p></body></html>`})

	res, err := Process(context.Background(), []string{filepath.Join(dir, "index.html")}, Options{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Input != "" || res.Sheet == nil || len(res.Sheet.Items) != 0 {
		t.Errorf("expected empty result, got input %q, sheet %v", res.Input, res.Sheet)
	}
}

func TestProcess_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.html":  sitePage,
		"broken.html": `<link rel="stylesheet" href="missing.css">`,
	})

	t.Run("no sources", func(t *testing.T) {
		if _, err := Process(context.Background(), nil, Options{}, nil); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("no documents", func(t *testing.T) {
		_, err := Process(context.Background(), []string{filepath.Join(dir, "none.html")}, Options{}, nil)
		if !errors.Is(err, ErrNoDocuments) {
			t.Errorf("Process() error = %v, want %v", err, ErrNoDocuments)
		}
	})
	t.Run("missing stylesheet", func(t *testing.T) {
		if _, err := Process(context.Background(), []string{filepath.Join(dir, "broken.html")}, Options{}, nil); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("bad ignore pattern", func(t *testing.T) {
		if _, err := Process(context.Background(), []string{dir}, Options{Ignore: []string{"/[/"}}, nil); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Process(ctx, []string{filepath.Join(dir, "index.html")}, Options{}, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("Process() error = %v, want %v", err, context.Canceled)
		}
	})
	t.Run("partial", func(t *testing.T) {
		writeFiles(t, dir, map[string]string{"css/main.css": siteCSS})
		res, err := Process(context.Background(), []string{filepath.Join(dir, "index.html"), filepath.Join(dir, "none.html")}, Options{}, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if res.Documents != 1 {
			t.Errorf("Documents = %d, want 1", res.Documents)
		}
	})
}

func TestLoader_Kinds(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"site/index.html": sitePage, "page.html": sitePage})
	zipPath := filepath.Join(dir, "site.zip")
	writeZip(t, zipPath, map[string]string{"index.html": sitePage})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sitePage))
	}))
	defer srv.Close()

	l := &loader{log: zaptest.NewLogger(t), fetcher: document.NewFetcher(document.FetchOptions{}, nil)}
	tests := []struct {
		source string
		kind   common.SourceKind
	}{
		{filepath.Join(dir, "page.html"), common.SourceKindFile},
		{filepath.Join(dir, "site"), common.SourceKindDirectory},
		{zipPath, common.SourceKindArchive},
		{srv.URL + "/index.html", common.SourceKindUrl},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			pages, err := l.source(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("source() error = %v", err)
			}
			if len(pages) != 1 {
				t.Fatalf("got %d pages, want 1", len(pages))
			}
			if pages[0].kind != tt.kind {
				t.Errorf("kind = %v, want %v", pages[0].kind, tt.kind)
			}
			if pages[0].kind.Remote() != (tt.kind == common.SourceKindUrl) {
				t.Errorf("Remote() = %v for %v", pages[0].kind.Remote(), tt.kind)
			}
		})
	}
}
