package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func makeZip(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(dir, name)
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		fw, err := w.Create(n)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", n, err)
		}
		if _, err := fw.Write([]byte(files[n])); err != nil {
			t.Fatalf("Failed to write content for %s: %v", n, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return zipPath
}

var siteFiles = map[string]string{
	"site/index.html":       `<html><head><link rel="stylesheet" href="css/main.css"></head></html>`,
	"site/about/index.html": `<html></html>`,
	"site/css/main.css":     `.a { color: red; }`,
	"readme.txt":            "readme",
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t, t.TempDir(), "site.zip", siteFiles)

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"site prefix", "site/", []string{"site/about/index.html", "site/css/main.css", "site/index.html"}},
		{"nested prefix", "site/about/", []string{"site/about/index.html"}},
		{"everything", "", []string{"readme.txt", "site/about/index.html", "site/css/main.css", "site/index.html"}},
		{"no match", "missing/", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.pattern, func(archive string, file *zip.File) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				visited = append(visited, file.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			slices.Sort(visited)
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited %v, want %v", visited, tt.want)
			}
		})
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := makeZip(t, t.TempDir(), "site.zip", siteFiles)
	stop := errors.New("stop")

	count := 0
	err := Walk(zipPath, "", func(string, *zip.File) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if count != 1 {
		t.Errorf("walk function called %d times, want 1", count)
	}
}

func TestWalk_Errors(t *testing.T) {
	dir := t.TempDir()

	if err := Walk(filepath.Join(dir, "missing.zip"), "", func(string, *zip.File) error { return nil }); err == nil {
		t.Error("expected error for missing archive")
	}

	bogus := filepath.Join(dir, "bogus.zip")
	if err := os.WriteFile(bogus, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Walk(bogus, "", func(string, *zip.File) error { return nil }); err == nil {
		t.Error("expected error for invalid archive")
	}

	evil := makeZip(t, dir, "evil.zip", map[string]string{"../escape.html": "x"})
	if err := Walk(evil, "", func(string, *zip.File) error { return nil }); err == nil {
		t.Error("expected error for unsafe entry")
	}
}

func TestReadFile(t *testing.T) {
	zipPath := makeZip(t, t.TempDir(), "site.zip", siteFiles)

	data, err := ReadFile(zipPath, "site/css/main.css")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != siteFiles["site/css/main.css"] {
		t.Errorf("ReadFile() = %q", data)
	}

	if data, err := ReadFile(zipPath, "/site/about/../css/main.css"); err != nil || len(data) == 0 {
		t.Errorf("ReadFile() with cleaned path = %q, %v", data, err)
	}
	if _, err := ReadFile(zipPath, "site/css/none.css"); err == nil {
		t.Error("expected error for missing entry")
	}
	if _, err := ReadFile(zipPath, "../../etc/passwd"); err == nil {
		t.Error("expected error for unsafe entry")
	}
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := makeZip(t, dir, "site.zip", siteFiles)

	txt := filepath.Join(dir, "test.txt")
	fake := filepath.Join(dir, "fake.zip")
	for _, p := range []string{txt, fake} {
		if err := os.WriteFile(p, []byte("not a zip"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		path    string
		want    bool
		wantErr bool
	}{
		{"zip", zipPath, true, false},
		{"other extension", txt, false, false},
		{"zip extension invalid content", fake, false, false},
		{"missing", filepath.Join(dir, "none.zip"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsArchive(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsArchive() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsArchive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	zipPath := makeZip(t, dir, "site.zip", siteFiles)
	plain := filepath.Join(dir, "page.html")
	if err := os.WriteFile(plain, []byte("<html></html>"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		archive string
		inner   string
		ok      bool
	}{
		{"archive itself", zipPath, zipPath, "", true},
		{"path inside archive", filepath.Join(zipPath, "site", "index.html"), zipPath, "site/index.html", true},
		{"regular file", plain, "", "", false},
		{"below regular file", filepath.Join(plain, "x"), "", "", false},
		{"directory", dir, "", "", false},
		{"missing", filepath.Join(dir, "none", "x.html"), "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive, inner, ok := Split(tt.path)
			if archive != tt.archive || inner != tt.inner || ok != tt.ok {
				t.Errorf("Split(%q) = %q, %q, %v; want %q, %q, %v", tt.path, archive, inner, ok, tt.archive, tt.inner, tt.ok)
			}
		})
	}
}
