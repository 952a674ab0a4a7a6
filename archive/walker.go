// Package archive builds Walk abstraction on top of "archive/zip" and
// resolves paths pointing inside zip archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip.File structure for file in archive which satisfies
// match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks the all files in the archive which satisfy match condition,
// calling walkFn for each item. Archives with entries containing path
// traversal components ("..") or absolute paths are rejected.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFile returns content of a single file from archive.
func ReadFile(archive, name string) ([]byte, error) {
	name = path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "/"))
	if !isSafePath(name) {
		return nil, fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
	}

	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := r.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q in archive %q: %w", name, archive, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// IsArchive checks if file is a zip archive. Only files with ".zip"
// extension are looked at.
func IsArchive(fname string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(fname), ".zip") {
		return false, nil
	}
	f, err := os.Open(fname)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// Split looks for the longest existing prefix of the path which is a zip
// archive and returns it together with the rest of the path (slash
// separated, relative to archive root). ok is false when existing prefix is
// not a zip archive or nothing exists.
func Split(fname string) (archive, inner string, ok bool) {
	fname = filepath.Clean(fname)
	for head := fname; ; {
		fi, err := os.Stat(head)
		if err == nil {
			if !fi.Mode().IsRegular() {
				return "", "", false
			}
			if is, err := IsArchive(head); err != nil || !is {
				return "", "", false
			}
			inner = strings.TrimPrefix(strings.TrimPrefix(fname, head), string(filepath.Separator))
			return head, filepath.ToSlash(inner), true
		}
		// does not exists - probably path in archive
		parent := filepath.Dir(head)
		if parent == head {
			return "", "", false
		}
		head = parent
	}
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
