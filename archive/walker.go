// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/encoding"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk, name is the file path inside archive (decoded when necessary) and
// file is the zip.File structure for it. If an error is returned, processing
// stops.
type WalkFunc func(archive, name string, file *zip.File) error

// Options controls archive traversal.
type Options struct {
	// Zip "standard" does not define file name encoding, names not flagged
	// as UTF-8 are decoded with CodePage when it is set.
	CodePage encoding.Encoding
	// Visit files sorted by name in natural order rather than in order of
	// appearance in the central directory.
	NaturalOrder bool
}

type entry struct {
	name string
	file *zip.File
}

// Walk walks the all files in the archive with names starting with prefix,
// calling walkFn for each item. Archives with path traversal components
// ("..") or absolute paths are rejected to prevent Zip Slip attacks.
func Walk(archive, prefix string, opts Options, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	entries := make([]entry, 0, len(r.File))
	for _, f := range r.File {
		name := decodeName(f, opts.CodePage)
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, prefix) {
			entries = append(entries, entry{name: name, file: f})
		}
	}
	if opts.NaturalOrder {
		slices.SortStableFunc(entries, func(a, b entry) int {
			switch {
			case natural.Less(a.name, b.name):
				return -1
			case natural.Less(b.name, a.name):
				return 1
			}
			return 0
		})
	}

	for _, e := range entries {
		if err := walkFn(archive, e.name, e.file); err != nil {
			return err
		}
	}
	return nil
}

func decodeName(f *zip.File, cp encoding.Encoding) string {
	name := f.FileHeader.Name
	if cp == nil || !f.FileHeader.NonUTF8 {
		return name
	}
	if n, err := cp.NewDecoder().String(name); err == nil {
		return n
	}
	return name
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
