// Package source resolves command line arguments into ordered list of
// fragment sources. Arguments could name files, directories, zip archives or
// paths inside zip archives (archive.zip/some/dir).
package source

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"headfold/archive"
	"headfold/common"
)

// Source is a single fragment declaration file.
type Source struct {
	// Name is path relative to the argument source came from. For files
	// named directly it is base file name.
	Name string
	// Origin is file system path of the file or archive holding it.
	Origin string
	Kind   common.SourceKind
	Data   []byte
	// Unicode is set when data was converted to UTF-8 according to its BOM,
	// so it should not be subjected to any further charset detection.
	Unicode bool
}

// Options controls source selection.
type Options struct {
	MarkupExtensions []string
	RecordExtensions []string
	NaturalOrder     bool
	// used to decode non UTF-8 file names in archives
	CodePage encoding.Encoding
}

// kind selects source kind by file extension.
func (o *Options) kind(name string) (common.SourceKind, bool) {
	ext := filepath.Ext(name)
	if slices.ContainsFunc(o.RecordExtensions, func(e string) bool { return strings.EqualFold(e, ext) }) {
		return common.SourceKindRecord, true
	}
	if slices.ContainsFunc(o.MarkupExtensions, func(e string) bool { return strings.EqualFold(e, ext) }) {
		return common.SourceKindMarkup, true
	}
	return common.SourceKindMarkup, false
}

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}

type collector struct {
	opts    Options
	log     *zap.Logger
	sources []Source
}

// Collect processes arguments in order. Failure to process one argument does
// not prevent processing the rest, all errors are returned together with
// whatever was collected.
func Collect(ctx context.Context, args []string, opts Options, log *zap.Logger) ([]Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &collector{opts: opts, log: log}

	var errs error
	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := filepath.Abs(arg)
		if err == nil {
			err = c.process(ctx, src)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("source %q: %w", arg, err))
		}
	}
	return c.sources, errs
}

// process determines the input type (directory, archive, or single file)
// walking path up until something existing is found.
func (c *collector) process(ctx context.Context, src string) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return c.processDir(ctx, head)
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			pathIn := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			return c.processArchive(ctx, head, pathIn, "")
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		// explicitly named files are always processed, when extension is
		// unknown they are treated as markup
		kind, known := c.opts.kind(head)
		if !known {
			c.log.Debug("Unknown extension, treating as markup", zap.String("file", head))
		}
		data, err := os.ReadFile(head)
		if err != nil {
			return err
		}
		return c.add(filepath.Base(head), head, kind, data)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

func (c *collector) add(name, origin string, kind common.SourceKind, data []byte) error {
	data, converted, err := decode(data)
	if err != nil {
		return fmt.Errorf("unable to decode %s: %w", name, err)
	}
	c.sources = append(c.sources, Source{Name: name, Origin: origin, Kind: kind, Data: data, Unicode: converted})
	c.log.Debug("Source added", zap.String("name", name), zap.String("origin", origin), zap.Stringer("kind", kind))
	return nil
}

// processDir walks directory tree collecting files with known extensions and
// looking into archives.
func (c *collector) processDir(ctx context.Context, dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			c.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if c.opts.NaturalOrder {
		slices.SortStableFunc(paths, naturalCompare)
	}

	count := len(c.sources)
	defer func() {
		if len(c.sources) == count {
			c.log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	var errs error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		if kind, ok := c.opts.kind(path); ok {
			data, err := os.ReadFile(path)
			if err == nil {
				err = c.add(rel, path, kind, data)
			}
			errs = multierr.Append(errs, err)
			continue
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			c.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !isArchive {
			c.log.Debug("Skipping file, not recognized as fragment source or archive", zap.String("file", path))
			continue
		}
		if err := c.processArchive(ctx, path, "", filepath.Dir(rel)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to process archive %s: %w", rel, err))
		}
	}
	return errs
}

// processArchive collects files with known extensions inside archive under
// "pathIn". Names of collected sources are prefixed with "pathOut".
func (c *collector) processArchive(ctx context.Context, path, pathIn, pathOut string) error {
	count := 0
	err := archive.Walk(path, pathIn, archive.Options{CodePage: c.opts.CodePage, NaturalOrder: c.opts.NaturalOrder},
		func(arc, name string, f *zip.File) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			kind, ok := c.opts.kind(name)
			if !ok {
				c.log.Debug("Skipping file, not recognized as fragment source", zap.String("archive", arc), zap.String("file", name))
				return nil
			}
			data, err := readArchived(f)
			if err != nil {
				return fmt.Errorf("unable to read %s: %w", name, err)
			}
			count++
			return c.add(filepath.Join(pathOut, name), arc, kind, data)
		})
	if err != nil {
		return err
	}
	if count == 0 {
		if len(pathIn) != 0 {
			return errors.New("nothing to process in archive under " + pathIn)
		}
		c.log.Debug("Nothing to process", zap.String("archive", path))
	}
	return nil
}

func readArchived(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
