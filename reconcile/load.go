package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	yaml "gopkg.in/yaml.v3"

	"headfold/common"
	"headfold/head"
	"headfold/markup"
	"headfold/source"
)

// Fragment is a flattened fragment declaration together with its origin.
type Fragment struct {
	Name   string
	Record *head.Record
}

type loader struct {
	markup   markup.Options
	codePage encoding.Encoding
	log      *zap.Logger
}

// load converts sources into records keeping source order. Every source is
// processed even if some fail, errors are returned together.
func (l *loader) load(ctx context.Context, sources []source.Source) ([]Fragment, error) {
	var (
		out  []Fragment
		errs error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			fragments []Fragment
			err       error
		)
		switch src.Kind {
		case common.SourceKindRecord:
			fragments, err = l.loadRecords(src)
		default:
			fragments, err = l.loadMarkup(src)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to load %s: %w", src.Name, err))
			continue
		}
		l.log.Debug("Source loaded", zap.String("name", src.Name), zap.Int("fragments", len(fragments)))
		out = append(out, fragments...)
	}
	return out, errs
}

// fragmentName names fragments when source has more than one.
func fragmentName(name string, idx, total int) string {
	if total == 1 {
		return name
	}
	return fmt.Sprintf("%s#%d", name, idx+1)
}

// loadRecords decodes YAML stream, every document is a separate record.
func (l *loader) loadRecords(src source.Source) ([]Fragment, error) {
	var records []*head.Record

	dec := yaml.NewDecoder(bytes.NewReader(src.Data))
	for {
		rec := &head.Record{}
		err := dec.Decode(rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}

	out := make([]Fragment, 0, len(records))
	for i, rec := range records {
		out = append(out, Fragment{Name: fragmentName(src.Name, i, len(records)), Record: rec})
	}
	return out, nil
}

func (l *loader) markupReader(src source.Source) (io.Reader, error) {
	r := bytes.NewReader(src.Data)
	switch {
	case src.Unicode:
		return r, nil
	case l.codePage != nil:
		return markup.NewReaderEncoding(r, l.codePage), nil
	}
	return markup.NewReader(r, "")
}

// loadMarkup extracts fragment declarations from markup and flattens them.
func (l *loader) loadMarkup(src source.Source) ([]Fragment, error) {
	r, err := l.markupReader(src)
	if err != nil {
		return nil, fmt.Errorf("unable to detect encoding: %w", err)
	}
	fragments, err := markup.Parse(r, l.markup, l.log)
	if err != nil {
		return nil, err
	}

	out := make([]Fragment, 0, len(fragments))
	for i := range fragments {
		name := fragmentName(src.Name, i, len(fragments))
		rec, err := fragments[i].Flatten()
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", name, err)
		}
		out = append(out, Fragment{Name: name, Record: rec})
	}
	return out, nil
}

// PropsList returns records in declaration order, outermost first.
func PropsList(fragments []Fragment) head.PropsList {
	list := make(head.PropsList, 0, len(fragments))
	for _, f := range fragments {
		list = append(list, f.Record)
	}
	return list
}
