// Package reconcile implements program commands: it collects fragment
// sources, flattens them into records, reduces records into head state and
// writes the result out.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
	yaml "gopkg.in/yaml.v3"

	"headfold/common"
	"headfold/config"
	"headfold/head"
	"headfold/markup"
	"headfold/render"
	"headfold/source"
	"headfold/state"
)

// forceCodePage resolves IANA character set name. Since zip "standard" does
// not define file name encoding and old markup may not declare its charset
// we may need to force archaic code page.
func forceCodePage(env *state.LocalEnv, cp string, log *zap.Logger) {
	if len(cp) == 0 {
		return
	}
	enc, err := ianaindex.IANA.Encoding(cp)
	if err != nil || enc == nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
		env.CodePage = nil
		return
	}
	env.CodePage = enc
	n, _ := ianaindex.IANA.Name(enc)
	log.Debug("Forcefully converting all non UTF-8 sources and file names in archives", zap.String("charset", n))
}

func renderOptions(env *state.LocalEnv) render.Options {
	return render.Options{
		MarkerAttribute: env.Cfg.Render.MarkerAttribute,
		MarkerValue:     env.Cfg.Render.MarkerValue,
		Encode:          env.Cfg.Render.EncodeSpecialCharacters,
		CompactCSS:      env.Cfg.Render.CompactCSS,
		Indent:          env.Cfg.Render.Indent,
	}
}

// collect reads all sources named by arguments and flattens them.
func collect(ctx context.Context, env *state.LocalEnv, args []string, log *zap.Logger) ([]Fragment, error) {
	if len(args) == 0 {
		return nil, errors.New("no input source has been specified")
	}

	sources, err := source.Collect(ctx, args, source.Options{
		MarkupExtensions: env.Cfg.Sources.MarkupExtensions,
		RecordExtensions: env.Cfg.Sources.RecordExtensions,
		NaturalOrder:     env.Cfg.Sources.NaturalOrder,
		CodePage:         env.CodePage,
	}, log.Named("source"))
	if err != nil {
		return nil, fmt.Errorf("unable to collect sources: %w", err)
	}

	l := &loader{
		markup:   markup.Options{ContainerTag: env.Cfg.Sources.ContainerTag, GroupTag: env.Cfg.Sources.GroupTag},
		codePage: env.CodePage,
		log:      log.Named("markup"),
	}
	fragments, err := l.load(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("unable to load sources: %w", err)
	}

	for i, f := range fragments {
		if err := env.Rpt.StoreValue(fmt.Sprintf("%s/records/%03d.yaml", env.RunID, i+1), f.Record); err != nil {
			log.Warn("Unable to store record in report", zap.String("name", f.Name), zap.Error(err))
		}
	}
	return fragments, nil
}

// encode serializes state in requested format.
func encode(s *head.State, format common.OutputFmt, opts render.Options, log *zap.Logger) ([]byte, error) {
	switch format {
	case common.OutputFmtXhtml:
		return render.Bytes(s, opts, log)
	case common.OutputFmtYaml:
		return yaml.Marshal(s)
	case common.OutputFmtJson:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unsupported output format %s", format)
}

// writeOutput writes data to destination file, checking for existing one.
func writeOutput(fname string, data []byte, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(fname); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", fname)
		}
		log.Warn("Overwriting existing file", zap.String("file", fname))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return os.WriteFile(fname, data, 0644)
}

// reduce is the core of Reduce command independent of CLI framework. When
// dst is empty result goes to out.
func reduce(ctx context.Context, env *state.LocalEnv, args []string, format common.OutputFmt, dst string, out io.Writer, log *zap.Logger) error {
	fragments, err := collect(ctx, env, args, log)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := head.Reduce(PropsList(fragments), log.Named("reducer"))
	if err := env.Rpt.StoreValue(fmt.Sprintf("%s/state.yaml", env.RunID), s); err != nil {
		log.Warn("Unable to store state in report", zap.Error(err))
	}

	data, err := encode(s, format, renderOptions(env), log.Named("render"))
	if err != nil {
		return fmt.Errorf("unable to encode result: %w", err)
	}

	if len(dst) == 0 {
		log.Debug("Writing result", zap.String("file", "STDOUT"), zap.Int("fragments", len(fragments)))
		_, err = out.Write(data)
		return err
	}

	fname := dst
	if isDirDestination(dst) {
		values := buildValues(config.OutputNameTemplateFieldName, s, fragments, format, env.RunID.String())
		fname = buildOutputPath(dst, values, format, &env.Cfg.Render, log)
	}
	if err := writeOutput(fname, data, env.Overwrite, log); err != nil {
		return err
	}
	log.Info("Result written", zap.String("file", fname), zap.Int("fragments", len(fragments)))
	env.Rpt.Store(fmt.Sprintf("%s/result%s", env.RunID, format.Ext()), fname)
	return nil
}

// Reduce reconciles all fragments found in sources into a single head.
func Reduce(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("reduce")

	format, err := common.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		log.Warn("Unknown output format requested, switching to xhtml", zap.Error(err))
		format = common.OutputFmtXhtml
	}
	env.Overwrite = cmd.Bool("overwrite")
	forceCodePage(env, cmd.String("force-cp"), log)

	dst := cmd.String("output")
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
		if isDirDestination(cmd.String("output")) {
			dst += string(filepath.Separator)
		}
	}

	log.Info("Processing starting", zap.Strings("sources", cmd.Args().Slice()), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return reduce(ctx, env, cmd.Args().Slice(), format, dst, cmd.Root().Writer, log)
}

// flatten is the core of Flatten command: every flattened record is written
// as separate YAML document.
func flatten(ctx context.Context, env *state.LocalEnv, args []string, out io.Writer, log *zap.Logger) error {
	fragments, err := collect(ctx, env, args, log)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	defer enc.Close()
	enc.SetIndent(2)

	for _, f := range fragments {
		node := &yaml.Node{}
		if err := node.Encode(f.Record); err != nil {
			return fmt.Errorf("unable to encode %s: %w", f.Name, err)
		}
		node.HeadComment = f.Name
		if err := enc.Encode(node); err != nil {
			return fmt.Errorf("unable to write %s: %w", f.Name, err)
		}
	}
	return nil
}

// Flatten outputs records produced from every fragment found in sources.
func Flatten(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("flatten")
	forceCodePage(env, cmd.String("force-cp"), log)

	return flatten(ctx, env, cmd.Args().Slice(), cmd.Root().Writer, log)
}
