package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"headfold/common"
	"headfold/config"
	"headfold/misc"
	"headfold/reconcile"
	"headfold/state"
)

const sourceHelp = `
SOURCE:
    fragment declarations to reconcile, in order from outermost to innermost:
        path to a file: "[path_to_file]file.html" or "[path_to_file]file.yaml"
        path to a directory: "[path_to_directory]directory" - recursively process all files under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular file: "[path_to_archive]archive.zip[path_in_archive]/file.html"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - process all files under archive path

    Markup files (HTML/XHTML) may have any number of fragment declarations
    (<helmet> elements), file without declarations is a single fragment.
    Record files (YAML) may have several documents, each is a fragment.
    Inside directories and archives only files with configured extensions
    are considered, processing of archives inside archives is not supported.
`

func main() {
	// allow graceful shutdown on interrupt
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	forceCP := func() cli.Flag {
		return &cli.StringFlag{Name: "force-cp",
			Usage: "force `ENCODING` for ALL non UTF-8 markup sources and file names in archives (see IANA.org for character set names)"}
	}

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "reconciles nested document head fragments into a single head",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "reduce",
				Usage:        "Reconciles fragments from SOURCE(s) into a single document head",
				OnUsageError: usageErrorHandler,
				Action:       reconcile.Reduce,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Value: common.OutputFmtXhtml.String(),
						Usage: "output `TYPE` (supported types: " + strings.Join(common.OutputFmtNames(), ", ") + ")"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"},
						Usage: "write result to `PATH`, file or directory (ending with path separator or existing)"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "overwrite existing destination file"},
					forceCP(),
				},
				ArgsUsage: "SOURCE...",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
PATH:
    when PATH is a directory output file name comes from render.output_name_template,
    or from the source name when there is a single one, otherwise "head"
    if absent - STDOUT
`, cli.CommandHelpTemplate, sourceHelp),
			},
			{
				Name:         "flatten",
				Usage:        "Outputs records produced from every fragment in SOURCE(s) (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       reconcile.Flatten,
				Flags:        []cli.Flag{forceCP()},
				ArgsUsage:    "SOURCE...",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
Records are written to STDOUT in the order they would be reduced.
`, cli.CommandHelpTemplate, sourceHelp),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		err  error
		data []byte
		kind string
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		kind = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		env.Log.Info("Outputing configuration", zap.String("state", kind), zap.String("file", "STDOUT"))
		_, err = cmd.Root().Writer.Write(data)
	} else {
		env.Log.Info("Outputing configuration", zap.String("state", kind), zap.String("file", fname))
		err = os.WriteFile(fname, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
