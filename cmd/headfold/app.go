package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"headfold/config"
	"headfold/misc"
	"headfold/state"
)

// initializeAppContext loads configuration and prepares logging and debug
// report once command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug report: %w", err)
		}
		if len(configFile) > 0 {
			env.Rpt.Store(fmt.Sprintf("config/original/%s", filepath.Base(configFile)), configFile)
		}
		if data, err := config.Dump(env.Cfg); err == nil {
			env.Rpt.StoreData("config/processed.yaml", data)
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	logReady = true
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()),
		zap.Stringer("run_id", env.RunID))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

// removeEmptyPanicLog drops crash output file created by logging setup when
// nothing was written to it.
func removeEmptyPanicLog(cfg *config.Config) error {
	if cfg == nil || len(cfg.Logging.FileLogger.Destination) == 0 {
		return nil
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})

	fname := filepath.Join(filepath.Dir(cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
	if fi, err := os.Stat(fname); err == nil && fi.Size() == 0 {
		if err := os.Remove(fname); err != nil {
			return fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, err)
		}
	}
	return nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))

	// log is synced after this and could be put into report, from now on
	// errors go to stderr directly
	env.RestoreStdLog()

	if er := env.Rpt.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
	}
	return multierr.Append(err, removeEmptyPanicLog(env.Cfg))
}

var (
	// set once logging is configured
	logReady bool
	// set when error was already logged and should not be repeated on stderr
	errWasHandled bool
)

// exitErrHandler is called before application context is destroyed, so log
// is still available.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	if !logReady {
		return
	}
	env := state.EnvFromContext(ctx)
	env.Log.Error("Program ended with error", zap.Error(err))
	errWasHandled = true
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// reported either by exitErrHandler or on exit directly to stderr
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}
