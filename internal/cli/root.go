package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/droverhq/droverd/internal"
	"github.com/droverhq/droverd/internal/app"
	"github.com/droverhq/droverd/internal/paths"
)

// Represents the root command for the droverd CLI.
var RootCmd struct {
	Quiet   bool   `short:"q" env:"DROVERD_QUIET" help:"Suppress informational output."`
	Verbose bool   `short:"v" env:"DROVERD_VERBOSE" help:"Annotate log lines with source locations."`
	Debug   bool   `short:"d" env:"DROVERD_DEBUG" help:"Enable debug output."`
	Socket  string `short:"s" help:"Override the default control socket path." placeholder:"PATH"`

	Serve   ServeCmd   `cmd:"" help:"Start the serving daemon."`
	Worker  WorkerCmd  `cmd:"" hidden:""`
	Status  StatusCmd  `cmd:"" help:"Show status of the running daemon."`
	Stop    StopCmd    `cmd:"" help:"Stop the running daemon."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses the command line, configures logging, and runs the selected
// subcommand.
//
// The handler is the application served by the worker pool. It is bound
// here rather than inside the worker command so embedding programs can
// supply their own application from main.
func Execute(handler app.Handler) error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("A prefork serving daemon.\n\nBinds its port once, then serves through a pool of worker processes that share the listening socket."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(handler, (*app.Handler)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Applies the mode flags and swaps the default logger for one honoring
// them.
//
// The effective modes are stored back so they reach spawned workers
// through the environment.
func configureLogger() {
	quiet := RootCmd.Quiet || internal.IsQuiet()
	debug := RootCmd.Debug || internal.IsDebug()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	internal.SetQuiet(quiet)
	internal.SetDebug(debug)
	internal.SetVerbose(verbose)

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		AddSource:  verbose,
		NoColor:    !isatty(os.Stderr),
		TimeFormat: time.TimeOnly,
	})))
}

// Returns the control socket path, honoring the --socket override.
func socketPath() string {
	if RootCmd.Socket != "" {
		return RootCmd.Socket
	}
	return paths.Socket()
}

// Reports whether the given file is a terminal.
func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
