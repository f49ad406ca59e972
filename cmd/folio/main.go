// Package main is the entry point for the folio command line tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	docPath    string
	watch      bool
	command    string
	args       []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, ok := parseFlags(os.Args[1:], os.Stderr)
	if !ok {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, bool) {
	var opts options
	var showVersion bool

	fs := flag.NewFlagSet("folio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.docPath, "doc", "", "JSON document dump to load at startup")
	fs.BoolVar(&opts.watch, "watch", false, "Reload the configuration when the file changes")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "folio - tree model rich text engine\n\n")
		fmt.Fprintf(stderr, "Usage: folio [options] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  run <script.lua>   Run a Lua script against a fresh document\n")
		fmt.Fprintf(stderr, "  repl               Start the interactive shell\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, false
	}

	if showVersion {
		fmt.Fprintf(stderr, "folio %s (commit %s, built %s)\n", version, commit, date)
		return opts, false
	}

	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		return opts, false
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return opts, false
	}
	opts.command = rest[0]
	opts.args = rest[1:]

	if opts.watch && opts.configPath == "" {
		fmt.Fprintln(stderr, "Error: -watch requires -config")
		return opts, false
	}
	return opts, true
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

// execute builds the editor and runs the selected command.
func execute(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	switch opts.command {
	case "run":
		if len(opts.args) != 1 {
			return errors.New("run requires exactly one script path")
		}
		logger := newLogger(cfg, stderr)
		ed, cleanup, err := setup(cfg, opts, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		rt := script.New(ed, script.WithOutput(stdout), script.WithLogger(logger))
		defer rt.Close()
		return rt.DoFile(ctx, opts.args[0])

	case "repl":
		sh, err := newShell(stdout)
		if err != nil {
			return err
		}
		defer sh.Close()

		logger := newLogger(cfg, sh.Stderr())
		ed, cleanup, err := setup(cfg, opts, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		sh.attach(ed, script.New(ed, script.WithOutput(sh.Stdout()), script.WithLogger(logger)))
		return sh.Run(ctx)

	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}
}

func newLogger(cfg config.Config, out io.Writer) *logging.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: out,
		Prefix: cfg.Log.Prefix,
	})
}

// setup creates the editor, loads the initial document and starts the
// config watcher. The returned cleanup releases all of them.
func setup(cfg config.Config, opts options, logger *logging.Logger) (*editor.Editor, func(), error) {
	ed, err := editor.New(cfg, editor.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	if opts.docPath != "" {
		data, err := os.ReadFile(opts.docPath)
		if err == nil {
			err = ed.Load(data)
		}
		if err != nil {
			_ = ed.Close()
			return nil, nil, fmt.Errorf("loading document %s: %w", opts.docPath, err)
		}
	}

	var watcher *config.Watcher
	if opts.watch {
		watcher, err = config.NewWatcher(opts.configPath,
			func(next config.Config) {
				if opts.logLevel != "" {
					next.Log.Level = opts.logLevel
				}
				if err := ed.ApplyConfig(next); err != nil {
					logger.Warn("applying reloaded config: %v", err)
				}
			},
			config.WithErrorHandler(func(err error) {
				logger.Warn("config watcher: %v", err)
			}),
			config.WithWatcherLogger(logger),
		)
		if err != nil {
			_ = ed.Close()
			return nil, nil, err
		}
		logger.Info("watching %s", watcher.Path())
	}

	cleanup := func() {
		if watcher != nil {
			_ = watcher.Close()
		}
		if err := ed.Close(); err != nil {
			logger.Warn("closing editor: %v", err)
		}
	}
	return ed, cleanup, nil
}
