// Package main is the entry point for rewind, an undo/redo value history
// driven from a line REPL, a Lua script or a terminal editor.
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

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/config/watcher"
	"github.com/dshills/rewind/internal/history"
	"github.com/dshills/rewind/internal/logging"
	"github.com/dshills/rewind/internal/repl"
	"github.com/dshills/rewind/internal/script"
	"github.com/dshills/rewind/internal/terminal"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errHelp is returned by parseFlags when help or version output was
// requested and the program should exit successfully.
var errHelp = errors.New("help requested")

type options struct {
	configPath string
	scriptPath string
	initial    string
	initialSet bool
	json       bool
	tui        bool
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stdout, stderr)
	if errors.Is(err, errHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load config: %v\n", err)
		return exitError
	}

	m := selectMode(opts, stdin)

	logger, closeLog, err := newLogger(cfg, m, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to open log: %v\n", err)
		return exitError
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initial := cfg.History.Initial
	if opts.initialSet {
		initial = opts.initial
	}

	logger.Debug("starting in %s mode", m)

	switch m {
	case modeScript:
		err = runScript(ctx, cfg, opts, initial, logger, stdout)
	case modeTerminal:
		err = runTerminal(ctx, cfg, opts, initial, logger)
	default:
		err = runREPL(ctx, cfg, opts, initial, logger, stdin, stdout)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func parseFlags(args []string, stdout, stderr io.Writer) (options, error) {
	var opts options
	var showVersion bool
	var showHelp bool

	fs := flag.NewFlagSet("rewind", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml, .yml)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.scriptPath, "script", "", "Run a Lua script and print the final view")
	fs.StringVar(&opts.scriptPath, "s", "", "Run a Lua script (shorthand)")
	fs.StringVar(&opts.initial, "initial", "", "Initial present value")
	fs.StringVar(&opts.initial, "i", "", "Initial present value (shorthand)")
	fs.BoolVar(&opts.json, "json", false, "Print views as JSON")
	fs.BoolVar(&opts.tui, "tui", false, "Force the terminal editor")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&showHelp, "help", false, "Show help message")
	fs.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "rewind - undo/redo value history\n\n")
		fmt.Fprintf(out, "Usage: rewind [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  rewind                      Edit a value in the terminal\n")
		fmt.Fprintf(out, "  rewind < commands.txt       Run REPL commands from a file\n")
		fmt.Fprintf(out, "  rewind -s edit.lua -json    Run a script, print the view as JSON\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, errHelp
		}
		return opts, err
	}

	if showHelp {
		fs.SetOutput(stdout)
		fs.Usage()
		return opts, errHelp
	}

	if showVersion {
		fmt.Fprintf(stdout, "rewind %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, errHelp
	}

	if opts.logLevel != "" && !logging.ValidLevel(opts.logLevel) {
		return opts, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.logLevel)
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "initial" || f.Name == "i" {
			opts.initialSet = true
		}
	})

	return opts, nil
}

// loadConfig loads the file named by -config, which must exist, or the
// default user config if present. Flags override the loaded values.
func loadConfig(opts options) (*config.Config, error) {
	path := opts.configPath
	var loadOpts []config.Option
	if path != "" {
		loadOpts = append(loadOpts, config.Required())
	} else {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, loadOpts...)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

type mode string

const (
	modeScript   mode = "script"
	modeTerminal mode = "terminal"
	modeREPL     mode = "repl"
)

func selectMode(opts options, stdin io.Reader) mode {
	switch {
	case opts.scriptPath != "":
		return modeScript
	case opts.tui:
		return modeTerminal
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return modeTerminal
	}
	return modeREPL
}

// newLogger writes to the configured log file, or to stderr. The terminal
// editor owns the screen, so without a log file it logs nothing.
func newLogger(cfg *config.Config, m mode, stderr io.Writer) (*logging.Logger, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel()
	logCfg.Output = stderr

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		logCfg.Output = f
		return logging.New(logCfg), func() { _ = f.Close() }, nil
	}

	logger := logging.New(logCfg)
	if m == modeTerminal {
		logger.Disable()
	}
	return logger, func() {}, nil
}

func runScript(ctx context.Context, cfg *config.Config, opts options, initial string, logger *logging.Logger, stdout io.Writer) error {
	store := history.NewStore[any](initial, history.WithLogger(logger))

	state := script.NewState(
		script.WithTimeout(cfg.ScriptTimeout()),
		script.WithCallLimit(cfg.Script.CallLimit),
		script.WithOutput(stdout),
		script.WithLogger(logger),
	)
	defer state.Close()
	script.NewHistoryModule(store).Register(state)

	if err := state.DoFile(ctx, opts.scriptPath); err != nil {
		return fmt.Errorf("script %s: %w", opts.scriptPath, err)
	}
	return printView(stdout, store.View(), opts.json)
}

func printView[T any](w io.Writer, v history.View[T], asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, repl.FormatText(v))
		return err
	}
	out, err := repl.FormatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func runREPL(ctx context.Context, cfg *config.Config, opts options, initial string, logger *logging.Logger, stdin io.Reader, stdout io.Writer) error {
	store := history.NewStore(initial, history.WithLogger(logger))
	r := repl.New(store, stdin, stdout, repl.WithJSON(opts.json), repl.WithLogger(logger))

	return runWithWatcher(ctx, cfg, logger, opts, nil, r.Run)
}

func runTerminal(ctx context.Context, cfg *config.Config, opts options, initial string, logger *logging.Logger) error {
	km, err := terminal.NewKeymap(cfg.Keymap)
	if err != nil {
		return err
	}
	th, err := terminal.NewTheme(cfg.Theme)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	store := history.NewStore(initial, history.WithLogger(logger))
	editor := terminal.New(screen, store,
		terminal.WithKeymap(km),
		terminal.WithTheme(th),
		terminal.WithLogger(logger),
	)

	reload := func(next *config.Config) {
		km, err := terminal.NewKeymap(next.Keymap)
		if err != nil {
			logger.Warn("keeping keymap: %v", err)
			return
		}
		th, err := terminal.NewTheme(next.Theme)
		if err != nil {
			logger.Warn("keeping theme: %v", err)
			return
		}
		editor.Reload(km, th)
	}

	return runWithWatcher(ctx, cfg, logger, opts, reload, editor.Run)
}

// runWithWatcher runs fn and, when watching is enabled, a watcher on the
// config file that reloads the log level and calls onReload. Both stop when
// fn returns.
func runWithWatcher(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts options, onReload func(*config.Config), fn func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if shouldWatch(cfg) {
		w, err := watcher.New(cfg.Path,
			watcher.WithDebounce(cfg.WatchDebounce()),
			watcher.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("config watch disabled: %v", err)
		} else {
			w.OnChange(func(ev watcher.Event) {
				next, err := loadConfig(options{configPath: cfg.Path, logLevel: opts.logLevel})
				if err != nil {
					logger.Warn("config reload failed: %v", err)
					return
				}
				logger.SetLevel(next.LogLevel())
				logger.Info("config reloaded after %s", ev.Op)
				if onReload != nil {
					onReload(next)
				}
			})
			g.Go(func() error {
				return w.Run(runCtx)
			})
		}
	}

	g.Go(func() error {
		defer cancel()
		return fn(runCtx)
	})

	return g.Wait()
}

func shouldWatch(cfg *config.Config) bool {
	if !cfg.Watch.Enabled || cfg.Path == "" {
		return false
	}
	_, err := os.Stat(cfg.Path)
	return err == nil
}
