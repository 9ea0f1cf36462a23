package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"gridcalc/internal/app"
	"gridcalc/internal/config"
	"gridcalc/internal/engine"
)

// options are the parsed command line.
type options struct {
	configPath string
	logFile    string
	logLevel   string
	sheet      string
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("gridcalc", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, "Usage:\n  gridcalc [options] [SHEET.csv]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "Path to an HCL settings file.")
	fs.StringVar(&opts.logFile, "log-file", "", "Write logs to this file. Logging is off when empty.")
	fs.StringVar(&opts.logLevel, "log-level", "", "Override the log level: debug, info, warn or error.")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 1 {
		return options{}, fmt.Errorf("expected at most one sheet, got %d", fs.NArg())
	}
	opts.sheet = fs.Arg(0)
	return opts, nil
}

// loadConfig applies the settings file and the flag overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func run(args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// the terminal belongs to tcell, so logs only go to a file
	logger := slog.New(slog.DiscardHandler)
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer f.Close()
		logger = cfg.Log.Logger(f)
	}

	eng := engine.New(engine.WithLogger(logger), engine.WithMaxDepth(cfg.Engine.MaxDepth))
	a := app.NewApp(cfg, eng, logger)
	if opts.sheet != "" {
		a.Open(opts.sheet)
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("cannot create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return fmt.Errorf("cannot init screen: %w", err)
	}
	defer s.Fini()

	s.EnableMouse()
	s.Clear()
	if cfg.Display.Splash {
		app.Splash(s, "GRIDCALC", 120*time.Millisecond)
	}
	logger.Info("started", "sheet", opts.sheet, "max_depth", cfg.Engine.MaxDepth)

	for !a.Quit {
		a.EnsureCursorVisible(s)
		a.Draw(s)
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			a.HandleKeyEvent(s, ev)
		case *tcell.EventResize:
			s.Sync()
		case nil:
			a.Quit = true
		}
	}
	logger.Info("stopped")
	return nil
}
