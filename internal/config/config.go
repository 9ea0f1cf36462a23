// Package config loads the optional HCL settings file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"gridcalc/internal/engine"
)

// Config holds every setting the application reads at startup.
type Config struct {
	Display Display
	Engine  Engine
	Log     Log
}

type Display struct {
	ColumnWidth int
	RowHeight   int
	Splash      bool
}

type Engine struct {
	MaxDepth int
	// Workers bounds concurrent recalculation; 0 means GOMAXPROCS.
	Workers int
}

type Log struct {
	Level  string
	Format string
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Display: Display{ColumnWidth: 16, RowHeight: 1, Splash: true},
		Engine:  Engine{MaxDepth: engine.DefaultMaxDepth},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// fileRoot mirrors the file layout. Every block and attribute is optional.
type fileRoot struct {
	Display *displayBlock `hcl:"display,block"`
	Engine  *engineBlock  `hcl:"engine,block"`
	Log     *logBlock     `hcl:"log,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

type displayBlock struct {
	ColumnWidth *int  `hcl:"column_width,optional"`
	RowHeight   *int  `hcl:"row_height,optional"`
	Splash      *bool `hcl:"splash,optional"`
}

type engineBlock struct {
	MaxDepth *int `hcl:"max_depth,optional"`
	Workers  *int `hcl:"workers,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

// Load reads and validates the settings file at path.
func Load(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse decodes HCL source on top of Default. filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}

	cfg := Default()
	if d := root.Display; d != nil {
		set(&cfg.Display.ColumnWidth, d.ColumnWidth)
		set(&cfg.Display.RowHeight, d.RowHeight)
		set(&cfg.Display.Splash, d.Splash)
	}
	if e := root.Engine; e != nil {
		set(&cfg.Engine.MaxDepth, e.MaxDepth)
		set(&cfg.Engine.Workers, e.Workers)
	}
	if l := root.Log; l != nil {
		set(&cfg.Log.Level, l.Level)
		set(&cfg.Log.Format, l.Format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return cfg, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate reports every out of range setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Display.ColumnWidth < 4 {
		errs = append(errs, fmt.Errorf("display.column_width must be at least 4, got %d", c.Display.ColumnWidth))
	}
	if c.Display.RowHeight < 1 {
		errs = append(errs, fmt.Errorf("display.row_height must be at least 1, got %d", c.Display.RowHeight))
	}
	if c.Engine.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("engine.max_depth must be positive, got %d", c.Engine.MaxDepth))
	}
	if c.Engine.Workers < 0 {
		errs = append(errs, fmt.Errorf("engine.workers must not be negative, got %d", c.Engine.Workers))
	}
	if _, ok := levels[c.Log.Level]; !ok {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}
