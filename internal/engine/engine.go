// Package engine resolves cell references inside formulas against a
// caller-supplied table snapshot and hands the result to the calc evaluator.
//
// An Engine holds configuration only. Every Evaluate call builds its own
// resolution context, so one Engine can serve many goroutines as long as
// each of them passes a table it does not mutate during the call.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gridcalc/internal/calc"
	"gridcalc/internal/grid"
)

// DefaultMaxDepth is the default ceiling on nested formula resolution.
const DefaultMaxDepth = 256

// ErrTooDeep is returned when a dependency chain is longer than the
// engine's depth ceiling.
var ErrTooDeep = errors.New("formula chain too deep")

// CellError ties a failure to the innermost cell whose formula produced it.
type CellError struct {
	Cell grid.Key
	Err  error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell %s: %v", e.Cell, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// Engine evaluates formulas. The zero value is not usable; call New.
type Engine struct {
	logger   *slog.Logger
	maxDepth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth sets the nesting ceiling; values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Evaluate uses an engine with default settings.
func Evaluate(formula string, table grid.Table, current grid.Address) (float64, error) {
	return defaultEngine.Evaluate(formula, table, current)
}

// Evaluate computes formula as if it were stored in current. Text that is
// not a formula is read as a literal number.
func (e *Engine) Evaluate(formula string, table grid.Table, current grid.Address) (float64, error) {
	if !strings.HasPrefix(formula, "=") {
		return calc.ParseNumber(formula), nil
	}
	c := newEvalContext(e, table, current)
	return calc.Evaluate(formula, c.resolve)
}

// Display returns what a cell shows: literals verbatim, formula results
// formatted, failures as their short code.
func (e *Engine) Display(text string, table grid.Table, current grid.Address) string {
	if !strings.HasPrefix(text, "=") {
		return text
	}
	v, err := e.Evaluate(text, table, current)
	if err != nil {
		return calc.Code(err)
	}
	return calc.FormatNumber(v)
}

// evalContext lives for one top-level Evaluate call.
type evalContext struct {
	engine *Engine
	table  grid.Table
	stack  []grid.Key
	active map[grid.Key]bool
	// finished formula cells; never written back to table
	memo map[grid.Key]float64
}

func newEvalContext(e *Engine, table grid.Table, current grid.Address) *evalContext {
	c := &evalContext{
		engine: e,
		table:  table,
		active: map[grid.Key]bool{},
		memo:   map[grid.Key]float64{},
	}
	c.push(current.Key())
	return c
}

func (c *evalContext) push(k grid.Key) {
	c.stack = append(c.stack, k)
	c.active[k] = true
}

func (c *evalContext) pop() {
	k := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	delete(c.active, k)
}

func (c *evalContext) resolve(addr grid.Address) (float64, error) {
	k := addr.Key()
	if c.active[k] {
		err := c.cycle(k)
		c.engine.logger.Debug("circular reference", "cell", k.String(), "err", err)
		return 0, err
	}
	if v, ok := c.memo[k]; ok {
		return v, nil
	}
	cell, ok := c.table[k]
	if !ok {
		return 0, nil
	}
	if !cell.IsFormula() {
		return calc.ParseNumber(cell.Text), nil
	}
	if len(c.stack) >= c.engine.maxDepth {
		c.engine.logger.Debug("resolution depth ceiling hit", "cell", k.String(), "max_depth", c.engine.maxDepth)
		return 0, &CellError{Cell: k, Err: fmt.Errorf("%w: more than %d levels", ErrTooDeep, c.engine.maxDepth)}
	}

	c.push(k)
	v, err := calc.Evaluate(cell.Text, c.resolve)
	c.pop()
	if err != nil {
		var cellErr *CellError
		if !errors.As(err, &cellErr) {
			err = &CellError{Cell: k, Err: err}
		}
		return 0, err
	}
	c.memo[k] = v
	return v, nil
}

// cycle builds the path from the first occurrence of k on the stack back to k.
func (c *evalContext) cycle(k grid.Key) error {
	start := 0
	for i, s := range c.stack {
		if s == k {
			start = i
			break
		}
	}
	path := make([]grid.Address, 0, len(c.stack)-start+1)
	for _, s := range c.stack[start:] {
		path = append(path, s.Address())
	}
	path = append(path, k.Address())
	return &calc.CycleError{Path: path}
}
