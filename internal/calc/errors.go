package calc

import (
	"errors"
	"fmt"
	"strings"

	"gridcalc/internal/grid"
)

// Error kinds. Every error returned by this package and by the engine
// matches exactly one of these (or grid.ErrMalformedAddress) via errors.Is.
var (
	ErrCircularReference = errors.New("circular reference")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrInvalidExpression = errors.New("invalid expression")
	ErrDivisionByZero    = errors.New("division by zero")
)

// SyntaxError describes a formula that could not be tokenized or parsed.
type SyntaxError struct {
	Expr   string
	Detail string
	Kind   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s in %q: %s", e.Kind, e.Expr, e.Detail)
}

func (e *SyntaxError) Unwrap() error { return e.Kind }

// CycleError names the chain of cells that loops back on itself.
// The last element repeats the cell that closed the cycle.
type CycleError struct {
	Path []grid.Address
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Path))
	for i, a := range e.Path {
		names[i] = a.Key().String()
	}
	return fmt.Sprintf("%s: %s", ErrCircularReference, strings.Join(names, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCircularReference }

// Code maps an error to the short code shown in a cell.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCircularReference):
		return "#CYCLE"
	case errors.Is(err, ErrDivisionByZero):
		return "#DIV/0"
	case errors.Is(err, ErrUnknownFunction):
		return "#NAME?"
	case errors.Is(err, grid.ErrMalformedAddress):
		return "#REF"
	default:
		return "#ERR"
	}
}

func invalid(expr, format string, args ...any) error {
	return &SyntaxError{Expr: expr, Detail: fmt.Sprintf(format, args...), Kind: ErrInvalidExpression}
}
