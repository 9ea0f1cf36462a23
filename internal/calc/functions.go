package calc

import (
	"errors"
	"math"
	"strings"
)

// builtin is a function callable from a formula. max < 0 means variadic.
type builtin struct {
	min, max int
	call     func(args []Node, r ResolveFunc) (float64, error)
}

var builtins map[string]*builtin

func init() {
	builtins = map[string]*builtin{
		"SUM":     {min: 0, max: -1, call: listFunc(sum)},
		"MIN":     {min: 0, max: -1, call: listFunc(minOf)},
		"MAX":     {min: 0, max: -1, call: listFunc(maxOf)},
		"AVERAGE": {min: 0, max: -1, call: listFunc(average)},
		"COUNT":   {min: 0, max: -1, call: count},
		"IF":      {min: 2, max: 3, call: ifFunc},
		"ROUND":   {min: 1, max: 2, call: round},
		"AND":     {min: 0, max: -1, call: and},
		"OR":      {min: 0, max: -1, call: or},
		"NOT":     {min: 1, max: 1, call: not},
		"ABS":     {min: 1, max: 1, call: abs},
	}
}

// IsFunction reports whether name (any case) is a supported function.
func IsFunction(name string) bool {
	_, ok := builtins[strings.ToUpper(name)]
	return ok
}

func listFunc(reduce func([]float64) float64) func([]Node, ResolveFunc) (float64, error) {
	return func(args []Node, r ResolveFunc) (float64, error) {
		values, err := collect(args, r)
		if err != nil {
			return 0, err
		}
		return reduce(values), nil
	}
}

// collect evaluates every argument, expanding ranges cell by cell.
func collect(args []Node, r ResolveFunc) ([]float64, error) {
	values := make([]float64, 0, len(args))
	for _, arg := range args {
		if rng, ok := arg.(*rangeNode); ok {
			for _, a := range rng.cells() {
				v, err := (&refNode{addr: a}).eval(r)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			continue
		}
		v, err := arg.eval(r)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// count skips arguments that fail to evaluate, except cycles.
func count(args []Node, r ResolveFunc) (float64, error) {
	n := 0.0
	tally := func(node Node) error {
		if _, err := node.eval(r); err != nil {
			if errors.Is(err, ErrCircularReference) {
				return err
			}
			return nil
		}
		n++
		return nil
	}
	for _, arg := range args {
		if rng, ok := arg.(*rangeNode); ok {
			for _, a := range rng.cells() {
				if err := tally(&refNode{addr: a}); err != nil {
					return 0, err
				}
			}
			continue
		}
		if err := tally(arg); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// ifFunc evaluates only the selected branch.
func ifFunc(args []Node, r ResolveFunc) (float64, error) {
	cond, err := args[0].eval(r)
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return args[1].eval(r)
	}
	if len(args) < 3 {
		return 0, nil
	}
	return args[2].eval(r)
}

func round(args []Node, r ResolveFunc) (float64, error) {
	v, err := args[0].eval(r)
	if err != nil {
		return 0, err
	}
	digits := 0.0
	if len(args) == 2 {
		if digits, err = args[1].eval(r); err != nil {
			return 0, err
		}
	}
	return Round(v, int(math.Trunc(digits))), nil
}

func and(args []Node, r ResolveFunc) (float64, error) {
	for _, arg := range args {
		v, err := arg.eval(r)
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return 0, nil
		}
	}
	return 1, nil
}

func or(args []Node, r ResolveFunc) (float64, error) {
	for _, arg := range args {
		v, err := arg.eval(r)
		if err != nil {
			return 0, err
		}
		if v != 0 {
			return 1, nil
		}
	}
	return 0, nil
}

func not(args []Node, r ResolveFunc) (float64, error) {
	v, err := args[0].eval(r)
	if err != nil {
		return 0, err
	}
	return truth(v == 0), nil
}

func abs(args []Node, r ResolveFunc) (float64, error) {
	v, err := args[0].eval(r)
	if err != nil {
		return 0, err
	}
	return math.Abs(v), nil
}
