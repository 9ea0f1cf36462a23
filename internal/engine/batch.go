package engine

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"gridcalc/internal/calc"
	"gridcalc/internal/grid"
)

// Result is the outcome of evaluating one cell.
type Result struct {
	Value   float64
	Err     error
	Display string
}

// EvaluateAll evaluates every formula cell of table concurrently. Each cell
// gets its own resolution context; the table is only read. Literal cells
// are not included in the result.
func (e *Engine) EvaluateAll(ctx context.Context, table grid.Table, workers int) (map[grid.Key]Result, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	out := make(map[grid.Key]Result, len(table))
	for k, cell := range table {
		if !cell.IsFormula() {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := e.Evaluate(cell.Text, table, k.Address())
			res := Result{Value: v, Err: err}
			if err != nil {
				res.Display = calc.Code(err)
			} else {
				res.Display = calc.FormatNumber(v)
			}
			mu.Lock()
			out[k] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("evaluated table", "formulas", len(out), "workers", workers)
	return out, nil
}
