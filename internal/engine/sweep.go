package engine

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Variant is one configuration in a parameter sweep. Execute must build
// its own isolated stores, ledger, and engine: variants share nothing,
// so they can run concurrently without coordination.
type Variant struct {
	Name    string
	Execute func(ctx context.Context) (*RunResult, error)
}

// VariantResult pairs a variant with its outcome. A failed variant does
// not abort the sweep; its error is reported alongside the rest.
type VariantResult struct {
	Name   string
	Result *RunResult
	Err    error
}

// Sweep runs the variants concurrently with at most maxWorkers in
// flight. Results are returned in variant order.
func Sweep(ctx context.Context, variants []Variant, maxWorkers int) []VariantResult {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	results := make([]VariantResult, len(variants))
	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, v := range variants {
		i, v := i, v
		p.Go(func() {
			result, err := v.Execute(ctx)
			results[i] = VariantResult{Name: v.Name, Result: result, Err: err}
		})
	}
	p.Wait()

	return results
}
