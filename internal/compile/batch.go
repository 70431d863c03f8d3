package compile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/objsql/internal/expr"
)

// DefaultConcurrency bounds the goroutines used by CompileAll.
const DefaultConcurrency = 8

// CompileAll compiles independent statements concurrently. Results are in
// input order. The first failure cancels the remaining statements and is
// returned with the statement index.
func (p *Pipeline) CompileAll(ctx context.Context, nodes []expr.Node) ([]*Compiled, error) {
	out := make([]*Compiled, len(nodes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)

	for i, n := range nodes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := p.Compile(ctx, n)
			if err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
