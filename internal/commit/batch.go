package commit

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the default parallelism for ClassifyAll.
const DefaultWorkers = 4

// ClassifyAll classifies every commit, running up to workers classifications
// concurrently. Each result is written to the slot of its input, so the
// output order always matches the input order and the result is identical
// to classifying sequentially. The only error is context cancellation.
func (c *Classifier) ClassifyAll(ctx context.Context, commits []Commit, workers int) ([]Classified, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]Classified, len(commits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, raw := range commits {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.ClassifyCommit(raw)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Cancellation can stop the loop before any goroutine observes it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
