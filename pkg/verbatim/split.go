package verbatim

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// writeDocs writes documents into a collection. Batches rejected with
// ErrCongestion are halved into ⌈n/2⌉ and ⌊n/2⌋ parts. Parts go into the
// next wave of a worklist, every wave runs with at most splitJobs
// concurrent writes. Parts of MinSplitSize or less are abandoned.
func (r *Repository[E, K]) writeDocs(
	ctx context.Context,
	name string,
	docs []Document,
) bool {
	var mu sync.Mutex
	var abandoned bool
	wave := [][]Document{docs}

	for len(wave) > 0 {
		if err := ctx.Err(); err != nil {
			slog.Warn("Batch write interrupted",
				"collection", name, "error", err)
			return false
		}

		var next [][]Document
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.splitJobs)

		for _, batch := range wave {
			g.Go(func() error {
				err := r.backend.InsertMany(gctx, name, batch)
				if err == nil {
					return nil
				}
				if !IsCongestion(err) {
					return err
				}

				size := len(batch)
				if size <= MinSplitSize {
					slog.Error("Abandoning congested batch",
						"collection", name, "size", size, "error", err)
					r.observer.BatchAbandoned(name, size)
					mu.Lock()
					abandoned = true
					mu.Unlock()
					return nil
				}

				slog.Warn("Store congestion, splitting batch",
					"collection", name, "size", size)
				r.observer.BatchSplit(name, size)
				half := (size + 1) / 2
				mu.Lock()
				next = append(next, batch[:half], batch[half:])
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			slog.Error("Cannot write batch",
				"collection", name, "size", len(docs), "error", err)
			return false
		}
		wave = next
	}

	return !abandoned
}
