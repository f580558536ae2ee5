// Package ioharvest harvests observations of data providers into
// verbatim collections.
//
// Every harvest writes into the shadow collection of a provider and
// promotes it only when the run finishes successfully, so readers of
// the permanent collection never see a partial harvest.
package ioharvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/verbatim"
)

// PageFunc returns the next page of verbatim entities. When more is
// false the source is exhausted and the returned page is the last one.
type PageFunc[E any] func(ctx context.Context) (page []E, more bool, err error)

// run executes one harvest of a provider: it prepares the shadow
// collection, writes pages until the source is exhausted or the record
// cap is reached, and promotes the shadow collection on success. It never
// panics and never returns an error, the outcome is in the Status of the
// returned Info.
func run[E verbatim.Entity[K], K verbatim.Key](
	ctx context.Context,
	dp provider.DataProvider,
	repo *verbatim.Repository[E, K],
	mode harvest.Mode,
	next PageFunc[E],
) (info *harvest.Info) {
	info = harvest.NewInfo(dp.Identifier, dp.ID, mode)
	info.Start = time.Now()
	log := slog.With("provider", dp.Identifier, "run", info.RunID)

	defer repo.SetIncrementalMode(false)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Harvest panicked",
				"panic", r, "stack", string(debug.Stack()))
			fail(log, info, fmt.Errorf("panic: %v", r))
		}
	}()

	log.Info("Starting harvest", "mode", mode.String(), "collection", repo.PermanentName())

	repo.SetIncrementalMode(false)
	if n := repo.Count(ctx); n > 0 {
		info.PreHarvestCount = n
	}

	repo.SetIncrementalMode(true)
	if !repo.ClearCollection(ctx) {
		return finish(ctx, log, info, StoreError(dp.Identifier, repo.CollectionName()))
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(ctx, log, info, err)
		}

		page, more, err := next(ctx)
		if err != nil {
			return finish(ctx, log, info, err)
		}

		if len(page) > 0 {
			if out := repo.AddMany(ctx, page); out == verbatim.OutcomeFailed {
				return finish(ctx, log, info,
					StoreError(dp.Identifier, repo.CollectionName()))
			}
			info.Add(len(page))
			for i := range page {
				if m, ok := any(page[i]).(verbatim.Modifier); ok {
					info.Observe(m.LastModified())
				}
			}
			log.Debug("Page harvested", "records", len(page), "total", info.Count)
		}

		if dp.MaxRecords > 0 && info.Count >= dp.MaxRecords {
			log.Info("Record limit reached", "max_records", dp.MaxRecords)
			break
		}
		if !more {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return finish(ctx, log, info, err)
	}
	// an incremental run without changes is a no-op merge
	if info.Count == 0 && mode == harvest.Full {
		return finish(ctx, log, info, SourceDataMissingError(
			dp.Identifier, "no records", harvest.ErrSourceDataMissing))
	}
	if !repo.Permanentize(ctx, mode == harvest.Incremental) {
		return finish(ctx, log, info, StoreError(dp.Identifier, repo.PermanentName()))
	}

	info.Finish(harvest.Success)
	log.Info("Harvest finished",
		"records", humanize.Comma(int64(info.Count)),
		"duration", info.Duration().String(),
	)
	return info
}

// finish sets the final status of an interrupted run. Any error after
// ctx is done counts as cancellation, other errors fail the run.
func finish(
	ctx context.Context,
	log *slog.Logger,
	info *harvest.Info,
	err error,
) *harvest.Info {
	if ctx.Err() != nil {
		info.Notes = ctx.Err().Error()
		info.Finish(harvest.Canceled)
		log.Warn("Harvest canceled", "records", info.Count)
		return info
	}
	fail(log, info, err)
	return info
}

func fail(log *slog.Logger, info *harvest.Info, err error) {
	info.Notes = notes(err)
	info.Finish(harvest.Failed)
	log.Error("Harvest failed", "records", info.Count, "error", err)
}

// notes returns the technical message of an error.
func notes(err error) string {
	var gnErr *gn.Error
	if errors.As(err, &gnErr) && gnErr.Err != nil {
		return gnErr.Err.Error()
	}
	return err.Error()
}

// pause waits for d or until ctx is canceled.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pageSize returns the page size of a provider, or the default of its
// type if the size is not set.
func pageSize(dp provider.DataProvider) int {
	if dp.PageSize > 0 {
		return dp.PageSize
	}
	return provider.DefaultPageSize(dp.Type)
}
