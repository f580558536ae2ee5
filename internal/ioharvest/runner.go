package ioharvest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsos/internal/ioevents"
	"github.com/gnames/gnsos/internal/iolock"
	"github.com/gnames/gnsos/internal/iometrics"
	gnsos "github.com/gnames/gnsos/pkg"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
)

// HarvesterBuilder creates harvesters of data providers.
type HarvesterBuilder interface {
	Build(dp provider.DataProvider) (gnsos.Harvester, error)
}

// Runner harvests a list of data providers one after another.
type Runner struct {
	cfg     *config.Config
	builder HarvesterBuilder
	store   harvest.InfoStore
	locker  iolock.Locker
	events  ioevents.Publisher
	owner   string
}

// NewRunner creates a Runner. Results of runs are saved to store and
// published to events.
func NewRunner(
	cfg *config.Config,
	builder HarvesterBuilder,
	store harvest.InfoStore,
	locker iolock.Locker,
	events ioevents.Publisher,
) *Runner {
	host, _ := os.Hostname()
	return &Runner{
		cfg:     cfg,
		builder: builder,
		store:   store,
		locker:  locker,
		events:  events,
		owner:   fmt.Sprintf("%s:%d", host, os.Getpid()),
	}
}

// Run harvests providers selected by cfg.Harvest.ProviderIDs, or all
// active providers. A failed provider does not stop the rest. The error
// is returned only if nothing was harvested or the run was canceled.
func (r *Runner) Run(
	ctx context.Context,
	dps []provider.DataProvider,
) ([]*harvest.Info, error) {
	startTime := time.Now()
	selected, warnings, err := provider.Select(dps, r.cfg.Harvest.ProviderIDs)
	for _, v := range warnings {
		gn.Warn(v)
	}
	if err != nil {
		return nil, NoProvidersError(r.cfg.Harvest.ProviderIDs, err)
	}

	var res []*harvest.Info
	var successCount, errorCount, skipCount int
	for i, dp := range selected {
		if ctx.Err() != nil {
			return res, CanceledError(i, len(selected))
		}

		fmt.Println()
		fmt.Println(strings.Repeat("─", 60))
		gn.Info(fmt.Sprintf("Data Provider [%d]: %s", dp.ID, dp.Name))
		fmt.Println(strings.Repeat("─", 60))

		info, err := r.harvestOne(ctx, dp)
		switch {
		case err != nil:
			errorCount++
			slog.Error("Cannot harvest provider",
				"provider", dp.Identifier, "error", err)
			gn.PrintErrorMessage(err)
			continue
		case info == nil:
			skipCount++
			continue
		}

		res = append(res, info)
		if info.Status != harvest.Success {
			errorCount++
			gn.Warn("Harvest of <em>%s</em> ended as %s: %s",
				dp.Identifier, info.Status.String(), info.Notes)
			continue
		}
		successCount++
		gn.Info(fmt.Sprintf("Harvested %s records in %s",
			humanize.Comma(int64(info.Count)),
			gnfmt.TimeString(info.Duration().Seconds())))
	}

	totalDuration := time.Since(startTime)
	slog.Info("Harvest complete",
		"success", successCount,
		"errors", errorCount,
		"skipped", skipCount,
		"total", len(selected),
		"duration", gnfmt.TimeString(totalDuration.Seconds()),
	)
	gn.Info(`Harvest complete
Providers succeeded: %d, failed %d, skipped %d, total %d.
		Elapsed time: <em>%s</em>
`,
		successCount, errorCount, skipCount, len(selected),
		gnfmt.TimeString(totalDuration.Seconds()),
	)

	if ctx.Err() != nil {
		return res, CanceledError(len(selected), len(selected))
	}
	if errorCount > 0 && successCount == 0 {
		return res, AllProvidersFailedError(errorCount)
	}
	return res, nil
}

// harvestOne harvests a provider under its lock. Nil info without an
// error means the provider is being harvested by another process.
func (r *Runner) harvestOne(
	ctx context.Context,
	dp provider.DataProvider,
) (*harvest.Info, error) {
	if r.cfg.Harvest.MaxRecords > 0 {
		dp.MaxRecords = r.cfg.Harvest.MaxRecords
	}

	release, ok, err := r.locker.Acquire(ctx, dp.Identifier, r.owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		gn.Warn("Provider <em>%s</em> is being harvested elsewhere, skipping",
			dp.Identifier)
		slog.Warn("Harvest lock is taken", "provider", dp.Identifier)
		return nil, nil
	}
	defer release()

	h, err := r.builder.Build(dp)
	if err != nil {
		return nil, err
	}

	info := r.harvest(ctx, h)

	// results of canceled runs are saved too
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err = r.store.Save(saveCtx, info); err != nil {
		slog.Error("Cannot save harvest info",
			"provider", dp.Identifier, "run", info.RunID, "error", err)
		gn.PrintErrorMessage(err)
	}
	r.events.HarvestFinished(saveCtx, info)
	iometrics.RecordHarvest(info)
	return info, nil
}

// harvest runs an incremental harvest when it is requested, supported
// and a watermark of a previous successful run exists. Otherwise it runs
// a full harvest.
func (r *Runner) harvest(ctx context.Context, h gnsos.Harvester) *harvest.Info {
	dp := h.Provider()
	ih, ok := h.(gnsos.IncrementalHarvester)
	if !r.cfg.Harvest.Incremental || !dp.SupportsIncremental || !ok {
		if r.cfg.Harvest.Incremental {
			slog.Info("Incremental harvest is not supported, harvesting all",
				"provider", dp.Identifier)
		}
		return h.HarvestObservations(ctx)
	}

	last, err := r.store.LastSuccess(ctx, dp.Identifier)
	if err != nil {
		slog.Warn("Cannot read previous harvest, harvesting all",
			"provider", dp.Identifier, "error", err)
		return h.HarvestObservations(ctx)
	}
	if last == nil || last.DataLastModified == nil {
		slog.Info("No watermark of previous harvest, harvesting all",
			"provider", dp.Identifier)
		return h.HarvestObservations(ctx)
	}

	slog.Info("Harvesting changes",
		"provider", dp.Identifier, "since", last.DataLastModified.Format(time.RFC3339))
	return ih.HarvestIncremental(ctx, *last.DataLastModified)
}
