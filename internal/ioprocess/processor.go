// Package ioprocess maps permanent verbatim collections of data providers
// into processed observations.
package ioprocess

import (
	"context"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gnsos/pkg/process"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/provider/dwca"
	"github.com/gnames/gnsos/pkg/provider/mvm"
	"github.com/gnames/gnsos/pkg/provider/obsdb"
	"github.com/gnames/gnsos/pkg/provider/shark"
	"github.com/gnames/gnsos/pkg/verbatim"
	"golang.org/x/sync/errgroup"
)

// Processor implements gnsos.Processor.
type Processor struct {
	backend  verbatim.Backend
	builder  *process.Builder
	jobs     int
	progress bool
	opts     []verbatim.RepoOption
	now      func() time.Time
}

// Option changes a Processor.
type Option func(*Processor)

// OptJobs sets the number of mapping workers.
func OptJobs(i int) Option {
	return func(p *Processor) {
		if i > 0 {
			p.jobs = i
		}
	}
}

// OptProgress shows a progress bar while processing.
func OptProgress(b bool) Option {
	return func(p *Processor) {
		p.progress = b
	}
}

// OptRepoOptions sets options of verbatim and processed repositories.
func OptRepoOptions(opts ...verbatim.RepoOption) Option {
	return func(p *Processor) {
		p.opts = opts
	}
}

// New creates a Processor that reads and writes collections of backend.
func New(
	backend verbatim.Backend,
	builder *process.Builder,
	opts ...Option,
) *Processor {
	res := &Processor{
		backend: backend,
		builder: builder,
		jobs:    1,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Process maps the permanent verbatim collection of a provider into the
// inactive processed collection and makes it active. The active instance
// does not change if anything fails.
func (p *Processor) Process(
	ctx context.Context,
	dp provider.DataProvider,
) (int, error) {
	switch dp.Type {
	case provider.MVM:
		return processCollection[mvm.Observation, int](ctx, p, dp, mvm.Collection)
	case provider.Shark:
		return processCollection[shark.Observation, string](ctx, p, dp, shark.Collection)
	case provider.DwcA:
		return processCollection[dwca.Observation, int](ctx, p, dp, dwca.Collection)
	case provider.ObsDB:
		return processCollection[obsdb.Observation, int64](ctx, p, dp, obsdb.Collection)
	default:
		return 0, UnknownTypeError(dp.Identifier, string(dp.Type))
	}
}

// ActiveCollection returns the processed collection readers should use
// for a provider.
func (p *Processor) ActiveCollection(
	ctx context.Context,
	identifier string,
) string {
	st, _ := p.stateRepo().Get(ctx, identifier)
	return st.Active.Collection(identifier)
}

type recorderEntity[K verbatim.Key] interface {
	verbatim.Entity[K]
	process.Recorder
}

func processCollection[E recorderEntity[K], K verbatim.Key](
	ctx context.Context,
	p *Processor,
	dp provider.DataProvider,
	base string,
) (int, error) {
	src := verbatim.NewRepository[E, K](p.backend, dp.Collection(base), p.opts...)
	if !src.CheckIfCollectionExists(ctx) {
		return 0, NotHarvestedError(dp.Identifier, src.PermanentName())
	}
	total := src.Count(ctx)
	if total < 0 {
		return 0, ReadError(dp.Identifier, src.PermanentName(), 0, total)
	}

	states := p.stateRepo()
	st, ok := states.Get(ctx, dp.Identifier)
	if !ok {
		st = process.State{Identifier: dp.Identifier}
	}
	target := st.Active.Inactive()

	dst := verbatim.NewRepository[process.Observation, string](
		p.backend, target.Collection(dp.Identifier), p.opts...,
	)
	if !dst.ClearCollection(ctx) {
		return 0, WriteError(dp.Identifier, dst.PermanentName())
	}

	slog.Info("Processing verbatim observations",
		"provider", dp.Identifier, "total", total,
		"target", dst.PermanentName())

	var bar *pb.ProgressBar
	if p.progress {
		bar = pb.Full.Start64(total)
		bar.Set("prefix", "Processing "+dp.Identifier+": ")
		bar.Set(pb.CleanOnFinish, true)
		defer bar.Finish()
	}

	var count int
	for skip := 0; ; skip += src.BatchSize() {
		if err := ctx.Err(); err != nil {
			return count, CanceledError(dp.Identifier, count, err)
		}
		page := src.GetBatch(ctx, skip)
		if len(page) == 0 {
			break
		}

		obs, err := mapPage(ctx, p, dp, page)
		if err != nil {
			return count, CanceledError(dp.Identifier, count, err)
		}
		if dst.AddMany(ctx, obs) == verbatim.OutcomeFailed {
			return count, WriteError(dp.Identifier, dst.PermanentName())
		}
		count += len(obs)
		if bar != nil {
			bar.Add(len(page))
		}
	}

	if int64(count) < total {
		// GetBatch logs and drops pages it cannot read.
		return count, ReadError(dp.Identifier, src.PermanentName(), count, total)
	}

	st.Active = target
	st.Count = count
	st.Processed = p.now().UTC()
	if !states.Update(ctx, st) {
		return count, StateError(dp.Identifier)
	}

	slog.Info("Processed verbatim observations",
		"provider", dp.Identifier, "count", humanize.Comma(int64(count)),
		"active", dst.PermanentName())
	return count, nil
}

// mapPage builds processed observations of a page. The page is divided
// into one chunk per worker, order of the page is kept.
func mapPage[E recorderEntity[K], K verbatim.Key](
	ctx context.Context,
	p *Processor,
	dp provider.DataProvider,
	page []E,
) ([]process.Observation, error) {
	res := make([]process.Observation, len(page))
	chunk := (len(page) + p.jobs - 1) / p.jobs
	base := process.Source{
		ProviderID: dp.ID,
		Identifier: dp.Identifier,
		LocalID:    dp.Type.LocalIDs(),
	}

	g, gCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(page); start += chunk {
		end := min(start+chunk, len(page))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1000 == 0 {
					if err := gCtx.Err(); err != nil {
						return err
					}
				}
				src := base
				src.VerbatimID = verbatim.DocID(page[i].VerbatimID())
				res[i] = p.builder.Build(src, page[i].ToRecord())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Processor) stateRepo() *verbatim.Repository[process.State, string] {
	return verbatim.NewRepository[process.State, string](
		p.backend, process.StateCollection,
	)
}
