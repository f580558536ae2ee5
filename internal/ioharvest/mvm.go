package ioharvest

import (
	"context"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/provider/mvm"
	"github.com/gnames/gnsos/pkg/verbatim"
)

// MVMSource returns pages of observations changed at or after changeID.
// A page with zero MaxChangeID is the last one.
type MVMSource interface {
	GetObservations(
		ctx context.Context,
		changeID int64,
		pageSize int,
	) (*mvm.ObservationsResponse, error)
}

// MVMHarvester harvests the MVM web service following its change-id
// cursor.
type MVMHarvester struct {
	dp      provider.DataProvider
	src     MVMSource
	backend verbatim.Backend
	opts    []verbatim.RepoOption
}

// NewMVMHarvester creates a harvester of an MVM provider.
func NewMVMHarvester(
	dp provider.DataProvider,
	src MVMSource,
	backend verbatim.Backend,
	opts ...verbatim.RepoOption,
) *MVMHarvester {
	return &MVMHarvester{dp: dp, src: src, backend: backend, opts: opts}
}

// Provider returns the harvested data provider.
func (h *MVMHarvester) Provider() provider.DataProvider {
	return h.dp
}

// Repository returns the verbatim repository of the provider.
func (h *MVMHarvester) Repository() *verbatim.Repository[mvm.Observation, int] {
	return verbatim.NewRepository[mvm.Observation, int](
		h.backend, h.dp.Collection(mvm.Collection), h.opts...,
	)
}

// HarvestObservations reads all pages of the service. Requests are
// separated by the page delay of the provider.
func (h *MVMHarvester) HarvestObservations(ctx context.Context) *harvest.Info {
	f := mvm.NewFactory(harvest.NewIDSequence())
	changeID := int64(1)
	var started bool

	next := func(ctx context.Context) ([]mvm.Observation, bool, error) {
		if started {
			if err := pause(ctx, h.dp.Delay()); err != nil {
				return nil, false, err
			}
		}
		started = true

		res, err := h.src.GetObservations(ctx, changeID, pageSize(h.dp))
		if err != nil {
			return nil, false, err
		}
		if res == nil || res.MaxChangeID == 0 {
			return f.CastToVerbatim(res), false, nil
		}
		changeID = res.MaxChangeID + 1
		return f.CastToVerbatim(res), true, nil
	}

	return run(ctx, h.dp, h.Repository(), harvest.Full, next)
}
