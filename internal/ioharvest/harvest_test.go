package ioharvest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gnames/gnsos/internal/ioharvest"
	"github.com/gnames/gnsos/internal/iomem"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/provider/mvm"
	"github.com/gnames/gnsos/pkg/verbatim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mvmSource serves pages of the given sizes. After the last page it
// returns an empty page with zero MaxChangeID.
type mvmSource struct {
	sizes    []int
	calls    int
	modified []string
	onCall   func(call int) error
	changeID []int64
}

func (s *mvmSource) GetObservations(
	_ context.Context,
	changeID int64,
	_ int,
) (*mvm.ObservationsResponse, error) {
	s.calls++
	s.changeID = append(s.changeID, changeID)
	if s.onCall != nil {
		if err := s.onCall(s.calls); err != nil {
			return nil, err
		}
	}
	if s.calls > len(s.sizes) {
		return &mvm.ObservationsResponse{}, nil
	}

	n := s.sizes[s.calls-1]
	res := &mvm.ObservationsResponse{MaxChangeID: int64(s.calls * 100)}
	for i := range n {
		obs := mvm.WebServiceObservation{
			OccurrenceID:   fmt.Sprintf("occ:%d:%d", s.calls, i),
			ScientificName: "Parus major",
		}
		if s.calls <= len(s.modified) {
			obs.Modified = s.modified[s.calls-1]
		}
		res.Observations = append(res.Observations, obs)
	}
	return res, nil
}

func mvmProvider() provider.DataProvider {
	return provider.DataProvider{
		ID:         1,
		Identifier: "mvm",
		Type:       provider.MVM,
		PageSize:   10,
		PageDelay:  "0s",
	}
}

func permanent(b *iomem.Backend, dp provider.DataProvider) *verbatim.Repository[mvm.Observation, int] {
	return ioharvest.NewMVMHarvester(dp, nil, b).Repository()
}

func TestMVMHarvest(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	src := &mvmSource{sizes: []int{10, 10, 5}}
	h := ioharvest.NewMVMHarvester(dp, src, b)

	info := h.HarvestObservations(context.Background())
	assert.Equal(t, harvest.Success, info.Status, info.Notes)
	assert.Equal(t, 25, info.Count)
	assert.Equal(t, harvest.Full, info.Mode)
	assert.False(t, info.End.IsZero())
	assert.Equal(t, 4, src.calls)
	assert.Equal(t, []int64{1, 101, 201, 301}, src.changeID)

	repo := permanent(b, dp)
	all := repo.GetAll(context.Background())
	require.Len(t, all, 25)
	ids := make(map[int]struct{})
	for _, v := range all {
		ids[v.ID] = struct{}{}
	}
	assert.Len(t, ids, 25, "unique local IDs")

	ok, err := b.CollectionExists(context.Background(),
		verbatim.ShadowName(repo.PermanentName()))
	require.NoError(t, err)
	assert.False(t, ok, "shadow collection is promoted")
}

func TestMVMHarvestPreHarvestCount(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	ctx := context.Background()

	info := ioharvest.NewMVMHarvester(dp, &mvmSource{sizes: []int{7}}, b).
		HarvestObservations(ctx)
	require.Equal(t, harvest.Success, info.Status)
	assert.Zero(t, info.PreHarvestCount)

	info = ioharvest.NewMVMHarvester(dp, &mvmSource{sizes: []int{3}}, b).
		HarvestObservations(ctx)
	require.Equal(t, harvest.Success, info.Status)
	assert.Equal(t, int64(7), info.PreHarvestCount)
	assert.Equal(t, int64(3), permanent(b, dp).Count(ctx), "full harvest replaces")
}

func seed(t *testing.T, b *iomem.Backend, dp provider.DataProvider, n int) {
	t.Helper()
	info := ioharvest.NewMVMHarvester(dp, &mvmSource{sizes: []int{n}}, b).
		HarvestObservations(context.Background())
	require.Equal(t, harvest.Success, info.Status)
}

func TestMVMHarvestCanceled(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	seed(t, b, dp, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &mvmSource{
		sizes: []int{10, 10, 10, 10, 10},
		onCall: func(call int) error {
			if call == 2 {
				cancel()
			}
			return nil
		},
	}

	info := ioharvest.NewMVMHarvester(dp, src, b).HarvestObservations(ctx)
	assert.Equal(t, harvest.Canceled, info.Status)
	assert.Equal(t, 2, src.calls, "stops before page 3")
	assert.Equal(t, int64(3),
		permanent(b, dp).Count(context.Background()), "permanent is untouched")
}

func TestMVMHarvestFailed(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	src := &mvmSource{
		sizes: []int{10, 10, 5},
		onCall: func(call int) error {
			if call == 2 {
				return errors.New("service is down")
			}
			return nil
		},
	}

	info := ioharvest.NewMVMHarvester(dp, src, b).HarvestObservations(context.Background())
	assert.Equal(t, harvest.Failed, info.Status)
	assert.Equal(t, 10, info.Count)
	assert.Contains(t, info.Notes, "service is down")

	repo := permanent(b, dp)
	assert.False(t, repo.CheckIfCollectionExists(context.Background()),
		"shadow is not promoted")
}

func TestMVMHarvestStoreFailure(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	seed(t, b, dp, 4)
	b.OnInsert = func(string, int) error { return errors.New("disk full") }

	info := ioharvest.NewMVMHarvester(dp, &mvmSource{sizes: []int{10}}, b).
		HarvestObservations(context.Background())
	assert.Equal(t, harvest.Failed, info.Status)
	assert.Zero(t, info.Count)
	assert.Equal(t, int64(4), permanent(b, dp).Count(context.Background()))
}

func TestMVMHarvestCongestion(t *testing.T) {
	b := iomem.New()
	b.MaxBatch = 5
	dp := mvmProvider()

	info := ioharvest.NewMVMHarvester(dp, &mvmSource{sizes: []int{10, 10}}, b).
		HarvestObservations(context.Background())
	assert.Equal(t, harvest.Success, info.Status)
	assert.Equal(t, int64(20), permanent(b, dp).Count(context.Background()))
}

func TestMVMHarvestCap(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	dp.MaxRecords = 15
	src := &mvmSource{sizes: []int{10, 10, 10, 10}}

	info := ioharvest.NewMVMHarvester(dp, src, b).HarvestObservations(context.Background())
	assert.Equal(t, harvest.Success, info.Status)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 20, info.Count)
	assert.GreaterOrEqual(t, info.Count, dp.MaxRecords)
}

func TestMVMHarvestWatermark(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	src := &mvmSource{
		sizes: []int{2, 2, 2},
		modified: []string{
			"2024-01-01T00:00:00Z",
			"2024-03-01T00:00:00Z",
			"2024-02-01T00:00:00Z",
		},
	}

	info := ioharvest.NewMVMHarvester(dp, src, b).HarvestObservations(context.Background())
	require.Equal(t, harvest.Success, info.Status)
	require.NotNil(t, info.DataLastModified)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *info.DataLastModified)
}

func TestMVMHarvestEmpty(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	ctx := context.Background()
	seed(t, b, dp, 25)

	info := ioharvest.NewMVMHarvester(dp, &mvmSource{}, b).HarvestObservations(ctx)
	assert.Equal(t, harvest.Failed, info.Status)
	assert.Zero(t, info.Count)
	assert.Contains(t, info.Notes, "no records")
	assert.Equal(t, int64(25), permanent(b, dp).Count(ctx), "old records are kept")
}

func TestMVMHarvestPageDelay(t *testing.T) {
	b := iomem.New()
	dp := mvmProvider()
	dp.PageDelay = "1h"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	src := &mvmSource{sizes: []int{10, 10}}

	info := ioharvest.NewMVMHarvester(dp, src, b).HarvestObservations(ctx)
	assert.Equal(t, harvest.Canceled, info.Status)
	assert.Equal(t, 1, src.calls, "pause is interrupted by context")
}

type panicSource struct{}

func (panicSource) GetObservations(
	context.Context, int64, int,
) (*mvm.ObservationsResponse, error) {
	panic("unexpected data")
}

func TestMVMHarvestPanic(t *testing.T) {
	b := iomem.New()
	info := ioharvest.NewMVMHarvester(mvmProvider(), panicSource{}, b).
		HarvestObservations(context.Background())
	assert.Equal(t, harvest.Failed, info.Status)
	assert.Contains(t, info.Notes, "unexpected data")
}
