package ioprocess_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/iomem"
	"github.com/gnames/gnsos/internal/ioprocess"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/gnames/gnsos/pkg/process"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/provider/mvm"
	"github.com/gnames/gnsos/pkg/verbatim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mvmProvider() provider.DataProvider {
	return provider.DataProvider{ID: 1, Identifier: "mvm", Type: provider.MVM}
}

func observations(n, firstID int) []mvm.Observation {
	start := time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)
	res := make([]mvm.Observation, n)
	for i := range res {
		res[i] = mvm.Observation{
			ID:             firstID + i,
			OccurrenceID:   fmt.Sprintf("occ:%d", i+1),
			ScientificName: "Parus major",
			Start:          &start,
			DecimalLat:     59.3,
			DecimalLon:     18.1,
		}
	}
	return res
}

func verbatimRepo(b *iomem.Backend) *verbatim.Repository[mvm.Observation, int] {
	return verbatim.NewRepository[mvm.Observation, int](
		b, mvmProvider().Collection(mvm.Collection),
	)
}

func seed(t *testing.T, b *iomem.Backend, n int) {
	seedFrom(t, b, n, 1)
}

// seedFrom replaces the verbatim collection with n observations whose
// local IDs start from firstID.
func seedFrom(t *testing.T, b *iomem.Backend, n, firstID int) {
	repo := verbatimRepo(b)
	require.True(t, repo.ClearCollection(context.Background()))
	if n > 0 {
		require.Equal(t, verbatim.OutcomeWritten,
			repo.AddMany(context.Background(), observations(n, firstID)))
	}
}

func newProcessor(b *iomem.Backend) *ioprocess.Processor {
	return ioprocess.New(
		b, process.NewBuilder(nil),
		ioprocess.OptJobs(3),
		ioprocess.OptRepoOptions(verbatim.OptBatchSize(10)),
	)
}

func processed(b *iomem.Backend, coll string) []process.Observation {
	repo := verbatim.NewRepository[process.Observation, string](b, coll)
	return repo.GetAll(context.Background())
}

func code(t *testing.T, err error) gn.ErrorCode {
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	return gnErr.Code
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	b := iomem.New()
	seed(t, b, 25)
	p := newProcessor(b)
	dp := mvmProvider()

	assert.Equal(t, "processed_observation_mvm_0", p.ActiveCollection(ctx, "mvm"))

	n, err := p.Process(ctx, dp)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, "processed_observation_mvm_1", p.ActiveCollection(ctx, "mvm"))

	res := processed(b, "processed_observation_mvm_1")
	require.Len(t, res, 25)
	for _, v := range res {
		assert.Equal(t, 1, v.DataProviderID)
		assert.Equal(t, "Parus major", v.ScientificName)
		assert.Equal(t, 2022, v.Year)
		assert.Equal(t, process.ObservationID("mvm", "occurrence:"+v.OccurrenceID), v.ID)
	}

	n, err = p.Process(ctx, dp)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, "processed_observation_mvm_0", p.ActiveCollection(ctx, "mvm"))
	assert.Len(t, processed(b, "processed_observation_mvm_0"), 25)
}

func TestProcessStableIDs(t *testing.T) {
	ctx := context.Background()
	b := iomem.New()
	p := newProcessor(b)
	dp := mvmProvider()

	ids := func() map[string]string {
		res := make(map[string]string)
		for _, v := range processed(b, p.ActiveCollection(ctx, "mvm")) {
			res[v.OccurrenceID] = v.ID
		}
		return res
	}

	seed(t, b, 25)
	_, err := p.Process(ctx, dp)
	require.NoError(t, err)
	first := ids()
	require.Len(t, first, 25)

	// the next harvest numbers the same records differently
	seedFrom(t, b, 25, 1001)
	_, err = p.Process(ctx, dp)
	require.NoError(t, err)
	assert.Equal(t, first, ids())
}

func TestProcessReadMismatch(t *testing.T) {
	ctx := context.Background()
	b := iomem.New()
	seed(t, b, 25)
	p := newProcessor(b)
	dp := mvmProvider()

	_, err := p.Process(ctx, dp)
	require.NoError(t, err)

	bad := verbatim.Document{ID: verbatim.DocID(26), Body: []byte(`{"id": "oops"`)}
	require.NoError(t, b.InsertMany(ctx, verbatimRepo(b).PermanentName(),
		[]verbatim.Document{bad}))
	require.Equal(t, int64(26), verbatimRepo(b).Count(ctx))

	n, err := p.Process(ctx, dp)
	require.Error(t, err)
	assert.Equal(t, errcode.ProcessReadError, code(t, err))
	assert.Equal(t, 25, n)
	assert.Equal(t, "processed_observation_mvm_1", p.ActiveCollection(ctx, "mvm"),
		"active instance is kept")
	assert.Len(t, processed(b, "processed_observation_mvm_1"), 25)
}

func TestProcessWriteFailure(t *testing.T) {
	ctx := context.Background()
	b := iomem.New()
	seed(t, b, 25)
	p := newProcessor(b)
	dp := mvmProvider()

	_, err := p.Process(ctx, dp)
	require.NoError(t, err)

	b.OnInsert = func(name string, _ int) error {
		if strings.HasPrefix(name, process.Collection) {
			return errors.New("disk full")
		}
		return nil
	}
	_, err = p.Process(ctx, dp)
	require.Error(t, err)
	assert.Equal(t, errcode.ProcessWriteError, code(t, err))
	assert.Equal(t, "processed_observation_mvm_1", p.ActiveCollection(ctx, "mvm"),
		"active instance is kept")
	assert.Len(t, processed(b, "processed_observation_mvm_1"), 25)
}

func TestProcessNotHarvested(t *testing.T) {
	p := newProcessor(iomem.New())
	_, err := p.Process(context.Background(), mvmProvider())
	require.Error(t, err)
	assert.Equal(t, errcode.ProcessReadError, code(t, err))
}

func TestProcessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := iomem.New()
	seed(t, b, 5)
	p := newProcessor(b)

	n, err := p.Process(ctx, mvmProvider())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "processed_observation_mvm_0",
		p.ActiveCollection(context.Background(), "mvm"))
}

func TestProcessEmpty(t *testing.T) {
	ctx := context.Background()
	b := iomem.New()
	seed(t, b, 0)
	p := newProcessor(b)

	n, err := p.Process(ctx, mvmProvider())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "processed_observation_mvm_1", p.ActiveCollection(ctx, "mvm"))
}

func TestProcessUnknownType(t *testing.T) {
	p := newProcessor(iomem.New())
	dp := mvmProvider()
	dp.Type = "ftp"
	_, err := p.Process(context.Background(), dp)
	require.Error(t, err)
	assert.Equal(t, errcode.ProviderUnknownTypeError, code(t, err))
}
