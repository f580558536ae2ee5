package ioharvest

import (
	"context"
	"errors"
	"testing"

	"github.com/gnames/gnsos/internal/iomem"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/verbatim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int `json:"id"`
}

func (i item) VerbatimID() int { return i.ID }

func TestRunRestoresMode(t *testing.T) {
	dp := provider.DataProvider{ID: 1, Identifier: "test"}
	tests := []struct {
		msg    string
		next   PageFunc[item]
		status harvest.Status
	}{
		{
			msg: "success",
			next: func(context.Context) ([]item, bool, error) {
				return []item{{ID: 1}}, false, nil
			},
			status: harvest.Success,
		},
		{
			msg: "failure",
			next: func(context.Context) ([]item, bool, error) {
				return nil, false, errors.New("boom")
			},
			status: harvest.Failed,
		},
		{
			msg: "panic",
			next: func(context.Context) ([]item, bool, error) {
				panic("boom")
			},
			status: harvest.Failed,
		},
	}

	for _, v := range tests {
		repo := verbatim.NewRepository[item, int](iomem.New(), "items")
		info := run(context.Background(), dp, repo, harvest.Full, v.next)
		assert.Equal(t, v.status, info.Status, v.msg)
		assert.False(t, repo.IncrementalMode(), v.msg)
		assert.False(t, info.End.IsZero(), v.msg)
	}
}

func TestRunNoRecords(t *testing.T) {
	dp := provider.DataProvider{ID: 1, Identifier: "test"}
	ctx := context.Background()
	empty := func(context.Context) ([]item, bool, error) {
		return nil, false, nil
	}

	tests := []struct {
		msg    string
		mode   harvest.Mode
		status harvest.Status
	}{
		{"full", harvest.Full, harvest.Failed},
		{"incremental", harvest.Incremental, harvest.Success},
	}

	for _, v := range tests {
		repo := verbatim.NewRepository[item, int](iomem.New(), "items")
		require.True(t, repo.AddCollection(ctx), v.msg)
		require.Equal(t, verbatim.OutcomeWritten,
			repo.AddMany(ctx, []item{{ID: 1}, {ID: 2}}), v.msg)

		info := run(ctx, dp, repo, v.mode, empty)
		assert.Equal(t, v.status, info.Status, v.msg)
		assert.Equal(t, int64(2), repo.Count(ctx), v.msg)
	}
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, 7, pageSize(provider.DataProvider{PageSize: 7}))
	assert.Equal(t, 10_000, pageSize(provider.DataProvider{Type: provider.DwcA}))
	assert.Equal(t, 1_000, pageSize(provider.DataProvider{Type: provider.Shark}))
}
