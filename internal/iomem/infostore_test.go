package iomem_test

import (
	"context"
	"testing"
	"time"

	"github.com/gnames/gnsos/internal/iomem"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoStore(t *testing.T) {
	ctx := context.Background()
	s := iomem.NewInfoStore()

	last, err := s.LastSuccess(ctx, "mvm")
	require.NoError(t, err)
	assert.Nil(t, last)

	first := harvest.NewInfo("mvm", 1, harvest.Full)
	first.Finish(harvest.Success)
	first.End = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := harvest.NewInfo("mvm", 1, harvest.Full)
	second.Finish(harvest.Success)
	second.End = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	failed := harvest.NewInfo("mvm", 1, harvest.Full)
	failed.Finish(harvest.Failed)
	other := harvest.NewInfo("shark", 2, harvest.Full)
	other.Finish(harvest.Success)

	for _, v := range []*harvest.Info{second, first, failed, other} {
		require.NoError(t, s.Save(ctx, v))
	}
	assert.Len(t, s.All(), 4)

	last, err = s.LastSuccess(ctx, "mvm")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.RunID, last.RunID)

	second.Count = 10
	require.NoError(t, s.Save(ctx, second))
	assert.Len(t, s.All(), 4)
	last, _ = s.LastSuccess(ctx, "mvm")
	assert.Equal(t, 10, last.Count)
}
