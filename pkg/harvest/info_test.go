package harvest_test

import (
	"sync"
	"testing"
	"time"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInfo(t *testing.T) {
	info := harvest.NewInfo("mvm", 3, harvest.Incremental)
	assert.Equal(t, "mvm", info.ID)
	assert.Equal(t, 3, info.DataProviderID)
	assert.Equal(t, harvest.NotYetRun, info.Status)
	assert.Equal(t, harvest.Incremental, info.Mode)
	assert.Len(t, info.RunID, 36)

	other := harvest.NewInfo("mvm", 3, harvest.Full)
	assert.NotEqual(t, info.RunID, other.RunID)
}

func TestObserve(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}
	info := harvest.NewInfo("shark", 2, harvest.Full)

	info.Observe(time.Time{})
	assert.Nil(t, info.DataLastModified)

	for _, v := range []time.Time{day(5), day(9), day(2), {}, day(7)} {
		info.Observe(v)
	}
	require.NotNil(t, info.DataLastModified)
	assert.Equal(t, day(9), *info.DataLastModified)
}

func TestFinish(t *testing.T) {
	info := harvest.NewInfo("dwca", 4, harvest.Full)
	info.Start = time.Now().Add(-time.Minute)
	info.Add(10)
	info.Add(5)
	info.Finish(harvest.Canceled)

	assert.Equal(t, 15, info.Count)
	assert.Equal(t, harvest.Canceled, info.Status)
	assert.False(t, info.End.IsZero())
	assert.GreaterOrEqual(t, info.Duration(), time.Minute)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status harvest.Status
		str    string
	}{
		{harvest.NotYetRun, "not_yet_run"},
		{harvest.Success, "success"},
		{harvest.Failed, "failed"},
		{harvest.Canceled, "canceled"},
	}

	for _, v := range tests {
		assert.Equal(t, v.str, v.status.String())
		assert.Equal(t, v.status, harvest.NewStatus(v.str))
	}
	assert.Equal(t, "unknown", harvest.Status(42).String())
	assert.Equal(t, harvest.Incremental, harvest.NewMode("incremental"))
	assert.Equal(t, harvest.Full, harvest.NewMode("whatever"))
}

func TestIDSequence(t *testing.T) {
	seq := harvest.NewIDSequence()
	var mu sync.Mutex
	seen := make(map[int]struct{})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 250 {
				id := seq.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
	assert.Equal(t, 1000, seq.Last())
}
