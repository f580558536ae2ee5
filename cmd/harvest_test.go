package cmd

import (
	"testing"
	"time"

	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHarvestCmd_Flags(t *testing.T) {
	cmd := getHarvestCmd()
	assert.Equal(t, "harvest", cmd.Use)

	tests := []struct {
		name, short, def string
	}{
		{"provider-ids", "p", "[]"},
		{"incremental", "i", "false"},
		{"max-records", "m", "0"},
	}
	for _, v := range tests {
		f := cmd.Flags().Lookup(v.name)
		require.NotNil(t, f, v.name)
		assert.Equal(t, v.short, f.Shorthand, v.name)
		assert.Equal(t, v.def, f.DefValue, v.name)
	}
}

func TestProviderIDsFlag(t *testing.T) {
	for _, c := range []*cobra.Command{getProcessCmd(), getScheduleCmd()} {
		f := c.Flags().Lookup("provider-ids")
		require.NotNil(t, f, c.Use)
		assert.Contains(t, f.Usage, c.Use)
	}
	assert.NotNil(t, getScheduleCmd().Flags().Lookup("no-process"))
}

func TestHarvestOptions(t *testing.T) {
	tests := []struct {
		msg         string
		args        []string
		ids         []int
		incremental bool
		maxRecords  int
	}{
		{"no flags", nil, nil, false, 0},
		{"ids", []string{"-p", "1,3"}, []int{1, 3}, false, 0},
		{"all", []string{"-p", "2", "-i", "-m", "50"}, []int{2}, true, 50},
	}

	for _, v := range tests {
		var ids []int
		var incremental bool
		var maxRecords int
		c := &cobra.Command{Use: "harvest"}
		providerIDsFlag(c, &ids, "harvest")
		c.Flags().BoolVarP(&incremental, "incremental", "i", false, "")
		c.Flags().IntVarP(&maxRecords, "max-records", "m", 0, "")
		require.NoError(t, c.ParseFlags(v.args), v.msg)

		cfg := config.New()
		cfg.Update(harvestOptions(c, ids, incremental, maxRecords))
		assert.Equal(t, v.ids, cfg.Harvest.ProviderIDs, v.msg)
		assert.Equal(t, v.incremental, cfg.Harvest.Incremental, v.msg)
		assert.Equal(t, v.maxRecords, cfg.Harvest.MaxRecords, v.msg)
	}
}

func TestNextDue(t *testing.T) {
	dps := []provider.DataProvider{{ID: 1}, {ID: 2}, {ID: 3}}
	now := time.Now()

	dp, at := nextDue(dps, map[int]time.Time{})
	assert.Equal(t, 1, dp.ID, "first provider is due first")
	assert.WithinDuration(t, now, at, time.Second)

	due := map[int]time.Time{
		1: now.Add(time.Hour),
		2: now.Add(time.Minute),
		3: now.Add(2 * time.Hour),
	}
	dp, at = nextDue(dps, due)
	assert.Equal(t, 2, dp.ID)
	assert.Equal(t, due[2], at)

	delete(due, 3)
	dp, _ = nextDue(dps, due)
	assert.Equal(t, 3, dp.ID, "provider without due time is due now")
}
