package harvest_test

import (
	"testing"
	"time"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in  string
		ok  bool
		res time.Time
	}{
		{"2024-03-05", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05T10:20:30Z", true, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"2024-03-05 10:20:30", true, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"2024-03", true, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"20240305", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"05.03.2024", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05/2024-03-07", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"yesterday", false, time.Time{}},
	}

	for _, v := range tests {
		res, ok := harvest.ParseTime(v.in)
		assert.Equal(t, v.ok, ok, v.in)
		assert.True(t, v.res.Equal(res), v.in)
	}
}

func TestParseInterval(t *testing.T) {
	start, end := harvest.ParseInterval("2024-03-05/2024-03-07")
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 7, end.Day())

	start, end = harvest.ParseInterval("2024-03-05")
	require.NotNil(t, start)
	assert.Nil(t, end)

	start, end = harvest.ParseInterval("")
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestParseFloat(t *testing.T) {
	assert.InDelta(t, 59.33, *harvest.ParseFloat("59.33"), 1e-9)
	assert.InDelta(t, 18.06, *harvest.ParseFloat(" 18,06 "), 1e-9)
	assert.Nil(t, harvest.ParseFloat(""))
	assert.Nil(t, harvest.ParseFloat("n/a"))
}
