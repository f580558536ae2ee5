package obsdb_test

import (
	"testing"
	"time"

	"github.com/gnames/gnsos/pkg/provider/obsdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastToVerbatim(t *testing.T) {
	f := obsdb.NewFactory()
	assert.Nil(t, f.CastToVerbatim(nil))

	mod := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	rows := []obsdb.Row{
		{ID: 900001, TaxonName: " Vulpes vulpes ", Modified: mod, Count: "1"},
		{ID: 900002, TaxonName: "Lynx lynx", IsDeleted: true},
		{ID: 900003, TaxonName: ""},
	}

	res := f.CastToVerbatim(rows)
	require.Len(t, res, 1)
	assert.Equal(t, int64(900001), res[0].VerbatimID())
	assert.Equal(t, "Vulpes vulpes", res[0].TaxonName)
	assert.Equal(t, mod, res[0].LastModified())

	rec := res[0].ToRecord()
	assert.Equal(t, "Vulpes vulpes", rec.ScientificName)
	assert.Equal(t, "1", rec.IndividualCount)
}
