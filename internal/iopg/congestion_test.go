package iopg

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gnames/gnsos/pkg/verbatim"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg        string
		err        error
		congestion bool
	}{
		{"nil", nil, false},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"program limit", &pgconn.PgError{Code: "54000"}, true},
		{"wrapped", fmt.Errorf("x: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"param limit",
			errors.New("extended protocol limited to 65535 parameters"), true},
		{"other", errors.New("boom"), false},
	}

	for _, v := range tests {
		err := classify(v.err)
		assert.Equal(t, v.congestion, verbatim.IsCongestion(err), v.msg)
		if v.err != nil {
			assert.ErrorIs(t, err, v.err, v.msg)
		}
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "verbatim_mvm_observation_mvm",
		TableName("mvm_observation_mvm"))

	long := "dwca_observation_" + strings.Repeat("a", 50)
	perm := TableName(long)
	shadow := TableName(verbatim.ShadowName(long))
	assert.Len(t, perm, maxIdentifier)
	assert.Len(t, shadow, maxIdentifier)
	assert.NotEqual(t, perm, shadow)
	assert.Equal(t, perm, TableName(long))
}

func TestDedup(t *testing.T) {
	docs := []verbatim.Document{
		{ID: "1", Body: []byte(`{"a":1}`)},
		{ID: "2", Body: []byte(`{"a":2}`)},
		{ID: "1", Body: []byte(`{"a":3}`)},
	}
	res := dedup(docs)
	assert.Len(t, res, 2)
	assert.Equal(t, "1", res[0].ID)
	assert.Equal(t, `{"a":3}`, string(res[0].Body))
}
