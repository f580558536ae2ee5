package iodb

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionError_Structure(t *testing.T) {
	originalErr := errors.New("connection refused")

	err := ConnectionError("localhost", 5432, "gnsos", "postgres",
		originalErr)

	require.NotNil(t, err)

	gnErr, ok := err.(*gn.Error)
	require.True(t, ok, "Error should be of type *gn.Error")

	assert.Equal(t, errcode.DBConnectionError, gnErr.Code)
	assert.NotEmpty(t, gnErr.Msg)
	assert.Len(t, gnErr.Vars, 4)
	assert.ErrorIs(t, gnErr.Err, originalErr)
	assert.Contains(t, gnErr.Err.Error(), "localhost:5432/gnsos")
}

func TestNotConnectedError_Structure(t *testing.T) {
	err := NotConnectedError()

	gnErr, ok := err.(*gn.Error)
	require.True(t, ok, "Error should be of type *gn.Error")
	assert.Equal(t, errcode.DBNotConnectedError, gnErr.Code)
	assert.NotEmpty(t, gnErr.Msg)
}

func TestErrors_Wrapping(t *testing.T) {
	originalErr := errors.New("root cause")

	tests := []struct {
		name string
		err  error
		code gn.ErrorCode
	}{
		{"TableCheckError", TableCheckError(originalErr),
			errcode.DBTableCheckError},
		{"TableExistsCheckError", TableExistsCheckError("t", originalErr),
			errcode.DBTableExistsCheckError},
		{"QueryTablesError", QueryTablesError(originalErr),
			errcode.DBQueryTablesError},
		{"DropTableError", DropTableError("t", originalErr),
			errcode.DBDropTableError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gnErr, ok := tt.err.(*gn.Error)
			require.True(t, ok)
			assert.Equal(t, tt.code, gnErr.Code)
			assert.NotEmpty(t, gnErr.Msg)
			assert.ErrorIs(t, gnErr.Err, originalErr)
		})
	}
}
