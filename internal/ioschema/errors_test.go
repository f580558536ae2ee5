package ioschema

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNotConnectedError_Structure verifies error structure.
func TestNotConnectedError_Structure(t *testing.T) {
	err := NotConnectedError()

	require.NotNil(t, err)

	gnErr, ok := err.(*gn.Error)
	require.True(t, ok, "Error should be of type *gn.Error")

	assert.Equal(t, errcode.DBNotConnectedError, gnErr.Code)
	assert.NotEmpty(t, gnErr.Msg)
}

// TestSaveInfoError_Structure verifies error structure.
func TestSaveInfoError_Structure(t *testing.T) {
	originalErr := errors.New("insert failed")

	err := SaveInfoError("mvm", originalErr)

	gnErr, ok := err.(*gn.Error)
	require.True(t, ok, "Error should be of type *gn.Error")

	assert.Equal(t, errcode.HarvestInfoSaveError, gnErr.Code)
	require.Len(t, gnErr.Vars, 1)
	assert.Equal(t, "mvm", gnErr.Vars[0])
	assert.ErrorIs(t, gnErr.Err, originalErr)
}

// TestAllErrors_ErrorWrapping verifies proper error
// wrapping.
func TestAllErrors_ErrorWrapping(t *testing.T) {
	originalErr := errors.New("root cause")

	tests := []struct {
		name  string
		error error
		code  gn.ErrorCode
	}{
		{
			name:  "GORMConnectionError",
			error: GORMConnectionError(originalErr),
			code:  errcode.SchemaGORMConnectionError,
		},
		{
			name:  "CreateSchemaError",
			error: CreateSchemaError(originalErr),
			code:  errcode.SchemaCreateError,
		},
		{
			name:  "MigrateSchemaError",
			error: MigrateSchemaError(originalErr),
			code:  errcode.SchemaMigrateError,
		},
		{
			name:  "SyncProvidersError",
			error: SyncProvidersError(originalErr),
			code:  errcode.SchemaProvidersSyncError,
		},
		{
			name:  "LoadInfoError",
			error: LoadInfoError("shark", originalErr),
			code:  errcode.HarvestInfoLoadError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gnErr := tt.error.(*gn.Error)
			assert.Equal(t, tt.code, gnErr.Code)
			assert.NotEmpty(t, gnErr.Msg)
			assert.ErrorIs(t, gnErr.Err, originalErr,
				"Should wrap original error")
		})
	}
}
