package iofs

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	originalErr := errors.New("permission denied")

	tests := []struct {
		name string
		err  error
		code gn.ErrorCode
		path string
	}{
		{"CreateDirError", CreateDirError("/test/dir", originalErr),
			errcode.CreateDirError, "/test/dir"},
		{"CopyFileError", CopyFileError("/test/config.yaml", originalErr),
			errcode.CopyFileError, "/test/config.yaml"},
		{"ReadFileError", ReadFileError("/test/providers.yaml", originalErr),
			errcode.ReadFileError, "/test/providers.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gnErr, ok := tt.err.(*gn.Error)
			require.True(t, ok, "Error should be of type *gn.Error")

			assert.Equal(t, tt.code, gnErr.Code)
			assert.NotEmpty(t, gnErr.Msg)
			require.Len(t, gnErr.Vars, 1)
			assert.Equal(t, tt.path, gnErr.Vars[0])
			assert.ErrorIs(t, gnErr.Err, originalErr)
			assert.Contains(t, gnErr.Err.Error(), "TestErrors",
				"error should name the calling function")
		})
	}
}
