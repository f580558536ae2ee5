package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnsureDirs verifies all required directories are created
// and repeated calls succeed.
func TestEnsureDirs(t *testing.T) {
	tmpDir := t.TempDir()

	for range 2 {
		require.NoError(t, EnsureDirs(tmpDir))
	}

	dirs := []string{
		filepath.Join(tmpDir, ".config", "gnsos"),
		filepath.Join(tmpDir, ".cache", "gnsos"),
		filepath.Join(tmpDir, ".cache", "gnsos", "archives"),
		filepath.Join(tmpDir, ".local", "share", "gnsos", "logs"),
	}
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), dir)
	}
}

// TestTouchDir_ExistingDirectory verifies existing directory
// is not modified.
func TestTouchDir_ExistingDirectory(t *testing.T) {
	existingDir := filepath.Join(t.TempDir(), "existing")
	require.NoError(t, os.MkdirAll(existingDir, 0700))

	require.NoError(t, touchDir(existingDir))

	info, err := os.Stat(existingDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestEnsureFiles(t *testing.T) {
	tests := []struct {
		name    string
		ensure  func(string) error
		file    string
		content string
	}{
		{"config", EnsureConfigFile, "config.yaml", ConfigYAML},
		{"providers", EnsureProvidersFile, "providers.yaml", ProvidersYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			require.NoError(t, EnsureDirs(tmpDir))
			require.NoError(t, tt.ensure(tmpDir))

			path := filepath.Join(tmpDir, ".config", "gnsos", tt.file)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(content))

			// existing file is not overwritten
			custom := "# custom\n"
			require.NoError(t, os.WriteFile(path, []byte(custom), 0644))
			require.NoError(t, tt.ensure(tmpDir))
			content, err = os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, custom, string(content))
		})
	}
}

func TestEnsureConfigFile_NoDir(t *testing.T) {
	err := EnsureConfigFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
