// Package iofs prepares directories and configuration files of GNsos.
package iofs

import (
	_ "embed"
	"os"

	"github.com/gnames/gnsos/pkg/config"
)

//go:embed config.yaml
var ConfigYAML string

//go:embed providers.yaml
var ProvidersYAML string

// EnsureDirs creates config, cache, archive and log directories.
func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.ArchiveDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

// EnsureConfigFile writes the default config.yaml if it does not exist.
func EnsureConfigFile(homeDir string) error {
	return ensureFile(config.ConfigFilePath(homeDir), ConfigYAML)
}

// EnsureProvidersFile writes an example providers.yaml if it does not
// exist.
func EnsureProvidersFile(homeDir string) error {
	return ensureFile(config.ProvidersFilePath(homeDir), ProvidersYAML)
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return CopyFileError(path, err)
	}

	return nil
}
