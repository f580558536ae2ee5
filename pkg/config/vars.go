package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "gnsos"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/gnsos by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/gnsos by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// ArchiveDir returns the directory where downloaded provider archives
// are kept during a harvest.
func ArchiveDir(homeDir string) string {
	return filepath.Join(CacheDir(homeDir), "archives")
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/gnsos/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/gnsos/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// ProvidersFilePath returns the full path to the providers.yaml file.
// Returns ~/.config/gnsos/providers.yaml by default.
func ProvidersFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "providers.yaml")
}
