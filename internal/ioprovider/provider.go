// Package ioprovider loads the registry of data providers from
// providers.yaml.
package ioprovider

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/provider"
	"gopkg.in/yaml.v3"
)

type ioprovider struct {
	path string
}

// New creates a registry that reads providers.yaml from the config
// directory.
func New(cfg *config.Config) provider.Registry {
	return NewFromFile(config.ProvidersFilePath(cfg.HomeDir))
}

// NewFromFile creates a registry that reads the given file.
func NewFromFile(path string) provider.Registry {
	return &ioprovider{path: path}
}

// Load reads and validates data providers. Non-fatal issues are
// corrected, kept in Warnings and shown to the user.
func (p *ioprovider) Load() (*provider.ProvidersConfig, error) {
	res, err := loadProvidersConfig(p.path)
	if err != nil {
		return nil, ProvidersConfigError(p.path, err)
	}

	if err = res.Validate(); err != nil {
		return nil, ProvidersValidationError(p.path, err)
	}

	for _, w := range res.Warnings {
		gn.Warn("Provider %d, <em>%s</em>: %s. %s",
			w.DataProviderID, w.Field, w.Message, w.Suggestion)
		slog.Warn("Provider configuration issue",
			"id", w.DataProviderID, "field", w.Field, "message", w.Message)
	}
	return res, nil
}

func loadProvidersConfig(path string) (*provider.ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers config file: %w", err)
	}

	var res provider.ProvidersConfig
	if err = yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse providers config file: %w", err)
	}
	return &res, nil
}
