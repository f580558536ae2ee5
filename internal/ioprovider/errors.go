package ioprovider

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// ProvidersConfigError creates an error for when providers.yaml
// cannot be loaded.
func ProvidersConfigError(path string, err error) error {
	msg := `Cannot load data providers configuration

<em>Configuration file:</em> %s

<em>Possible causes:</em>
  - File does not exist
  - Invalid YAML format
  - Permission denied

<em>How to fix:</em>
  1. Check if file exists: <em>ls -l %s</em>
  2. Validate YAML syntax`

	vars := []any{path, path}

	return &gn.Error{
		Code: errcode.ProvidersConfigError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to load providers config: %w", err),
	}
}

// ProvidersValidationError creates an error for invalid providers.yaml.
func ProvidersValidationError(path string, err error) error {
	msg := `Data providers configuration is invalid

<em>Configuration file:</em> %s
<em>Problem:</em> %s`

	return &gn.Error{
		Code: errcode.ProvidersValidationError,
		Msg:  msg,
		Vars: []any{path, err.Error()},
		Err:  fmt.Errorf("invalid providers config: %w", err),
	}
}
