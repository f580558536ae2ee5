package ioobsdb

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// OpenError is returned when an export file cannot be opened.
func OpenError(path string, err error) error {
	return &gn.Error{
		Code: errcode.HarvestArchiveError,
		Msg:  "Cannot open observation database export <em>%s</em>",
		Vars: []any{path},
		Err:  fmt.Errorf("cannot open sqlite file %s: %w", path, err),
	}
}

// ReadError is returned when observations of an export cannot be read.
func ReadError(path string, err error) error {
	return &gn.Error{
		Code: errcode.HarvestSourceDataMissingError,
		Msg:  "Cannot read observations from <em>%s</em>",
		Vars: []any{path},
		Err:  fmt.Errorf("cannot query observations of %s: %w", path, err),
	}
}
