package ioarchive

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// FetchError is returned when an archive cannot be found or downloaded.
func FetchError(src string, err error) error {
	msg := `Cannot get archive <em>%s</em>

<em>How to fix:</em>
  1. Check the source of the provider in providers.yaml
  2. For s3:// sources check minio settings in config.yaml`

	return &gn.Error{
		Code: errcode.HarvestArchiveError,
		Msg:  msg,
		Vars: []any{src},
		Err:  fmt.Errorf("cannot fetch %s: %w", src, err),
	}
}

// FormatError is returned when an archive is not a readable Darwin
// Core Archive.
func FormatError(path string, err error) error {
	return &gn.Error{
		Code: errcode.HarvestArchiveError,
		Msg:  "Archive <em>%s</em> is not a valid Darwin Core Archive",
		Vars: []any{path},
		Err:  fmt.Errorf("cannot read archive %s: %w", path, err),
	}
}
