package iologger

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// LogFileError means the log file in logDir cannot be opened for
// appending.
func LogFileError(logDir string, err error) error {
	return &gn.Error{
		Code: errcode.LogFileOpenError,
		Msg:  "Cannot write <em>%s</em> to <em>%s</em>, check log directory",
		Vars: []any{LogFile, logDir},
		Err:  fmt.Errorf("iologger: open %s in %s: %w", LogFile, logDir, err),
	}
}
