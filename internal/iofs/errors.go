package iofs

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// CreateDirError is returned when a directory of GNsos cannot be
// created.
func CreateDirError(dir string, err error) error {
	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  "Cannot create %s",
		Vars: []any{dir},
		Err: fmt.Errorf("from %s: cannot create directory: %w",
			caller(), err),
	}
}

// CopyFileError is returned when a default configuration file cannot
// be written.
func CopyFileError(file string, err error) error {
	return &gn.Error{
		Code: errcode.CopyFileError,
		Msg:  "Cannot write default configuration to %s",
		Vars: []any{file},
		Err: fmt.Errorf("from %s: cannot copy file: %w",
			caller(), err),
	}
}

// ReadFileError is returned when a configuration file cannot be read.
func ReadFileError(path string, err error) error {
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  "Cannot read <em>%s</em>",
		Vars: []any{path},
		Err: fmt.Errorf("from %s: cannot read %s: %w",
			caller(), path, err),
	}
}

// caller returns the name of the function that called an error
// constructor.
func caller() string {
	pc, _, _, _ := runtime.Caller(2)
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fn.Name()
	}
	return "unknown"
}
