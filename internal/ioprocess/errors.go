package ioprocess

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// NotHarvestedError is returned when a provider has no permanent verbatim
// collection yet.
func NotHarvestedError(identifier, collection string) error {
	msg := `Provider <em>%s</em> is not harvested yet

<em>How to fix:</em>
  1. Run 'gnsos harvest' for the provider first`

	return &gn.Error{
		Code: errcode.ProcessReadError,
		Msg:  msg,
		Vars: []any{identifier},
		Err:  fmt.Errorf("collection %s does not exist", collection),
	}
}

// ReadError is returned when not all verbatim records could be read.
func ReadError(identifier, collection string, read int, total int64) error {
	return &gn.Error{
		Code: errcode.ProcessReadError,
		Msg:  "Cannot read verbatim records of <em>%s</em>",
		Vars: []any{identifier},
		Err: fmt.Errorf("read %d of %d records from %s, see log",
			read, total, collection),
	}
}

// WriteError is returned when processed observations cannot be saved.
func WriteError(identifier, collection string) error {
	return &gn.Error{
		Code: errcode.ProcessWriteError,
		Msg:  "Cannot save processed observations of <em>%s</em>",
		Vars: []any{identifier},
		Err:  fmt.Errorf("write to %s failed, see log", collection),
	}
}

// StateError is returned when the active instance cannot be switched.
func StateError(identifier string) error {
	return &gn.Error{
		Code: errcode.ProcessStateError,
		Msg:  "Cannot switch processed collection of <em>%s</em>",
		Vars: []any{identifier},
		Err:  fmt.Errorf("cannot save process state of %s", identifier),
	}
}

// CanceledError is returned when processing was stopped.
func CanceledError(identifier string, done int, err error) error {
	return &gn.Error{
		Code: errcode.ProcessWriteError,
		Msg:  "Processing of <em>%s</em> canceled after %d records",
		Vars: []any{identifier, done},
		Err:  fmt.Errorf("processing of %s canceled: %w", identifier, err),
	}
}

// UnknownTypeError is returned for providers of unknown type.
func UnknownTypeError(identifier, typ string) error {
	return &gn.Error{
		Code: errcode.ProviderUnknownTypeError,
		Msg:  "Provider <em>%s</em> has unknown type '%s'",
		Vars: []any{identifier, typ},
		Err:  fmt.Errorf("no processing for type %s of %s", typ, identifier),
	}
}
