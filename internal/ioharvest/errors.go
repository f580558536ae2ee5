package ioharvest

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// StoreError is returned when harvested records cannot be written or
// promoted.
func StoreError(identifier, collection string) error {
	return &gn.Error{
		Code: errcode.HarvestStoreError,
		Msg:  "Cannot save records of <em>%s</em> to %s",
		Vars: []any{identifier, collection},
		Err: fmt.Errorf("store failed for collection %s of %s, see log",
			collection, identifier),
	}
}

// SourceDataMissingError is returned when a provider gives data without
// required parts.
func SourceDataMissingError(identifier, what string, err error) error {
	return &gn.Error{
		Code: errcode.HarvestSourceDataMissingError,
		Msg:  "Data of <em>%s</em> is incomplete: %s",
		Vars: []any{identifier, what},
		Err:  fmt.Errorf("%s of %s: %w", what, identifier, err),
	}
}

// UnknownTypeError is returned when no harvester exists for a provider
// type.
func UnknownTypeError(identifier, typ string) error {
	return &gn.Error{
		Code: errcode.ProviderUnknownTypeError,
		Msg:  "Provider <em>%s</em> has unknown type '%s'",
		Vars: []any{identifier, typ},
		Err:  fmt.Errorf("no harvester for type %s of %s", typ, identifier),
	}
}

// CanceledError is returned when harvesting of providers was stopped.
func CanceledError(done, total int) error {
	return &gn.Error{
		Code: errcode.HarvestCanceledError,
		Msg:  "Harvest canceled after %d of %d providers",
		Vars: []any{done, total},
		Err:  fmt.Errorf("harvest canceled after %d of %d providers", done, total),
	}
}

// AllProvidersFailedError is returned when no requested provider was
// harvested.
func AllProvidersFailedError(failed int) error {
	msg := `All %d data providers failed to harvest

<em>How to fix:</em>
  1. Check the log file for details about each failure
  2. Check sources in providers.yaml`

	return &gn.Error{
		Code: errcode.HarvestAllProvidersFailedError,
		Msg:  msg,
		Vars: []any{failed},
		Err:  fmt.Errorf("all %d providers failed", failed),
	}
}

// NoProvidersError is returned when no data provider can be harvested.
func NoProvidersError(ids []int, err error) error {
	msg := `No data providers to harvest

<em>How to fix:</em>
  1. Set 'is_active: true' for providers in providers.yaml
  2. Or give IDs of existing providers to the harvest command`

	return &gn.Error{
		Code: errcode.NoProvidersError,
		Msg:  msg,
		Err:  fmt.Errorf("no providers for IDs %v: %w", ids, err),
	}
}
