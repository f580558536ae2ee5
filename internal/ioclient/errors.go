package ioclient

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// SourceError is returned when a provider web service cannot give data.
func SourceError(u string, err error) error {
	msg := `Data provider service is unavailable

<em>Request:</em> %s

<em>How to fix:</em>
  1. Check the source URL in providers.yaml
  2. Try again later, the service might be down`

	return &gn.Error{
		Code: errcode.HarvestSourceError,
		Msg:  msg,
		Vars: []any{u},
		Err:  fmt.Errorf("request %s failed: %w", u, err),
	}
}
