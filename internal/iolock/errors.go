package iolock

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// LockError is returned when the lock service cannot be reached.
func LockError(key string, err error) error {
	msg := `Cannot acquire harvest lock of <em>%s</em>

<em>How to fix:</em>
  1. Check that redis is running at the configured address
  2. Remove redis.addr from config.yaml to use in-process locks`

	return &gn.Error{
		Code: errcode.HarvestLockError,
		Msg:  msg,
		Vars: []any{key},
		Err:  fmt.Errorf("failed to acquire lock %s: %w", key, err),
	}
}
