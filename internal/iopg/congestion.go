package iopg

import (
	"errors"
	"strings"

	"github.com/gnames/gnsos/pkg/verbatim"
	"github.com/jackc/pgx/v5/pgconn"
)

// congestionCodes are SQLSTATE codes that go away when the load of
// the server decreases or a statement gets smaller.
var congestionCodes = map[string]struct{}{
	"53300": {}, // too_many_connections
	"53400": {}, // configuration_limit_exceeded
	"54000": {}, // program_limit_exceeded
	"57P03": {}, // cannot_connect_now
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
}

// paramLimitMsg is the client side error of pgx for statements with
// too many parameters.
const paramLimitMsg = "65535 parameters"

// classify wraps congestion-class errors with verbatim.ErrCongestion.
// Other errors are returned as they are.
func classify(err error) error {
	if err == nil || verbatim.IsCongestion(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := congestionCodes[pgErr.Code]; ok {
			return verbatim.Congestion(err)
		}
		return err
	}
	if strings.Contains(err.Error(), paramLimitMsg) {
		return verbatim.Congestion(err)
	}
	return err
}

// isUndefinedTable is true when a statement refers to a table that does
// not exist.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
