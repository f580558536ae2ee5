package ioschema

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/pkg/errcode"
)

// NotConnectedError creates an error for when schema
// operation is attempted without database connection.
func NotConnectedError() error {
	msg := "Schema operation attempted without database connection"

	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// GORMConnectionError creates an error for GORM
// connection failures.
func GORMConnectionError(err error) error {
	msg := `Cannot connect to database with GORM

<em>How to fix:</em>
  1. Ensure database operator is connected
  2. Check database configuration`

	return &gn.Error{
		Code: errcode.SchemaGORMConnectionError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to connect with GORM: %w", err),
	}
}

// CreateSchemaError creates an error for schema
// creation failures.
func CreateSchemaError(err error) error {
	msg := `Cannot create database schema

<em>Possible causes:</em>
  - Insufficient database permissions
  - Tables with the same names but different structure exist

<em>How to fix:</em>
  1. Check database user has CREATE permissions
  2. Run <em>gnsos create --force</em> to start from scratch`

	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to create schema: %w", err),
	}
}

// MigrateSchemaError creates an error for schema
// migration failures.
func MigrateSchemaError(err error) error {
	msg := `Cannot migrate database schema

<em>How to fix:</em>
  1. Check database user has ALTER permissions
  2. Backup harvest_infos before recreating the schema`

	return &gn.Error{
		Code: errcode.SchemaMigrateError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to migrate schema: %w", err),
	}
}

// SyncProvidersError creates an error for failures of
// data_providers update.
func SyncProvidersError(err error) error {
	msg := `Cannot update data providers table

<em>How to fix:</em>
  1. Run <em>gnsos create</em> to create missing tables
  2. Check providers.yaml for duplicate identifiers`

	return &gn.Error{
		Code: errcode.SchemaProvidersSyncError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to sync data providers: %w", err),
	}
}

// SaveInfoError is returned when the result of a harvest cannot be
// saved.
func SaveInfoError(identifier string, err error) error {
	return &gn.Error{
		Code: errcode.HarvestInfoSaveError,
		Msg:  "Cannot save harvest result of <em>%s</em>",
		Vars: []any{identifier},
		Err: fmt.Errorf(
			"failed to save harvest info of %s: %w", identifier, err),
	}
}

// LoadInfoError is returned when previous harvest results cannot be
// read.
func LoadInfoError(identifier string, err error) error {
	return &gn.Error{
		Code: errcode.HarvestInfoLoadError,
		Msg:  "Cannot read previous harvest of <em>%s</em>",
		Vars: []any{identifier},
		Err: fmt.Errorf(
			"failed to load harvest info of %s: %w", identifier, err),
	}
}
