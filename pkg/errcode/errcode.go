package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError

	// Logging errors
	LogFileOpenError

	// Database errors
	DBConnectionError
	DBTableCheckError
	DBEmptyDatabaseError
	DBNotConnectedError
	DBTableExistsCheckError
	DBQueryTablesError
	DBDropTableError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaMigrateError
	SchemaProvidersSyncError

	// Provider registry errors
	ProvidersConfigError
	ProvidersValidationError
	ProviderUnknownTypeError
	NoProvidersError

	// Harvest errors
	HarvestSourceError
	HarvestSourceDataMissingError
	HarvestStoreError
	HarvestArchiveError
	HarvestLockError
	HarvestInfoSaveError
	HarvestInfoLoadError
	HarvestCanceledError
	HarvestAllProvidersFailedError

	// Process errors
	ProcessReadError
	ProcessWriteError
	ProcessStateError
)
