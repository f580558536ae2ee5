// Package iotesting provides shared test utilities for integration tests.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gnames/gnsos/internal/iodb"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/db"
	"github.com/spf13/viper"
)

const (
	// TestDatabaseName is the database name used for all integration tests.
	// This ensures tests never accidentally run against production databases.
	TestDatabaseName = "gnsos_test"
)

// GetTestConfig returns a configuration suitable for integration tests.
// Defaults are overridden by GNSOS_DATABASE_* environment variables,
// the database name is always TestDatabaseName.
func GetTestConfig() *config.Config {
	v := viper.New()
	v.SetEnvPrefix("GNSOS")
	v.AutomaticEnv()

	var opts []config.Option
	if s := v.GetString("database_host"); s != "" {
		opts = append(opts, config.OptDatabaseHost(s))
	}
	if i := v.GetInt("database_port"); i > 0 {
		opts = append(opts, config.OptDatabasePort(i))
	}
	if s := v.GetString("database_user"); s != "" {
		opts = append(opts, config.OptDatabaseUser(s))
	}
	if s := v.GetString("database_password"); s != "" {
		opts = append(opts, config.OptDatabasePassword(s))
	}

	cfg := config.New()
	cfg.Update(opts)

	// Always use test database for safety
	cfg.Database.Database = TestDatabaseName
	return cfg
}

// GetTestDatabaseConfig returns only the database configuration for tests.
func GetTestDatabaseConfig() *config.DatabaseConfig {
	cfg := GetTestConfig()
	return &cfg.Database
}

// ConnectOrSkip connects to the test database. The test is skipped in
// short mode or when PostgreSQL is not reachable.
func ConnectOrSkip(t *testing.T) db.Operator {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, GetTestDatabaseConfig()); err != nil {
		t.Skipf("PostgreSQL is not available: %v", err)
	}
	t.Cleanup(func() { op.Close() })
	return op
}

// WriteTempProvidersYAML writes providers.yaml into a temporary config
// directory and returns its path.
//
// Usage:
//
//	path := iotesting.WriteTempProvidersYAML(t, `
//	data_providers:
//	  - id: 1
//	    identifier: mvm
//	`)
func WriteTempProvidersYAML(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "providers.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatalf("Failed to write temp providers.yaml: %v", err)
	}
	return path
}
