package config

import (
	"strings"
	"time"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptDatabaseBatchSize sets the number of verbatim documents per write
// batch and per read page.
func OptDatabaseBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Batch Size", i) {
			c.Database.BatchSize = i
		}
	}
}

// OptStoreBackend sets the verbatim store backend.
// Valid values: "postgres", "memory".
func OptStoreBackend(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Store.Backend", s) {
			c.Store.Backend = s
		}
	}
}

// OptHarvestProviderIDs sets the list of data provider IDs to harvest.
// Empty slice means all active providers.
// Runtime-only field - not in ToOptions().
func OptHarvestProviderIDs(ii []int) Option {
	return func(c *Config) {
		if len(ii) > 0 {
			c.Harvest.ProviderIDs = ii
		}
	}
}

// OptHarvestIncremental requests incremental harvests.
// Runtime-only field - not in ToOptions().
func OptHarvestIncremental(b bool) Option {
	return func(c *Config) {
		c.Harvest.Incremental = b
	}
}

// OptHarvestMaxRecords caps the number of records harvested from every
// provider. Runtime-only field - not in ToOptions().
func OptHarvestMaxRecords(i int) Option {
	return func(c *Config) {
		if isValidInt("Max Records", i) {
			c.Harvest.MaxRecords = i
		}
	}
}

// OptRedisAddr sets the host:port of the redis server used for locks.
func OptRedisAddr(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Redis Address", s) {
			c.Redis.Addr = s
		}
	}
}

// OptRedisPassword sets the redis password.
func OptRedisPassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Redis Password", s) {
			c.Redis.Password = s
		}
	}
}

// OptRedisDB sets the redis logical database.
func OptRedisDB(i int) Option {
	return func(c *Config) {
		if i >= 0 {
			c.Redis.DB = i
		}
	}
}

// OptRedisLockTTL sets expiration of harvest locks.
// Must be a valid Go duration string, for example "6h".
func OptRedisLockTTL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidDuration("Redis Lock TTL", s) {
			c.Redis.LockTTL = s
		}
	}
}

// OptKafkaBrokers sets addresses of kafka brokers.
func OptKafkaBrokers(ss []string) Option {
	var res []string
	for _, v := range ss {
		v = strings.TrimSpace(v)
		if v != "" {
			res = append(res, v)
		}
	}
	return func(c *Config) {
		if len(res) > 0 {
			c.Kafka.Brokers = res
		}
	}
}

// OptKafkaTopic sets the topic of harvest events.
func OptKafkaTopic(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Kafka Topic", s) {
			c.Kafka.Topic = s
		}
	}
}

// OptMinioEndpoint sets host:port of s3-compatible storage.
func OptMinioEndpoint(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Minio Endpoint", s) {
			c.Minio.Endpoint = s
		}
	}
}

// OptMinioAccessKey sets the access key of s3-compatible storage.
func OptMinioAccessKey(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Minio Access Key", s) {
			c.Minio.AccessKey = s
		}
	}
}

// OptMinioSecretKey sets the secret key of s3-compatible storage.
func OptMinioSecretKey(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Minio Secret Key", s) {
			c.Minio.SecretKey = s
		}
	}
}

// OptMinioUseSSL sets if TLS is used to talk to s3-compatible storage.
func OptMinioUseSSL(b bool) Option {
	return func(c *Config) {
		c.Minio.UseSSL = b
	}
}

// OptMetricsAddr sets host:port of the prometheus endpoint.
func OptMetricsAddr(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Metrics Address", s) {
			c.Metrics.Addr = s
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers for parallel operations.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}

// LockTTL returns parsed Redis.LockTTL. Falls back to 6 hours, the
// value is validated by OptRedisLockTTL.
func (c *Config) LockTTL() time.Duration {
	d, err := time.ParseDuration(c.Redis.LockTTL)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}
