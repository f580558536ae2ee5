/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/iofs"
	"github.com/gnames/gnsos/internal/iologger"
	gnsos "github.com/gnames/gnsos/pkg"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
)

// getRootCmd returns the root command with all subcommands attached.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", gnsos.Version, gnsos.Build),
		Use:     "gnsos",
		Short:   "Harvests species observations from data providers",
		Long: `GNsos harvests species observation records from configured data
providers into verbatim collections and maps them to processed
observations.

Data providers are configured in providers.yaml, general settings in
config.yaml. Both files live in ~/.config/gnsos. Settings can be
overridden by GNSOS_* environment variables.

Examples:
  gnsos create
  gnsos harvest -p 1,3
  gnsos process
  gnsos schedule`,
		PersistentPreRunE: bootstrap,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Remove the automatic "gnsos version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for gnsos")

	rootCmd.AddCommand(
		getCreateCmd(),
		getMigrateCmd(),
		getHarvestCmd(),
		getProcessCmd(),
		getScheduleCmd(),
	)
	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Logs go to a file with defaults until config.yaml is read.
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureProvidersFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info(
		"Configuration files are available at <em>%s</em>",
		config.ConfigDir(homeDir),
	)

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	if err = iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"store", cfg.Store.Backend,
	)

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once.
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

// initEnvVars binds GNSOS_* environment variables. They match the
// persistent settings of config.yaml, runtime harvest settings come
// from flags.
func initEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("GNSOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Database configuration
	v.BindEnv("database.host", "GNSOS_DATABASE_HOST")
	v.BindEnv("database.port", "GNSOS_DATABASE_PORT")
	v.BindEnv("database.user", "GNSOS_DATABASE_USER")
	v.BindEnv("database.password", "GNSOS_DATABASE_PASSWORD")
	v.BindEnv("database.database", "GNSOS_DATABASE_DATABASE")
	v.BindEnv("database.ssl_mode", "GNSOS_DATABASE_SSL_MODE")
	v.BindEnv("database.batch_size", "GNSOS_DATABASE_BATCH_SIZE")

	v.BindEnv("store.backend", "GNSOS_STORE_BACKEND")

	v.BindEnv("redis.addr", "GNSOS_REDIS_ADDR")
	v.BindEnv("redis.password", "GNSOS_REDIS_PASSWORD")
	v.BindEnv("redis.db", "GNSOS_REDIS_DB")
	v.BindEnv("redis.lock_ttl", "GNSOS_REDIS_LOCK_TTL")

	v.BindEnv("kafka.brokers", "GNSOS_KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "GNSOS_KAFKA_TOPIC")

	v.BindEnv("minio.endpoint", "GNSOS_MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "GNSOS_MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "GNSOS_MINIO_SECRET_KEY")
	v.BindEnv("minio.use_ssl", "GNSOS_MINIO_USE_SSL")

	v.BindEnv("metrics.addr", "GNSOS_METRICS_ADDR")

	// Log configuration
	v.BindEnv("log.level", "GNSOS_LOG_LEVEL")
	v.BindEnv("log.format", "GNSOS_LOG_FORMAT")
	v.BindEnv("log.destination", "GNSOS_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "GNSOS_JOBS_NUMBER")

	v.AutomaticEnv()
}
