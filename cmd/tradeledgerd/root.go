package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"trade-ledger-backend/config"
	"trade-ledger-backend/internal/db"
)

const defaultConfigPath = "./config/config.yaml"

var rootCmd = &cobra.Command{
	Use:           "tradeledgerd",
	Short:         "Commodity trade ledger built from game journal files",
	Long:          `Reads game journal files, records commodity purchases and tracks whether each lot was sold or delivered.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level (debug, info, warn, error)")

	viper.SetEnvPrefix("TRADELEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindEnv("log-level", "TRADELEDGER_LOG_LEVEL", "LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, scanCmd, migrateCmd)
}

// loadConfig reads the config file selected by flag or environment and
// applies its logging settings.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load configuration from %s", path)
	}

	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	setupLogging(cfg.Logging)

	log.Info().Str("path", path).Str("log_directory", cfg.LogDirectory).
		Int("colonized_systems", len(cfg.ColonizedSystems)).Msg("configuration loaded")
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) {
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level; using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func openDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize database")
	}
	closeFn := func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return gormDB, closeFn, nil
}
