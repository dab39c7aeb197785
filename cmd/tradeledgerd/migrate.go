package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// openDatabase migrates as part of initialisation.
		_, closeDB, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		closeDB()

		log.Info().Str("driver", cfg.Database.Driver).Msg("schema is up to date")
		return nil
	},
}
