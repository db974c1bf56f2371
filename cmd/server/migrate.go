package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kashmau/track-fitness/internal/config"
	"github.com/kashmau/track-fitness/internal/database"
	"github.com/kashmau/track-fitness/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update a service's schema and exit",
}

var migrateAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Migrate the auth service's MySQL schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return migrateAuth(cmd.Context())
	},
}

var migrateProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Migrate the profile service's Postgres schema",
	RunE: func(*cobra.Command, []string) error {
		return migrateProfile()
	},
}

func init() {
	migrateCmd.AddCommand(migrateAuthCmd, migrateProfileCmd)
}

func migrateAuth(ctx context.Context) error {
	cfg := config.LoadAuth()
	log := logger.New("auth-service", cfg.Log.Level, cfg.Log.Pretty)
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.MigrateAuth(ctx, db); err != nil {
		return err
	}
	log.Info().Str("db", cfg.DBName).Msg("auth schema migrated")
	return nil
}

func migrateProfile() error {
	cfg := config.LoadProfile()
	log := logger.New("user-service", cfg.Log.Level, cfg.Log.Pretty)
	db, err := database.OpenPostgres(cfg.PGUser, cfg.PGPass, cfg.PGHost, cfg.PGPort, cfg.PGName)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.MigrateProfile(db); err != nil {
		return err
	}
	log.Info().Str("db", cfg.PGName).Msg("profile schema migrated")
	return nil
}
