package main

import (
	"context"
	"fmt"

	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/kashmau/track-fitness/internal/config"
	"github.com/kashmau/track-fitness/internal/database"
	"github.com/kashmau/track-fitness/internal/handler"
	"github.com/kashmau/track-fitness/internal/logger"
	"github.com/kashmau/track-fitness/internal/middleware"
	"github.com/kashmau/track-fitness/internal/queue"
	"github.com/kashmau/track-fitness/internal/repository"
	"github.com/kashmau/track-fitness/internal/router"
	"github.com/kashmau/track-fitness/internal/service"
	"github.com/kashmau/track-fitness/internal/utils"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Run the user-profile service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProfile(cmd.Context())
	},
}

func runProfile(ctx context.Context) error {
	cfg := config.LoadProfile()
	log := logger.New("user-service", cfg.Log.Level, cfg.Log.Pretty)

	var issuer *utils.TokenIssuer
	switch cfg.IdentityMode {
	case middleware.IdentityModeToken:
		// only Verify is used here, so the TTL is irrelevant
		issuer = utils.NewTokenIssuer(cfg.JWTSecret, 0)
	case middleware.IdentityModeHeader:
		log.Warn().Msg("trusting X-User-Id; run behind a gateway that sets it")
	default:
		return fmt.Errorf("unknown PROFILE_IDENTITY_MODE %q", cfg.IdentityMode)
	}

	db, err := database.OpenPostgres(cfg.PGUser, cfg.PGPass, cfg.PGHost, cfg.PGPort, cfg.PGName)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := database.MigrateProfile(db); err != nil {
		return err
	}
	log.Info().Str("db", cfg.PGName).Msg("profile schema ready")

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	if cfg.Events.Enabled {
		audit := &queue.AuditLog{Dir: "logs"}
		consumer := &queue.Consumer{URL: cfg.Events.URL, Queue: cfg.Events.Queue, Handle: audit.Append, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("auth event consumer stopped")
			}
		}()
	}

	e := newEcho(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(logger.RequestLogger(log))
	router.RegisterProfile(e, router.ProfileDeps{
		Profile:  handler.NewProfileHandler(service.NewProfileService(repository.NewProfileRepo(db))),
		Identity: middleware.ProfileIdentity(cfg.IdentityMode, issuer),
		Cache:    middleware.NewRedisCache(cacheCfg, rdb),
		Purge:    middleware.PurgeOnWrite(cacheCfg, rdb),
		Ready: handler.Ready(map[string]func(context.Context) error{
			"postgres": sqlDB.PingContext,
		}),
	})

	return serve(ctx, e, cfg.Port, log)
}
