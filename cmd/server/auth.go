package main

import (
	"context"

	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/kashmau/track-fitness/internal/config"
	"github.com/kashmau/track-fitness/internal/database"
	"github.com/kashmau/track-fitness/internal/handler"
	"github.com/kashmau/track-fitness/internal/logger"
	"github.com/kashmau/track-fitness/internal/middleware"
	"github.com/kashmau/track-fitness/internal/oauth"
	"github.com/kashmau/track-fitness/internal/repository"
	"github.com/kashmau/track-fitness/internal/router"
	"github.com/kashmau/track-fitness/internal/service"
	"github.com/kashmau/track-fitness/internal/utils"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the authentication service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuth(cmd.Context())
	},
}

func runAuth(ctx context.Context) error {
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
	log.Info().Str("db", cfg.DBName).Msg("auth schema ready")

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL())
	svc := service.NewAuthService(repository.NewCredentialRepo(db), repository.NewTokenRepo(db), issuer, cfg.BcryptCost, cfg.RefreshTTL())
	svc.Log = log
	if cfg.Events.Enabled {
		svc.Events = service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue, log)
		log.Info().Str("queue", cfg.Events.Queue).Msg("publishing auth events")
	}

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	cookie := handler.CookieSettings{Secure: cfg.CookieSecure, MaxAge: cfg.RefreshTTL()}
	deps := router.AuthDeps{
		Auth:    handler.NewAuthHandler(svc, cookie),
		Limiter: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Ready: handler.Ready(map[string]func(context.Context) error{
			"mysql": db.PingContext,
		}),
	}

	if cfg.Google.Enabled() {
		var states oauth.StateStore
		if rdb != nil {
			states = oauth.NewRedisStateStore(rdb)
		} else {
			mem := oauth.NewMemoryStateStore(cfg.Google.StateTTL)
			defer mem.Stop()
			states = mem
		}
		deps.OAuth = &handler.OAuthHandler{
			Svc: svc,
			Providers: map[string]oauth.Provider{
				"google": oauth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
			},
			States:      states,
			StateTTL:    cfg.Google.StateTTL,
			FrontendURL: cfg.FrontendURL,
			Cookie:      cookie,
		}
	} else {
		log.Info().Msg("google login disabled: GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set")
	}

	e := newEcho(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(logger.RequestLogger(log))
	e.Use(middleware.Gate(svc, router.PublicPaths()))
	router.RegisterAuth(e, deps)

	return serve(ctx, e, cfg.Port, log)
}
