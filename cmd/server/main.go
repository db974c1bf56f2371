package main // entry point for both fitness services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kashmau/track-fitness/internal/handler"
)

var rootCmd = &cobra.Command{
	Use:           "fitness",
	Short:         "Authentication and user-profile services of the fitness tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(authCmd, profileCmd, migrateCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("command failed")
	}
}

// serve runs e on :port until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func serve(ctx context.Context, e *echo.Echo, port string, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + port
		logger.Info().Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newEcho builds an echo instance with the shared error handler and the
// request id and access log middleware.
func newEcho(logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	return e
}
