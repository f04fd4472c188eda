package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/detkit/detconf/cmd/detconf/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the config resolver server",
	Long: `Start the HTTP server that resolves experiment configs on demand:
listing experiments, returning effective configs with overrides
applied, and producing validation reports.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	settingsPath := cfgFile
	if settingsPath == "" {
		settingsPath = findSettingsFile()
	}

	container, err := di.NewContainer(settingsPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to build container")
		return err
	}

	logSvc, err := di.Invoke[*di.LoggerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize logger")
		return err
	}

	log.Logger = *logSvc.Logger
	zerolog.DefaultContextLogger = logSvc.Logger

	stgSvc, err := di.Invoke[*di.SettingsService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to load settings")
		return err
	}

	storeSvc, err := di.Invoke[*di.StoreService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to open experiment store")
		return err
	}

	serverSvc, err := di.Invoke[*di.ServerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to build server")
		return err
	}

	// Invalidate cached resolutions when experiment files change on disk.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()

	go func() {
		if err := storeSvc.Store.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("experiment watch stopped")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down...")
		cancelWatch()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := container.ShutdownWithContext(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}

		close(done)
	}()

	log.Info().
		Str("listen", stgSvc.Settings.Server.Listen).
		Str("store", storeSvc.Store.Dir()).
		Msg("starting detconf")

	if err := serverSvc.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		return err
	}

	<-done
	log.Info().Msg("server stopped")

	return nil
}
