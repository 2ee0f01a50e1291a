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

	"github.com/skygraph/statsbridge/internal/cache"
	"github.com/skygraph/statsbridge/internal/config"
	"github.com/skygraph/statsbridge/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the statsbridge server",
	Long: `Start the stats bridge: connect to the cache store, wire the link index
client, and expose the health surface over HTTP.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	container, err := di.NewContainer(configPath())
	if err != nil {
		log.Error().Err(err).Msg("failed to create container")
		return err
	}

	logSvc, err := di.Invoke[*di.LoggerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize logging")
		return err
	}

	log.Logger = *logSvc.Logger
	zerolog.DefaultContextLogger = logSvc.Logger
	cache.SetLogger(logSvc.Logger)

	cfgSvc := di.MustInvoke[*di.ConfigService](container)

	// Only the log level follows hot reloads; everything else requires a
	// restart since store connections and the upstream client are
	// established at startup.
	cfgSvc.OnReload(func(newCfg *config.Config) error {
		level := newCfg.Logging.ParseLevel()
		zerolog.SetGlobalLevel(level)
		log.Info().Str("level", level.String()).Msg("log level applied from reloaded config")
		return nil
	})

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	cfgSvc.StartWatching(watchCtx)

	srvSvc, err := di.Invoke[*di.ServerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to build server")
		return err
	}
	server := srvSvc.Server

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		if err := container.ShutdownWithContext(ctx); err != nil {
			log.Error().Err(err).Msg("container shutdown error")
		}

		close(done)
	}()

	log.Info().
		Str("listen", server.Addr()).
		Str("upstream", cfgSvc.Config.Upstream.BaseURL).
		Str("cache_mode", string(cfgSvc.Config.Cache.Mode)).
		Msg("starting statsbridge")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		return err
	}

	<-done
	log.Info().Msg("server stopped")

	return nil
}
