package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/user/quickpad-go/internal/bot"
	"github.com/user/quickpad-go/internal/scheduler"
	"github.com/user/quickpad-go/internal/server"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the stats scheduler and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			return serve(a)
		},
	}
}

func serve(a *app) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		telegramClient *bot.Client
		botHandler     *bot.Handler
	)
	if a.cfg.Bot.Enabled() {
		client, err := bot.NewClient(a.cfg.Bot.Token)
		if err != nil {
			log.Error().Stack().Err(err).Msg("Failed to create Telegram client")
			a.close()
			return err
		}
		telegramClient = client
		botHandler = bot.NewHandler(a.binder, telegramClient, a.cfg.Bot.ListLimit)
		log.Info().Msg("Telegram client initialized")
	} else {
		log.Info().Msg("BOT_TOKEN not set, Telegram bot disabled")
	}

	sched := scheduler.NewScheduler(a.store, a.binder, &a.cfg.Stats)
	httpServer := server.NewServer(a.store, a.binder, &a.cfg.Server)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sched.Start(ctx)
	log.Info().Msg("Scheduler started")

	if telegramClient != nil {
		go func() {
			log.Info().Msg("Starting Telegram bot polling")
			for update := range telegramClient.GetUpdates() {
				botHandler.HandleUpdate(ctx, update)
			}
		}()
	}

	log.Info().Msg("QuickPad started successfully")

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case runErr = <-serverErr:
		log.Error().Stack().Err(runErr).Msg("HTTP server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop triggering new work
	sched.Stop()
	if telegramClient != nil {
		telegramClient.StopReceivingUpdates()
		log.Info().Msg("Telegram bot polling stopped")
	}

	// 2. Stop accepting requests
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Stack().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 3. Let pending saves finish, then close the store
	a.close()
	cancel()

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		log.Warn().Msg("Shutdown timeout exceeded, forcing exit")
	} else {
		log.Info().Msg("Graceful shutdown completed")
	}
	return runErr
}
