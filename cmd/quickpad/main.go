package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/user/quickpad-go/internal/binder"
	"github.com/user/quickpad-go/internal/config"
	"github.com/user/quickpad-go/internal/logger"
	"github.com/user/quickpad-go/internal/repository"
	"github.com/user/quickpad-go/internal/store"
)

var (
	envFile string
	rootCmd = &cobra.Command{
		Use:           "quickpad",
		Short:         "Save captioned videos and watch the list update live",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional file of environment variables loaded before configuration")
	rootCmd.AddCommand(newServeCmd(), newAddCmd(), newListCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the explicitly wired object graph shared by every command
type app struct {
	cfg    *config.Config
	db     *store.DB
	store  *store.GormStore
	repo   *repository.Repository
	binder *binder.Binder
}

// bootstrap wires config, logging, store, repository and binder in that order
func bootstrap() (*app, error) {
	// Variables already set in the environment win over the file
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Logger = logger.New("quickpad", cfg.Log.Level)
	if envErr != nil {
		log.Debug().Str("file", envFile).Msg("Env file not loaded, using process environment only")
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("Configuration loaded successfully")

	db, err := store.Open(&cfg.DB)
	if err != nil {
		log.Error().Stack().Err(err).Str("driver", cfg.DB.Driver).Msg("Failed to open store")
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Info().Msg("Database connection established")

	s := store.NewGormStore(db)
	repo := repository.New(s)

	return &app{
		cfg:    cfg,
		db:     db,
		store:  s,
		repo:   repo,
		binder: binder.New(repo, cfg.Binder),
	}, nil
}

// close waits for pending saves and then closes the store
func (a *app) close() {
	a.binder.Close()
	if err := a.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}
}
