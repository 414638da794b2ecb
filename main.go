package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/learningfield/config"
	"sjsage522/learningfield/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables; .env.local wins over .env
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := newRootCmd().Execute(); err != nil {
		logger.Default.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "learningfield",
		Short:         "Curate learning resources from a URL list and serve the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Process the URL list once",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(cmd.Context(), runOnce)
			},
		},
		&cobra.Command{
			Use:   "schedule",
			Short: "Process the URL list on the configured cron schedule",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(cmd.Context(), runScheduled)
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the catalog HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withServices(cmd.Context(), serve)
			},
		},
	)
	return root
}

// withServices loads configuration, wires the services and runs fn until a
// shutdown signal arrives
func withServices(parent context.Context, fn func(context.Context, *config.Config, *Services) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Default.Info().
		Str("environment", cfg.Environment).
		Msg("Starting application")

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Cleanup()

	return fn(ctx, cfg, services)
}

func runOnce(ctx context.Context, cfg *config.Config, s *Services) error {
	stats, err := s.NewWorker(cfg).RunOnce(ctx)
	logger.Default.Info().Interface("stats", stats).Msg("Run finished")
	return err
}

func runScheduled(ctx context.Context, cfg *config.Config, s *Services) error {
	scheduler := s.NewScheduler(cfg)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Default.Info().Msg("Shutting down gracefully...")
	scheduler.Stop()
	return nil
}

func serve(ctx context.Context, cfg *config.Config, s *Services) error {
	return s.NewServer(cfg).Run(ctx)
}
