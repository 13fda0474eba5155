package main

import (
	"context"
	"fmt"
	"time"

	"aecoin-store-api/internal/config"
	"aecoin-store-api/internal/logger"
	"aecoin-store-api/internal/repository"
	"aecoin-store-api/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openStore loads the environment configuration and opens the configured
// relational store.
func openStore(ctx context.Context) (*repository.Store, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      "console",
		Development: true,
		Service:     "aecoinctl",
		Version:     Version,
	})
	if err != nil {
		return nil, nil, err
	}

	driver, dsn := cfg.Store.DSN()
	store, err := repository.Open(ctx, driver, dsn, log)
	if err != nil {
		return nil, nil, err
	}
	return store, log, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", store.Dialect())
			return nil
		},
	}
}

func seedRankingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-rankings",
		Short: "Load the sample leaderboard entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, log, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			seeded, err := service.NewRankingService(store.Rankings(), log).Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rankings\n", len(seeded))
			return nil
		},
	}
}

func expireCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire pending orders older than --ttl once",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, log, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := service.NewExpiryScheduler(store.Orders(), service.ExpiryConfig{PendingTTL: ttl}, log, nil).RunNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d orders\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", service.DefaultExpiryConfig().PendingTTL, "age after which a pending order expires")

	return cmd
}
