package main

import (
	"context"
	"errors"
	"fmt"

	"taskQuest/internal/config"
	"taskQuest/internal/gamification"
	"taskQuest/internal/logger"
	"taskQuest/internal/repository/db"
	progresspg "taskQuest/internal/repository/progress/postgres"

	"github.com/spf13/cobra"
)

func loadPostgresConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Repository.Type != config.RepositoryPostgres {
		return nil, errors.New("команда работает только с repository.type=postgres")
	}
	if err := logger.Init(cfg.Logging.Development); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применение и откат миграций схемы",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Применить все новые миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return db.MigrateUp(cfg.Database.URL)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Откатить миграции (по умолчанию все)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return db.MigrateDown(cfg.Database.URL, steps)
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 0, "число откатываемых миграций, 0 - все")
	cmd.AddCommand(down)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Залить каталог достижений, если он пуст",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := progresspg.New(pool)
			inserted, err := gamification.NewEvaluator(store, store).Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "добавлено достижений: %d\n", inserted)
			return nil
		},
	}
}
