package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mongodb "github.com/99minutos/account-dashboard/internal/infrastructure/db/mongo"
	"github.com/99minutos/account-dashboard/internal/pkg/config"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes and exit",
	RunE:  runIndexes,
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}

func runIndexes(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.Init(logger.OptionsFor(cfg.Env, cfg.LogLevel, "account-dashboard"))

	ctx := cmd.Context()
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	log.Info().Str("database", cfg.Mongo.Database).Msg("indexes ensured")
	fmt.Fprintln(cmd.OutOrStdout(), "indexes ensured")
	return nil
}
