package main

import (
	"context"
	"fmt"
	"os"

	"natours_backend/internal/config"
	"natours_backend/internal/database"
	"natours_backend/internal/devdata"
	"natours_backend/internal/logger"
	"natours_backend/internal/repositories"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "devdata",
	Short: "Manage Natours development data",
	Long: `Create the schema and load or remove demo tours, users and reviews.

Configuration is read the same way as the web server
(CONFIG_PATH or DATABASE_URL).`,
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		return database.Migrate(db)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load tours.json, users.json and reviews.json",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := devdata.Load(dataDir)
		if err != nil {
			return err
		}

		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		importer := devdata.NewImporter(
			repositories.NewUserRepository(),
			repositories.NewTourRepository(),
			repositories.NewReviewRepository(),
		)
		stats, err := importer.Import(db, ds)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Data successfully loaded: %d users, %d tours, %d reviews\n",
			stats.Users, stats.Tours, stats.Reviews)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove all bookings, reviews, tours and users",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if err := devdata.DeleteAll(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Data successfully deleted!")
		return nil
	},
}

func connect(ctx context.Context) (*gorm.DB, error) {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)

	return database.Connect(ctx, database.Config{
		DSN:     cfg.Database.DSN,
		MaxOpen: 2,
		MaxIdle: 1,
	})
}

func init() {
	importCmd.Flags().StringVarP(&dataDir, "dir", "d", "./dev-data", "Directory with tours.json, users.json and reviews.json")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
