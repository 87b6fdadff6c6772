package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/spf13/cobra"
)

var seedDatabaseURL string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the database schema and seed the built-in interview templates",
	Long:  "Create the database schema if it does not exist and insert the built-in interview templates. Safe to run repeatedly; existing templates are left untouched.",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	databaseURL := seedDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := database.SeedTemplates(ctx); err != nil {
		return fmt.Errorf("failed to seed templates: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Schema is up to date; %d interview templates seeded\n", len(db.DefaultInterviews()))
	return nil
}
