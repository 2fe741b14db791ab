package main

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Long: `Apply the embedded migrations for the configured DB_DRIVER.

Examples:
  clover migrate
  DB_DRIVER=postgres DB_DSN=postgres://clover@localhost/clover clover migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, flush, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer flush()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		db, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		fmt.Printf("%s migrations applied (%s)\n", color.GreenString("✓"), db.DriverName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// openDatabase connects and migrates to the configured version
func openDatabase(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseDSN,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		Version:      uint(max(cfg.DatabaseMigrationVersion, 0)),
		Force:        cfg.DatabaseMigrationForce,
		AutoRollback: cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
