package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"feedwatch/internal/config"
	"feedwatch/internal/infra/db"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create (or with --down drop) the SQL watermark schema",
		Long: `Migrate manages the watermarks table for the postgres and sqlite backends.
The DynamoDB table is provisioned outside feedwatch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			return migrate(cmd.Context(), a, down)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "drop the schema instead of creating it")
	return cmd
}

func migrate(ctx context.Context, a *app, down bool) error {
	var dialect db.Dialect
	switch a.cfg.Store.Backend {
	case config.BackendPostgres:
		dialect = db.DialectPostgres
	case config.BackendSQLite:
		dialect = db.DialectSQLite
	default:
		return fmt.Errorf("migrate: backend %q has no SQL schema", a.cfg.Store.Backend)
	}

	if err := a.openStore(ctx); err != nil {
		return err
	}
	if down {
		if err := db.MigrateDown(a.sqlDB); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		a.logger.Info("watermark schema dropped")
		return nil
	}
	if err := db.MigrateUp(a.sqlDB, dialect); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	a.logger.Info("watermark schema ready")
	return nil
}
