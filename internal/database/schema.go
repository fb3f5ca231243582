package database

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

const (
	// SchemaModeSQL applies the embedded SQL migrations.
	SchemaModeSQL = "sql"
	// SchemaModeAuto runs GORM AutoMigrate.
	SchemaModeAuto = "auto"
)

// SchemaStatus describes what ApplySchema would do for a configuration.
type SchemaStatus struct {
	Mode              string
	Driver            string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// SchemaMode resolves DB_SCHEMA_MODE. SQL migrations are written for
// PostgreSQL, so SQLite always uses AutoMigrate.
func SchemaMode(cfg *config.Config) (string, error) {
	if cfg.DBDriver != config.DriverPostgres {
		return SchemaModeAuto, nil
	}
	switch cfg.DBSchemaMode {
	case "", SchemaModeSQL:
		return SchemaModeSQL, nil
	case SchemaModeAuto:
		if cfg.IsProduction() {
			return "", fmt.Errorf("refusing DB_SCHEMA_MODE=auto for postgres in %q", cfg.Env)
		}
		return SchemaModeAuto, nil
	default:
		return "", fmt.Errorf("unsupported DB_SCHEMA_MODE %q", cfg.DBSchemaMode)
	}
}

// ApplySchema brings the database schema up to date.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode, err := SchemaMode(cfg)
	if err != nil {
		return err
	}

	if mode == SchemaModeSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		return nil
	}

	observability.Logger.Info("Running GORM AutoMigrate", slog.String("driver", cfg.DBDriver), slog.String("env", cfg.Env))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	mode, err := SchemaMode(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{Mode: mode, Driver: cfg.DBDriver}
	if mode != SchemaModeSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}

	return status, nil
}
