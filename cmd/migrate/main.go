// Command migrate runs schema operations for the API database.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/database"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return errors.New("usage: migrate [-create-db] <up|auto|status|down> [version]")
}

func run() error {
	createDB := flag.Bool("create-db", false, "create the postgres database named by DB_NAME if it is missing")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	if *createDB {
		if err := ensureDatabase(ctx, cfg); err != nil {
			return err
		}
	}

	db, err := database.ConnectWithOptions(ctx, cfg, database.ConnectOptions{SkipSchema: true})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	switch cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0))); cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s driver=%s applied=%d pending=%d",
			status.Mode, status.Driver, len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			log.Printf("pending: %s", m.String())
		}
	case "down":
		if flag.NArg() < 2 {
			return errors.New("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
	default:
		return usage()
	}
	return nil
}

// ensureDatabase connects to the postgres maintenance database and creates
// DB_NAME when it does not exist yet.
func ensureDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.DBDriver != config.DriverPostgres {
		return nil
	}

	admin := *cfg
	admin.DBDSN = ""
	admin.DBName = "postgres"
	conn, err := sql.Open("pgx", database.PostgresDSN(&admin))
	if err != nil {
		return fmt.Errorf("open maintenance database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var exists bool
	if err := conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check database: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{cfg.DBName}.Sanitize()); err != nil {
		return fmt.Errorf("create database %s: %w", cfg.DBName, err)
	}
	log.Printf("created database %s", cfg.DBName)
	return nil
}
