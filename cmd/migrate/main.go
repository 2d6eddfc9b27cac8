package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/flexprice/cashier/internal/config"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/postgres"
	"github.com/samber/lo"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	files, err := migrationFiles(cfg.Postgres.MigrationsPath)
	if err != nil {
		logger.Fatalw("Failed to read migrations", "path", cfg.Postgres.MigrationsPath, "error", err)
	}

	if *dryRun {
		logger.Info("Dry run mode - printing migration SQL without executing")
		for _, f := range files {
			body, err := os.ReadFile(f)
			if err != nil {
				logger.Fatalw("Failed to read migration", "file", f, "error", err)
			}
			fmt.Printf("-- %s\n%s\n", filepath.Base(f), body)
		}
		return
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := postgres.NewDB(cfg, logger, nil)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		logger.Fatalw("Failed to create schema_migrations", "error", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		logger.Fatalw("Failed to read applied migrations", "error", err)
	}

	pending := lo.Filter(files, func(f string, _ int) bool {
		return !lo.Contains(applied, filepath.Base(f))
	})
	logger.Infow("Running database migrations", "pending", len(pending), "applied", len(applied))

	for _, f := range pending {
		version := filepath.Base(f)
		body, err := os.ReadFile(f)
		if err != nil {
			logger.Fatalw("Failed to read migration", "file", f, "error", err)
		}

		err = db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			logger.Fatalw("Migration failed", "version", version, "error", err)
		}
		logger.Infow("Applied migration", "version", version)
	}

	logger.Info("Migration completed successfully")
}

// migrationFiles returns the .sql files under dir in lexical order
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return filepath.Join(dir, e.Name()), !e.IsDir() && strings.HasSuffix(e.Name(), ".sql")
	})
	sort.Strings(files)
	return files, nil
}
