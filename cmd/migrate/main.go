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

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/clickhouse"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/config"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
)

func main() {
	target := flag.String("target", "all", "Which store to migrate: postgres, clickhouse or all")
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	dir := flag.String("dir", "migrations", "Migrations directory")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logger.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *target == "postgres" || *target == "all" {
		if err := migratePostgres(ctx, cfg, logger, filepath.Join(*dir, "postgres"), *dryRun); err != nil {
			logger.Fatalw("postgres migration failed", "error", err)
		}
	}
	if *target == "clickhouse" || *target == "all" {
		if err := migrateClickHouse(ctx, cfg, logger, filepath.Join(*dir, "clickhouse"), *dryRun); err != nil {
			logger.Fatalw("clickhouse migration failed", "error", err)
		}
	}

	logger.Info("Migrations complete")
}

func migratePostgres(ctx context.Context, cfg *config.Configuration, logger *logger.Logger, dir string, dryRun bool) error {
	files, err := migrationFiles(dir, ".up.sql")
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, file := range files {
		logger.Infow("applying migration", "store", "postgres", "file", filepath.Base(file))
		if err := applyFile(ctx, file, dryRun, func(stmt string) error {
			_, err := db.GetQuerier(ctx).ExecContext(ctx, stmt)
			return err
		}); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
	}
	return nil
}

func migrateClickHouse(ctx context.Context, cfg *config.Configuration, logger *logger.Logger, dir string, dryRun bool) error {
	files, err := migrationFiles(dir, ".sql")
	if err != nil {
		return err
	}

	store, err := clickhouse.NewClickHouseStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, file := range files {
		logger.Infow("applying migration", "store", "clickhouse", "file", filepath.Base(file))
		if err := applyFile(ctx, file, dryRun, func(stmt string) error {
			return store.GetConn().Exec(ctx, stmt)
		}); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
	}
	return nil
}

func migrationFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// applyFile splits a migration file into statements and runs each one.
// Migration files hold plain DDL, so splitting on ";" is safe.
func applyFile(ctx context.Context, path string, dryRun bool, exec func(stmt string) error) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if dryRun {
			fmt.Printf("%s;\n\n", stmt)
			continue
		}
		if err := exec(stmt); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
