// Command migrate manages the card ledger schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/foodops/backoffice/internal/infrastructure/config"
	"github.com/foodops/backoffice/internal/infrastructure/logger"
	"github.com/foodops/backoffice/internal/infrastructure/migration"
	"github.com/foodops/backoffice/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// embeddedPath selects the SQL files compiled into the binary
const embeddedPath = "embedded"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "migrations directory, or \"embedded\" (default: ./migrations when present, else embedded)")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(args, resolvePath(migrationsPath), log); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func resolvePath(path string) string {
	if path == embeddedPath {
		return path
	}
	if path == "" {
		if _, err := os.Stat(defaultMigrationsPath); err != nil {
			return embeddedPath
		}
		path = defaultMigrationsPath
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func run(args []string, path string, log *zap.Logger) error {
	command, rest := args[0], args[1:]
	log.Info("Migration CLI started", zap.String("command", command), zap.String("migrations_path", path))

	switch command {
	case "create":
		return create(rest, path, log)
	case "list":
		return list(path, log)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if path == embeddedPath {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	} else {
		m, err = migration.New(db, path, log)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(rest, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		v, err := intArg(rest, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(v))
	case "version":
		status, err := m.Status()
		if err != nil {
			return err
		}
		if !status.Applied {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", status.Version), zap.Bool("dirty", status.Dirty))
		return nil
	case "force":
		v, err := intArg(rest, "version")
		if err != nil {
			return err
		}
		return m.Force(v)
	case "drop":
		if !slices.Contains(rest, "-confirm") && !slices.Contains(rest, "--confirm") {
			return errors.New("drop removes every ledger table; rerun as 'migrate drop -confirm'")
		}
		return m.Drop()
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func create(args []string, path string, log *zap.Logger) error {
	if path == embeddedPath {
		return errors.New("create needs a migrations directory; pass -path")
	}
	if len(args) == 0 {
		return errors.New("usage: migrate create <name> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(path, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(path string, log *zap.Logger) error {
	var (
		names []string
		err   error
	)
	if path == embeddedPath {
		names, err = migration.ListEmbedded(migrations.FS)
	} else {
		names, err = migration.ListMigrations(path)
	}
	if err != nil {
		return err
	}

	log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Card ledger schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the current schema version
  force <version>       Mark a version as applied without running it
  drop -confirm         Drop every table
  create <name> [desc]  Write the next sequential migration pair
  list                  List available migrations

Flags:
  -path string          Migrations directory or "embedded"
  -log-level string     debug, info, warn or error (default: info)

The database is configured through config.toml or LEDGER_DATABASE_* variables.
`)
}
