package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"github.com/stephanos-estetic/backend/internal/infrastructure/logger"
	"github.com/stephanos-estetic/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	defer func() { _ = log.Sync() }()

	// File-only commands
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Usage: migrate create <name> [description]")
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsDir
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created", zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return
	case "list":
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsDir
		}
		names, err := migration.ListMigrations(dir)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to reach database", zap.Error(err))
	}

	var opts []migration.Option
	if migrationsPath != "" {
		opts = append(opts, migration.WithPath(migrationsPath))
	}
	m, err := migration.New(db, log, opts...)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		if len(args) < 2 {
			log.Fatal("Usage: migrate step <n>")
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		err = m.Steps(n)
	case "version":
		version, dirty, vErr := m.Version()
		if vErr != nil {
			log.Fatal("Failed to read version", zap.Error(vErr))
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: migrate force <version>")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal("Invalid version", zap.String("value", args[1]))
		}
		err = m.Force(version)
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Stephanos Estetic database migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  version               Show the current version
  force <version>       Set the version without migrating (clears dirty state)
  create <name> [desc]  Scaffold the next numbered migration pair
  list                  List migrations on disk

Flags:
  -path string          Migrations directory (default: embedded; create/list use ./migrations)
  -log-level string     debug, info, warn, error (default: info)

Database settings come from config.toml and SE_DATABASE_* variables.`)
}
