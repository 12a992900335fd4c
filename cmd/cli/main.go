package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/akeren/lingo-site/config"
	"github.com/akeren/lingo-site/domain/blog"
	"github.com/akeren/lingo-site/internal/log"
	schema "github.com/akeren/lingo-site/migrations"
	"github.com/akeren/lingo-site/pkg/migrations"
	"github.com/akeren/lingo-site/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if !runMigrations(logger, false) {
			os.Exit(1)
		}
		return

	case "migrate-status":
		if !runMigrations(logger, true) {
			os.Exit(1)
		}
		return

	case "blog-lint", "lint-blog":
		if !lintBlog(logger) {
			os.Exit(1)
		}
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate          Run database migrations and exit")
	fmt.Println("  migrate-status   Print the applied schema version")
	fmt.Println("  blog-lint        Parse every post under BLOG_CONTENT_DIR and report frontmatter errors")
}

// runMigrations applies the embedded schema, or only reports its version when
// statusOnly is set. MIGRATIONS_DIR switches to SQL files on disk.
func runMigrations(logger *log.Logger, statusOnly bool) bool {
	db, err := config.NewDatabase(logger, &config.DBConfig{})
	if errors.Is(err, config.ErrDatabaseNotConfigured) {
		logger.Error("Set APP_DATABASE_URL, DATABASE_URL or the POSTGRES_* variables before running migrations")
		return false
	}
	if err != nil {
		logger.Error("Failed to connect to database for migration", "error", err.Error())
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance for migration", "error", err.Error())
		return false
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	cfg := migrations.Config{FS: schema.Files, Logger: logger}
	if dir := utils.GetEnvTrimmed("MIGRATIONS_DIR"); dir != "" {
		cfg.FS = nil
		cfg.Dir = dir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if statusOnly {
		state, err := migrations.Status(ctx, sqlDB, cfg)
		if err != nil {
			logger.Error("Failed to read migration status", "error", err.Error())
			return false
		}
		switch {
		case state.Empty:
			fmt.Println("no migrations applied")
		case state.Dirty:
			fmt.Printf("version %d (dirty)\n", state.Version)
		default:
			fmt.Printf("version %d\n", state.Version)
		}
		return !state.Dirty
	}

	if err := migrations.Up(ctx, sqlDB, cfg); err != nil {
		logger.Error("Database migration failed", "error", err.Error())
		return false
	}

	logger.Info("Database migrations completed")
	return true
}

func lintBlog(logger *log.Logger) bool {
	site := config.NewAppConfig().Site
	service := blog.NewBlogServiceFactory(logger, nil, blog.ControllerOptions{
		ContentDir: site.BlogContentDir,
		ShowDrafts: true,
	}).CreateService()

	results, err := service.Lint(context.Background())
	if err != nil {
		logger.Error("Failed to lint blog content", "dir", site.BlogContentDir, "error", err.Error())
		return false
	}

	failed := 0
	for _, result := range results {
		if result.OK() {
			fmt.Printf("ok    %s\n", result.File)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s: %s\n", result.File, result.Error)
	}

	fmt.Printf("\n%d posts checked, %d failed\n", len(results), failed)
	return failed == 0
}
