package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/utils"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// InitializeEnvFile loads ENV_FILE (comma separated, default ".env") without
// overriding variables already set by the process environment. Files that do
// not exist are skipped.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	for _, file := range strings.Split(utils.GetEnvTrimmedOrDefault("ENV_FILE", ".env"), ",") {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}

		err := godotenv.Load(file)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("Env file not found", "file", file)
		case err != nil:
			logger.Warn("Failed to load env file", "file", file, "error", err.Error())
		default:
			logger.Info("Environment variables loaded", "file", file)
		}
	}
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

// IsProductionEnv reports whether appEnv names a production deployment.
func IsProductionEnv(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "production", "prod":
		return true
	}
	return false
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	switch env := strings.ToLower(strings.TrimSpace(appEnv)); env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q; run `cli migrate` instead", AppEnvKey, env)
	}
}
