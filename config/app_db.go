package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/retry"
	"github.com/akeren/lingo-site/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrDatabaseNotConfigured is returned by NewDatabase when no connection
// settings are present. The site runs without a database in that case.
var ErrDatabaseNotConfigured = errors.New("database is not configured")

// databaseURLKeys are checked in order; hosting platforms tend to inject DATABASE_URL.
var databaseURLKeys = []string{"APP_DATABASE_URL", "DATABASE_URL"}

// dbPingBudget caps the total time spent waiting for the database at boot.
const dbPingBudget = 30 * time.Second

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	// SSLMode applies to DSNs built from POSTGRES_* parts. Defaults to "require".
	SSLMode   string
	PingRetry retry.Config
}

// withDefaults fills zero fields from DB_* env vars, then from fixed defaults.
// A marketing site sees little write traffic, so the pool stays small.
func (cfg *DBConfig) withDefaults() *DBConfig {
	out := DBConfig{}
	if cfg != nil {
		out = *cfg
	}

	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = utils.GetEnvInt("DB_MAX_IDLE_CONNS", 2)
	}
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = utils.GetEnvInt("DB_MAX_OPEN_CONNS", 10)
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = utils.GetEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	}
	if out.SSLMode == "" {
		out.SSLMode = "require"
	}
	if out.PingRetry.MaxAttempts <= 0 {
		out.PingRetry = retry.Config{
			MaxAttempts: 5,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Multiplier:  2.0,
		}
	}

	return &out
}

func databaseURLFromEnv() string {
	for _, key := range databaseURLKeys {
		if v := sanitizeEnv(utils.GetEnvTrimmed(key)); v != "" {
			return v
		}
	}
	return ""
}

// IsDatabaseConfigured reports whether any database connection settings are present.
func IsDatabaseConfigured() bool {
	return databaseURLFromEnv() != "" || sanitizeEnv(utils.GetEnvTrimmed("POSTGRES_HOST")) != ""
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	cfg = cfg.withDefaults()

	if !IsDatabaseConfigured() {
		logger.Warn("Database is not configured (APP_DATABASE_URL, DATABASE_URL and POSTGRES_HOST are empty)")
		return nil, ErrDatabaseNotConfigured
	}

	dsn, err := buildDSNFromEnv(logger, cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Surfaces unique violations as gorm.ErrDuplicatedKey.
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormLogLevel()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Managed Postgres may still be waking up when the site boots.
	ctx, cancel := context.WithTimeout(context.Background(), dbPingBudget)
	defer cancel()

	err = retry.Do(ctx, cfg.PingRetry, func(ctx context.Context, attempt int) error {
		if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
			logger.Warn("Database ping failed", "attempt", attempt, "error", pingErr)
			return pingErr
		}
		return nil
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return gdb, nil
}

// gormLogLevel keeps GORM quiet unless DB_LOG_SQL asks for statements.
func gormLogLevel() gormlogger.LogLevel {
	if utils.GetEnvBool("DB_LOG_SQL", false) {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

func buildDSNFromEnv(logger *log.Logger, cfg *DBConfig) (string, error) {
	if dsn := databaseURLFromEnv(); dsn != "" {
		logger.Info("Using database URL from environment")
		return dsn, nil
	}

	env := func(key string) string { return sanitizeEnv(utils.GetEnvTrimmed(key)) }

	host, user, dbName := env("POSTGRES_HOST"), env("POSTGRES_USER"), env("POSTGRES_DB_NAME")

	var missing []string
	for _, required := range [][2]string{{"POSTGRES_HOST", host}, {"POSTGRES_USER", user}, {"POSTGRES_DB_NAME", dbName}} {
		if required[1] == "" {
			missing = append(missing, required[0])
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port := env("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", port, err)
	}

	sslMode := env("POSTGRES_SSLMODE")
	if sslMode == "" {
		sslMode = cfg.SSLMode
	}

	userinfo := url.User(user)
	if pass := env("POSTGRES_PASSWORD"); pass != "" {
		userinfo = url.UserPassword(user, pass)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     userinfo,
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}

	logger.Info("Connecting to database", "host", host, "port", port, "user", user, "dbname", dbName, "sslmode", sslMode)
	return u.String(), nil
}

// sanitizeEnv strips one pair of surrounding quotes left by some .env tooling.
func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

// AutoMigrate is the development shortcut behind --auto-migrate. Deployed
// environments apply the SQL files with `cli migrate`.
func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return errors.New("cannot migrate: db is nil")
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database auto-migration completed", "models", len(models))
	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}
	logger.Info("Database closed")
}
