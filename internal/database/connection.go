package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"activity-log-api/internal/repositories"
)

// OpenSQLite opens the SQLite database file named in config, creating its
// directory when needed, and applies the pool settings.
func OpenSQLite(ctx context.Context, config *repositories.Config, logger *logrus.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = logrus.New()
	}

	dbPath := config.Database.Path
	if dbPath == "" {
		dbPath = repositories.DefaultConfig().Database.Path
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := buildSQLiteDSN(absPath, config)

	logger.WithFields(logrus.Fields{
		"driver": repositories.DriverSQLite,
		"path":   absPath,
	}).Info("Creating SQLite connection")

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(config.Pool.MaxOpenConns)
	db.SetMaxIdleConns(config.Pool.MaxIdleConns)
	db.SetConnMaxLifetime(config.Pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.WithField("path", absPath).Info("SQLite connection established")
	return db, nil
}

// buildSQLiteDSN builds a SQLite DSN with WAL, foreign keys and busy timeout
func buildSQLiteDSN(path string, config *repositories.Config) string {
	options := []string{
		"_journal_mode=WAL",
		"_foreign_keys=on",
	}

	if config.Database.BusyTimeout > 0 {
		options = append(options, fmt.Sprintf("_busy_timeout=%d", config.Database.BusyTimeout))
	}

	return fmt.Sprintf("%s?%s", path, strings.Join(options, "&"))
}

// OpenPostgresPool creates a pgx pool for the configured DSN and verifies it
func OpenPostgresPool(ctx context.Context, config *repositories.Config, logger *logrus.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = logrus.New()
	}

	poolConfig, err := pgxpool.ParseConfig(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolConfig.MaxConns = int32(config.Pool.MaxOpenConns)
	poolConfig.MaxConnLifetime = config.Pool.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"driver":    repositories.DriverPostgres,
		"host":      poolConfig.ConnConfig.Host,
		"database":  poolConfig.ConnConfig.Database,
		"max_conns": poolConfig.MaxConns,
	}).Info("Postgres connection established")
	return pool, nil
}

// openPostgresSQL opens a database/sql handle through the pgx stdlib driver.
// golang-migrate's postgres driver needs a *sql.DB.
func openPostgresSQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}
