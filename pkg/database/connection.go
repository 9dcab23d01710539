package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// Pool settings applied by Connect.
const (
	MaxOpenConns    = 25
	MaxIdleConns    = 25
	ConnMaxLifetime = 30 * time.Minute
)

// Connect opens and pings a PostgreSQL connection pool.
func Connect(ctx context.Context, databaseURL string, logger *zap.Logger) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is not set")
	}
	if !strings.HasPrefix(databaseURL, "postgres://") && !strings.HasPrefix(databaseURL, "postgresql://") {
		return nil, fmt.Errorf("database URL must be a PostgreSQL connection string starting with 'postgres://' or 'postgresql://'")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	db.SetConnMaxLifetime(ConnMaxLifetime)

	logger.Info("database connected", zap.String("url", Redact(databaseURL)))
	return db, nil
}

// Initialize connects and runs migrations.
func Initialize(ctx context.Context, databaseURL string, logger *zap.Logger) (*sql.DB, error) {
	db, err := Connect(ctx, databaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Redact hides credentials in a connection string.
func Redact(databaseURL string) string {
	at := strings.LastIndex(databaseURL, "@")
	if at < 0 {
		return databaseURL
	}
	scheme := strings.Index(databaseURL, "://")
	if scheme < 0 || scheme > at {
		return "[HIDDEN]" + databaseURL[at:]
	}
	return databaseURL[:scheme+3] + "[HIDDEN]" + databaseURL[at:]
}
