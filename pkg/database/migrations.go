package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const createSwaggerDocumentsTable = `
	CREATE TABLE IF NOT EXISTS swagger_documents (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL,
		title VARCHAR(500),
		version VARCHAR(100),
		content TEXT NOT NULL,
		endpoint_path VARCHAR(255) UNIQUE NOT NULL,
		file_format VARCHAR(10) DEFAULT 'yaml',
		file_size INTEGER,
		base_url VARCHAR(1000),
		api_key VARCHAR(500),
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP(6) DEFAULT NOW(),
		updated_at TIMESTAMP(6) DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_swagger_documents_endpoint_path ON swagger_documents(endpoint_path);
	CREATE INDEX IF NOT EXISTS idx_swagger_documents_is_active ON swagger_documents(is_active);

	CREATE OR REPLACE FUNCTION update_updated_at_column()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ language 'plpgsql';

	DROP TRIGGER IF EXISTS update_swagger_documents_updated_at ON swagger_documents;
	CREATE TRIGGER update_swagger_documents_updated_at
		BEFORE UPDATE ON swagger_documents
		FOR EACH ROW
		EXECUTE FUNCTION update_updated_at_column();
`

const dropSwaggerDocumentsTable = `
	DROP TRIGGER IF EXISTS update_swagger_documents_updated_at ON swagger_documents;
	DROP FUNCTION IF EXISTS update_updated_at_column();
	DROP TABLE IF EXISTS swagger_documents CASCADE;
`

// CreateSwaggerDocumentsTable creates the swagger_documents table with its indexes and trigger
func CreateSwaggerDocumentsTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createSwaggerDocumentsTable); err != nil {
		return fmt.Errorf("failed to create swagger_documents table: %w", err)
	}
	return nil
}

// DropSwaggerDocumentsTable drops the swagger_documents table
func DropSwaggerDocumentsTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, dropSwaggerDocumentsTable); err != nil {
		return fmt.Errorf("failed to drop swagger_documents table: %w", err)
	}
	return nil
}

// RunMigrations runs all database migrations
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	logger.Info("running database migrations")

	if err := CreateSwaggerDocumentsTable(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("database migrations completed")
	return nil
}
