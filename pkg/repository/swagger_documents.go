package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ubermorgenland/swagger-mcp/pkg/models"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("swagger document not found")

const selectColumns = `
	SELECT id, name, title, version, content, endpoint_path, file_format, file_size, base_url, api_key, is_active, created_at, updated_at
	FROM swagger_documents`

// SwaggerDocumentRepository handles database operations for swagger documents
type SwaggerDocumentRepository struct {
	db *sql.DB
}

// NewSwaggerDocumentRepository creates a new repository instance
func NewSwaggerDocumentRepository(db *sql.DB) *SwaggerDocumentRepository {
	return &SwaggerDocumentRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.SwaggerDocument, error) {
	doc := &models.SwaggerDocument{}
	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Title,
		&doc.Version,
		&doc.Content,
		&doc.EndpointPath,
		&doc.FileFormat,
		&doc.FileSize,
		&doc.BaseURL,
		&doc.APIKey,
		&doc.IsActive,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	return doc, err
}

// Create inserts a new document
func (r *SwaggerDocumentRepository) Create(ctx context.Context, doc *models.SwaggerDocument) (*models.SwaggerDocument, error) {
	query := `
		INSERT INTO swagger_documents (name, title, version, content, endpoint_path, file_format, file_size, base_url, api_key, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		doc.Name,
		doc.Title,
		doc.Version,
		doc.Content,
		doc.EndpointPath,
		doc.FileFormat,
		doc.FileSize,
		doc.BaseURL,
		doc.APIKey,
		doc.IsActive,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create swagger document: %w", err)
	}

	return doc, nil
}

func (r *SwaggerDocumentRepository) getOne(ctx context.Context, column string, value any) (*models.SwaggerDocument, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx, selectColumns+" WHERE "+column+" = $1", value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %v", ErrNotFound, column, value)
		}
		return nil, fmt.Errorf("failed to get swagger document: %w", err)
	}
	return doc, nil
}

// GetByID retrieves a document by its ID
func (r *SwaggerDocumentRepository) GetByID(ctx context.Context, id int) (*models.SwaggerDocument, error) {
	return r.getOne(ctx, "id", id)
}

// GetByName retrieves a document by its name
func (r *SwaggerDocumentRepository) GetByName(ctx context.Context, name string) (*models.SwaggerDocument, error) {
	return r.getOne(ctx, "name", name)
}

// GetByEndpointPath retrieves a document by its endpoint path
func (r *SwaggerDocumentRepository) GetByEndpointPath(ctx context.Context, path string) (*models.SwaggerDocument, error) {
	return r.getOne(ctx, "endpoint_path", path)
}

func (r *SwaggerDocumentRepository) list(ctx context.Context, query string) ([]*models.SwaggerDocument, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list swagger documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.SwaggerDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan swagger document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list swagger documents: %w", err)
	}

	return docs, nil
}

// GetAll retrieves all documents
func (r *SwaggerDocumentRepository) GetAll(ctx context.Context) ([]*models.SwaggerDocument, error) {
	return r.list(ctx, selectColumns+" ORDER BY created_at DESC")
}

// GetActive retrieves all active documents, oldest first so tool registration is stable.
func (r *SwaggerDocumentRepository) GetActive(ctx context.Context) ([]*models.SwaggerDocument, error) {
	return r.list(ctx, selectColumns+" WHERE is_active = true ORDER BY created_at ASC, id ASC")
}

// Update modifies an existing document
func (r *SwaggerDocumentRepository) Update(ctx context.Context, doc *models.SwaggerDocument) (*models.SwaggerDocument, error) {
	query := `
		UPDATE swagger_documents
		SET name = $2, title = $3, version = $4, content = $5, endpoint_path = $6,
		    file_format = $7, file_size = $8, base_url = $9, api_key = $10, is_active = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		doc.ID,
		doc.Name,
		doc.Title,
		doc.Version,
		doc.Content,
		doc.EndpointPath,
		doc.FileFormat,
		doc.FileSize,
		doc.BaseURL,
		doc.APIKey,
		doc.IsActive,
	).Scan(&doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, doc.ID)
		}
		return nil, fmt.Errorf("failed to update swagger document: %w", err)
	}

	return doc, nil
}

func (r *SwaggerDocumentRepository) execByID(ctx context.Context, action, query string, id int, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// Delete removes a document
func (r *SwaggerDocumentRepository) Delete(ctx context.Context, id int) error {
	return r.execByID(ctx, "delete swagger document", `DELETE FROM swagger_documents WHERE id = $1`, id)
}

// SetActive sets the is_active status of a document
func (r *SwaggerDocumentRepository) SetActive(ctx context.Context, id int, active bool) error {
	return r.execByID(ctx, "set active status",
		`UPDATE swagger_documents SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

// UpdateAPIKey updates the upstream API key stored with a document
func (r *SwaggerDocumentRepository) UpdateAPIKey(ctx context.Context, id int, apiKey *string) error {
	return r.execByID(ctx, "update API key",
		`UPDATE swagger_documents SET api_key = $2, updated_at = NOW() WHERE id = $1`, id, apiKey)
}

// UpdateBaseURL updates the upstream base URL stored with a document
func (r *SwaggerDocumentRepository) UpdateBaseURL(ctx context.Context, id int, baseURL *string) error {
	return r.execByID(ctx, "update base URL",
		`UPDATE swagger_documents SET base_url = $2, updated_at = NOW() WHERE id = $1`, id, baseURL)
}
