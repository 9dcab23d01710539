package services

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/models"
	"github.com/ubermorgenland/swagger-mcp/pkg/repository"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

// DocumentRepository is the storage used by DocumentService.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.SwaggerDocument) (*models.SwaggerDocument, error)
	GetByName(ctx context.Context, name string) (*models.SwaggerDocument, error)
	GetAll(ctx context.Context) ([]*models.SwaggerDocument, error)
	GetActive(ctx context.Context) ([]*models.SwaggerDocument, error)
	SetActive(ctx context.Context, id int, active bool) error
	Delete(ctx context.Context, id int) error
	UpdateAPIKey(ctx context.Context, id int, apiKey *string) error
	UpdateBaseURL(ctx context.Context, id int, baseURL *string) error
}

// ImportOptions carries the optional upstream settings stored with a document.
type ImportOptions struct {
	BaseURL string
	APIKey  string
}

// DocumentService manages the stored document registry.
type DocumentService struct {
	repo   DocumentRepository
	logger *zap.Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(repo DocumentRepository, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, logger: logger.With(zap.String("component", "documents"))}
}

// ImportFile stores the document at filePath under name and endpointPath.
func (s *DocumentService) ImportFile(ctx context.Context, filePath, name, endpointPath string, opts ImportOptions) (*models.SwaggerDocument, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, server.NewErrorWithContext(ctx, server.ErrorTypeNotFound, "document file not found", filePath)
		}
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeInternal, "failed to read document file")
	}
	return s.CreateFromContent(ctx, name, endpointPath, string(content), models.FormatOf(filePath), opts)
}

// CreateFromContent validates content by resolving it, then stores it with its title and version.
func (s *DocumentService) CreateFromContent(ctx context.Context, name, endpointPath, content, format string, opts ImportOptions) (*models.SwaggerDocument, error) {
	parsed, err := swagger.Parse([]byte(content))
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeValidation, "failed to parse document")
	}
	resolved, err := swagger.Resolve(parsed)
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeValidation, "failed to resolve references")
	}
	info, err := swagger.Describe(resolved)
	if err != nil {
		s.logger.Warn("document info unavailable", zap.String("name", name), zap.Error(err))
	}

	doc := models.NewSwaggerDocument(name, content, endpointPath)
	doc.Title = models.StringPtr(info.Title)
	doc.Version = models.StringPtr(info.Version)
	if format != "" {
		doc.FileFormat = &format
	}
	doc.BaseURL = models.StringPtr(opts.BaseURL)
	doc.APIKey = models.StringPtr(opts.APIKey)

	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeDatabase, "failed to save document")
	}

	s.logger.Info("document imported",
		zap.String("name", name),
		zap.String("endpoint", endpointPath),
		zap.Int("operations", swagger.ExtractOperations(resolved).Len()))
	return created, nil
}

// List returns all stored documents.
func (s *DocumentService) List(ctx context.Context) ([]*models.SwaggerDocument, error) {
	docs, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to list documents")
	}
	return docs, nil
}

// Active returns the documents that are served.
func (s *DocumentService) Active(ctx context.Context) ([]*models.SwaggerDocument, error) {
	docs, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to list active documents")
	}
	return docs, nil
}

// Get returns a document by name.
func (s *DocumentService) Get(ctx context.Context, name string) (*models.SwaggerDocument, error) {
	doc, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to get document")
	}
	return doc, nil
}

// Activate marks a document as served.
func (s *DocumentService) Activate(ctx context.Context, id int) error {
	return s.storeError(ctx, s.repo.SetActive(ctx, id, true), "failed to activate document")
}

// Deactivate stops serving a document.
func (s *DocumentService) Deactivate(ctx context.Context, id int) error {
	return s.storeError(ctx, s.repo.SetActive(ctx, id, false), "failed to deactivate document")
}

// Delete removes a document.
func (s *DocumentService) Delete(ctx context.Context, id int) error {
	return s.storeError(ctx, s.repo.Delete(ctx, id), "failed to delete document")
}

// SetAPIKey replaces the stored API key; an empty key clears it.
func (s *DocumentService) SetAPIKey(ctx context.Context, id int, apiKey string) error {
	return s.storeError(ctx, s.repo.UpdateAPIKey(ctx, id, models.StringPtr(apiKey)), "failed to update API key")
}

// SetBaseURL replaces the stored base URL; an empty URL clears it.
func (s *DocumentService) SetBaseURL(ctx context.Context, id int, baseURL string) error {
	return s.storeError(ctx, s.repo.UpdateBaseURL(ctx, id, models.StringPtr(baseURL)), "failed to update base URL")
}

func (s *DocumentService) storeError(ctx context.Context, err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return server.WrapWithContext(ctx, err, server.ErrorTypeNotFound, message)
	}
	return server.WrapWithContext(ctx, err, server.ErrorTypeDatabase, message)
}
