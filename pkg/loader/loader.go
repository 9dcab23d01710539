// Package loader reads Swagger documents from files, URLs, a remote API server or the document
// store, and prepares them for tool generation.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/auth"
	"github.com/ubermorgenland/swagger-mcp/pkg/memory"
	"github.com/ubermorgenland/swagger-mcp/pkg/models"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

// RemoteDocumentName is fetched relative to the API base URL.
const RemoteDocumentName = "openapi.json"

// DocumentStore is the subset of the repository the loader reads from.
type DocumentStore interface {
	GetActive(ctx context.Context) ([]*models.SwaggerDocument, error)
}

// LoadedSpec is a resolved document with its extracted operations.
type LoadedSpec struct {
	Endpoint   string
	Source     string
	Document   swagger.Document
	Operations *swagger.Operations
	Info       swagger.Info
	BaseURL    string
	APIKey     string
	LoadedAt   time.Time
}

// Loader loads and resolves documents.
type Loader struct {
	client  *http.Client
	reader  *memory.LimitedReader
	store   DocumentStore
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for URL and remote loads.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// WithStore enables LoadFromDatabase.
func WithStore(store DocumentStore) Option {
	return func(l *Loader) { l.store = store }
}

// WithMaxDocumentBytes caps the size of a document read from any source.
func WithMaxDocumentBytes(n int64) Option {
	return func(l *Loader) { l.reader = memory.NewLimitedReader(n) }
}

// WithUpstream sets the configured base URL and API key. A configured base URL wins over
// the one declared by the document.
func WithUpstream(baseURL, apiKey string) Option {
	return func(l *Loader) {
		l.baseURL = baseURL
		l.apiKey = apiKey
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		reader: memory.NewLimitedReader(server.DefaultDocumentSize),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(zap.String("component", "loader"))
	return l
}

// Load reads a document from a local path or an http(s) URL.
func (l *Loader) Load(ctx context.Context, source string) (*LoadedSpec, error) {
	var content []byte
	var err error
	if isURL(source) {
		content, err = l.fetch(ctx, source, "")
	} else {
		content, err = l.readFile(ctx, source)
	}
	if err != nil {
		return nil, err
	}
	return l.Process(ctx, EndpointFromPath(source), source, content)
}

// LoadRemote fetches {baseURL}openapi.json with the configured API key.
func (l *Loader) LoadRemote(ctx context.Context) (*LoadedSpec, error) {
	if l.baseURL == "" {
		return nil, server.NewErrorWithContext(ctx, server.ErrorTypeValidation, "remote document fetch requires a base URL", "")
	}
	if !strings.HasSuffix(l.baseURL, "/") {
		return nil, server.NewErrorWithContext(ctx, server.ErrorTypeValidation, "base URL must end with '/'", l.baseURL)
	}
	source := l.baseURL + RemoteDocumentName
	content, err := l.fetch(ctx, source, l.apiKey)
	if err != nil {
		return nil, err
	}
	return l.Process(ctx, "remote", source, content)
}

// LoadFromDatabase loads every active stored document. Documents that fail to process are
// logged and skipped; an empty store is an error.
func (l *Loader) LoadFromDatabase(ctx context.Context) ([]*LoadedSpec, error) {
	if l.store == nil {
		return nil, server.NewErrorWithContext(ctx, server.ErrorTypeDatabase, "document store not initialized", "")
	}

	docs, err := l.store.GetActive(ctx)
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeDatabase, "failed to load documents from database")
	}
	if len(docs) == 0 {
		return nil, server.NewErrorWithContext(ctx, server.ErrorTypeNotFound, "no active documents found in database", "")
	}

	var loaded []*LoadedSpec
	for _, doc := range docs {
		spec, err := l.Process(ctx, doc.EndpointPath, "database:"+doc.Name, []byte(doc.Content))
		if err != nil {
			l.logger.Warn("skipping stored document",
				zap.String("name", doc.Name),
				zap.String("endpoint", doc.EndpointPath),
				zap.Error(err))
			continue
		}
		spec.BaseURL = doc.BaseURLOr(spec.BaseURL)
		spec.APIKey = doc.APIKeyOr(spec.APIKey)
		loaded = append(loaded, spec)
	}
	if len(loaded) == 0 {
		return nil, server.NewErrorWithContext(ctx, server.ErrorTypeValidation, "no stored document could be loaded", "")
	}
	return loaded, nil
}

// Process parses, resolves and extracts operations from raw document content.
func (l *Loader) Process(ctx context.Context, endpoint, source string, content []byte) (*LoadedSpec, error) {
	doc, err := swagger.Parse(content)
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeValidation, "failed to parse document")
	}

	resolved, err := swagger.Resolve(doc)
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeValidation, "failed to resolve references")
	}

	info, err := swagger.Describe(resolved)
	if err != nil {
		l.logger.Warn("document info unavailable",
			zap.String("endpoint", endpoint),
			zap.String("source", source),
			zap.Error(err))
		info = swagger.Info{}
	}

	ops := swagger.ExtractOperations(resolved)
	baseURL := l.baseURL
	if baseURL == "" {
		baseURL = info.BaseURL
	}

	l.logger.Info("document loaded",
		zap.String("endpoint", endpoint),
		zap.String("source", source),
		zap.String("title", info.Title),
		zap.String("spec_version", info.SpecVersion),
		zap.Int("operations", ops.Len()))

	return &LoadedSpec{
		Endpoint:   endpoint,
		Source:     source,
		Document:   resolved,
		Operations: ops,
		Info:       info,
		BaseURL:    baseURL,
		APIKey:     l.apiKey,
		LoadedAt:   time.Now(),
	}, nil
}

func (l *Loader) fetch(ctx context.Context, url, apiKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeNetwork, "failed to create request")
	}

	client := l.client
	if apiKey != "" {
		authed := *l.client
		authed.Transport = auth.NewSecureRoundTripper(l.client.Transport, auth.NewKeyProvider(apiKey))
		client = &authed
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeNetwork, "failed to fetch document")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, server.NewErrorWithContext(ctx, server.ErrorTypeNetwork,
			fmt.Sprintf("HTTP %d when fetching document", resp.StatusCode), url)
	}

	content, err := l.reader.ReadAll(ctx, resp.Body)
	if err != nil {
		return nil, l.readError(ctx, err, url)
	}
	return content, nil
}

func (l *Loader) readFile(ctx context.Context, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, server.NewErrorWithContext(ctx, server.ErrorTypeNotFound, "document file not found", path)
		}
		return nil, server.WrapWithContext(ctx, err, server.ErrorTypeInternal, "failed to open document file")
	}
	defer f.Close()

	content, err := l.reader.ReadAll(ctx, f)
	if err != nil {
		return nil, l.readError(ctx, err, path)
	}
	return content, nil
}

func (l *Loader) readError(ctx context.Context, err error, source string) error {
	if errors.Is(err, memory.ErrTooLarge) {
		return server.NewErrorWithContext(ctx, server.ErrorTypeValidation, "document too large", source+": "+err.Error())
	}
	return server.WrapWithContext(ctx, err, server.ErrorTypeInternal, "failed to read document")
}

// EndpointFromPath derives an endpoint name from a file path or URL: the lower-cased base name
// without extension or query string.
func EndpointFromPath(path string) string {
	if isURL(path) {
		if idx := strings.IndexAny(path, "?#"); idx != -1 {
			path = path[:idx]
		}
		path = strings.TrimSuffix(path, "/")
		if idx := strings.LastIndex(path, "/"); idx != -1 {
			path = path[idx+1:]
		}
	} else {
		path = filepath.Base(path)
	}
	if idx := strings.LastIndex(path, "."); idx > 0 {
		path = path[:idx]
	}
	return strings.ToLower(path)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
