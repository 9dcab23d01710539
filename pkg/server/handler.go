package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
)

// ReloadResponse represents the response from a reload operation
type ReloadResponse struct {
	Success      bool     `json:"success"`
	ReloadedAPIs []string `json:"reloaded_apis,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// HandleReload handles the /reload endpoint for reloading documents
func HandleReload(reloadFunc func(context.Context) ([]string, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		reloadedAPIs, err := reloadFunc(r.Context())

		response := ReloadResponse{
			Success:      err == nil,
			ReloadedAPIs: reloadedAPIs,
		}
		status := http.StatusOK
		if err != nil {
			response.Error = err.Error()
			status = HTTPStatus(err)
			logger.Error("reload failed", zap.Error(err))
		} else {
			logger.Info("reloaded documents", zap.Strings("apis", reloadedAPIs))
		}

		writeJSON(w, status, response, logger)
	}
}

// HandleHealth handles the /health endpoint for health checks
func HandleHealth(toolCount func() int, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "healthy",
			"service": "swagger-mcp",
			"tools":   toolCount(),
		}, logger)
	}
}

// HandleToolList serves the current tool descriptions
func HandleToolList(listFunc func() []openapi2mcp.Tool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, listFunc(), logger)
	}
}

// HandleAPIList handles listing stored documents
func HandleAPIList(listFunc func(context.Context) (any, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apis, err := listFunc(r.Context())
		if err != nil {
			logger.Error("failed to list APIs", zap.Error(err))
			writeJSON(w, HTTPStatus(err), map[string]string{"error": err.Error()}, logger)
			return
		}
		writeJSON(w, http.StatusOK, apis, logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// Routes wires the admin endpoints and the MCP handler into one mux.
type Routes struct {
	BasePath  string
	MCP       http.Handler
	Metrics   http.Handler
	Tools     func() []openapi2mcp.Tool
	Reload    func(context.Context) ([]string, error)
	Documents func(context.Context) (any, error)
	Logger    *zap.Logger
}

// Mux builds the HTTP mux. Optional handlers that are nil are not mounted.
func (rt Routes) Mux() *http.ServeMux {
	logger := rt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	basePath := rt.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}

	mux := http.NewServeMux()
	mux.Handle(basePath, rt.MCP)
	if sub := strings.TrimSuffix(basePath, "/") + "/"; sub != basePath {
		mux.Handle(sub, rt.MCP)
	}
	mux.Handle("/health", HandleHealth(func() int { return len(rt.Tools()) }, logger))
	mux.Handle("/tools", HandleToolList(rt.Tools, logger))
	if rt.Reload != nil {
		mux.Handle("/reload", HandleReload(rt.Reload, logger))
	}
	if rt.Metrics != nil {
		mux.Handle("/metrics", rt.Metrics)
	}
	if rt.Documents != nil {
		mux.Handle("/specs", HandleAPIList(rt.Documents, logger))
	}
	return mux
}
