package models

import (
	"path/filepath"
	"strings"
	"time"
)

// SwaggerDocument represents the swagger_documents table structure
type SwaggerDocument struct {
	ID           int        `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Title        *string    `json:"title,omitempty" db:"title"`
	Version      *string    `json:"version,omitempty" db:"version"`
	Content      string     `json:"-" db:"content"`
	EndpointPath string     `json:"endpoint_path" db:"endpoint_path"`
	FileFormat   *string    `json:"file_format,omitempty" db:"file_format"`
	FileSize     *int       `json:"file_size,omitempty" db:"file_size"`
	BaseURL      *string    `json:"base_url,omitempty" db:"base_url"`
	APIKey       *string    `json:"-" db:"api_key"`
	IsActive     *bool      `json:"is_active,omitempty" db:"is_active"`
	CreatedAt    *time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// TableName returns the table name for the SwaggerDocument model
func (SwaggerDocument) TableName() string {
	return "swagger_documents"
}

// NewSwaggerDocument creates a new SwaggerDocument instance with default values
func NewSwaggerDocument(name, content, endpointPath string) *SwaggerDocument {
	now := time.Now()
	active := true
	format := FormatOf(name)
	size := len(content)

	return &SwaggerDocument{
		Name:         name,
		Content:      content,
		EndpointPath: endpointPath,
		FileFormat:   &format,
		FileSize:     &size,
		IsActive:     &active,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
}

// Active reports whether the document is served. A NULL is_active counts as active.
func (d *SwaggerDocument) Active() bool {
	return d.IsActive == nil || *d.IsActive
}

// BaseURLOr returns the stored base URL, or fallback when none is stored.
func (d *SwaggerDocument) BaseURLOr(fallback string) string {
	if d.BaseURL != nil && *d.BaseURL != "" {
		return *d.BaseURL
	}
	return fallback
}

// APIKeyOr returns the stored API key, or fallback when none is stored.
func (d *SwaggerDocument) APIKeyOr(fallback string) string {
	if d.APIKey != nil && *d.APIKey != "" {
		return *d.APIKey
	}
	return fallback
}

// FormatOf guesses the file format from a file name. Anything that is not .json is yaml.
func FormatOf(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "json"
	}
	return "yaml"
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
