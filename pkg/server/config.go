package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Environment variables read by LoadConfig. The CONNECT_* names are accepted as fallbacks.
const (
	EnvSwaggerFile      = "SWAGGER_FILE"
	EnvBaseURL          = "API_BASE_URL"
	EnvBaseURLFallback  = "CONNECT_SERVER"
	EnvAPIKey           = "API_KEY"
	EnvAPIKeyFallback   = "CONNECT_API_KEY"
	EnvDatabaseURL      = "DATABASE_URL"
	EnvPrefix           = "SWAGGER_MCP_"
	DefaultEnvFile      = ".env"
	DefaultBasePath     = "/mcp"
	DefaultDocumentSize = 32 << 20
)

// Config holds server configuration
type Config struct {
	DatabaseMode bool
	DatabaseURL  string
	HTTPMode     bool
	HTTPAddr     string
	BasePath     string
	// PollInterval reloads stored documents periodically in database mode; zero disables it.
	PollInterval time.Duration

	// SwaggerFile is a local path or an http(s) URL.
	SwaggerFile string
	// FetchRemote loads the document from BaseURL + "openapi.json".
	FetchRemote bool
	BaseURL     string
	APIKey      string

	Include           []string
	Tags              []string
	StrictPathParams  bool
	InsecureTLS       bool
	ValidateArguments bool
	MaxConcurrency    int
	MaxDocumentBytes  int64
	MaxResponseBytes  int64

	LogLevel  string
	LogFormat string
}

// LoadConfig reads configuration from the environment after loading envFile (if it exists).
// Variables already set in the environment win over the file.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	config := &Config{
		DatabaseURL:       os.Getenv(EnvDatabaseURL),
		SwaggerFile:       os.Getenv(EnvSwaggerFile),
		BaseURL:           firstEnv(EnvBaseURL, EnvBaseURLFallback),
		APIKey:            firstEnv(EnvAPIKey, EnvAPIKeyFallback),
		HTTPAddr:          prefixed("HTTP_ADDR"),
		BasePath:          prefixed("BASE_PATH"),
		FetchRemote:       cast.ToBool(prefixed("FETCH_REMOTE")),
		Include:           splitList(prefixed("INCLUDE")),
		Tags:              splitList(prefixed("TAGS")),
		StrictPathParams:  true,
		InsecureTLS:       cast.ToBool(prefixed("INSECURE_TLS")),
		ValidateArguments: cast.ToBool(prefixed("VALIDATE_ARGS")),
		MaxConcurrency:    4,
		MaxDocumentBytes:  DefaultDocumentSize,
		MaxResponseBytes:  10 << 20,
		LogLevel:          prefixed("LOG_LEVEL"),
		LogFormat:         prefixed("LOG_FORMAT"),
	}

	if v := prefixed("STRICT_PATH_PARAMS"); v != "" {
		strict, err := cast.ToBoolE(v)
		if err != nil {
			return nil, NewError(ErrorTypeValidation, "invalid "+EnvPrefix+"STRICT_PATH_PARAMS", err.Error())
		}
		config.StrictPathParams = strict
	}
	if v := prefixed("MAX_CONCURRENCY"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, NewError(ErrorTypeValidation, "invalid "+EnvPrefix+"MAX_CONCURRENCY", err.Error())
		}
		config.MaxConcurrency = n
	}
	if v := prefixed("POLL_INTERVAL"); v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return nil, NewError(ErrorTypeValidation, "invalid "+EnvPrefix+"POLL_INTERVAL", err.Error())
		}
		config.PollInterval = d
	}
	if v := prefixed("MAX_DOCUMENT_BYTES"); v != "" {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, NewError(ErrorTypeValidation, "invalid "+EnvPrefix+"MAX_DOCUMENT_BYTES", err.Error())
		}
		config.MaxDocumentBytes = n
	}
	if v := prefixed("MAX_RESPONSE_BYTES"); v != "" {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, NewError(ErrorTypeValidation, "invalid "+EnvPrefix+"MAX_RESPONSE_BYTES", err.Error())
		}
		config.MaxResponseBytes = n
	}

	config.Normalize()
	return config, nil
}

// Normalize derives mode flags and defaults. Call it again after flags have been applied.
func (c *Config) Normalize() {
	c.DatabaseMode = c.DatabaseURL != "" && c.SwaggerFile == "" && !c.FetchRemote
	c.HTTPMode = c.HTTPAddr != ""
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		c.BasePath = "/" + c.BasePath
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.FetchRemote {
		if c.BaseURL == "" {
			return NewError(ErrorTypeValidation, "remote document fetch requires a base URL", EnvBaseURL+" is empty")
		}
		if !strings.HasSuffix(c.BaseURL, "/") {
			return NewError(ErrorTypeValidation, "base URL must end with '/'", c.BaseURL)
		}
	}

	if !c.DatabaseMode && !c.FetchRemote && c.SwaggerFile == "" {
		return NewError(ErrorTypeValidation, "no document source configured",
			"set "+EnvSwaggerFile+", --fetch-remote or "+EnvDatabaseURL)
	}

	if c.PollInterval < 0 {
		return NewError(ErrorTypeValidation, "poll interval must not be negative", c.PollInterval.String())
	}

	if c.MaxConcurrency <= 0 {
		return NewError(ErrorTypeValidation, "max concurrency must be positive", fmt.Sprint(c.MaxConcurrency))
	}

	return nil
}

// DocumentSource describes where the document is loaded from.
func (c *Config) DocumentSource() string {
	switch {
	case c.FetchRemote:
		return c.BaseURL + "openapi.json"
	case c.SwaggerFile != "":
		return c.SwaggerFile
	case c.DatabaseMode:
		return "database"
	default:
		return ""
	}
}

// LogConfiguration logs the current configuration
func (c *Config) LogConfiguration(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("source", c.DocumentSource()),
		zap.String("base_url", c.BaseURL),
		zap.String("api_key", maskSensitive(c.APIKey)),
		zap.Bool("strict_path_params", c.StrictPathParams),
		zap.Int("max_concurrency", c.MaxConcurrency),
	}
	if c.DatabaseMode {
		fields = append(fields,
			zap.String("database_url", maskSensitive(c.DatabaseURL)),
			zap.Duration("poll_interval", c.PollInterval))
	}
	if c.HTTPMode {
		fields = append(fields, zap.String("http_addr", c.HTTPAddr), zap.String("base_path", c.BasePath))
	}
	if len(c.Include) > 0 {
		fields = append(fields, zap.Strings("include", c.Include))
	}
	if len(c.Tags) > 0 {
		fields = append(fields, zap.Strings("tags", c.Tags))
	}
	if c.InsecureTLS {
		logger.Warn("upstream TLS certificate verification is disabled")
	}
	logger.Info("configuration loaded", fields...)
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func prefixed(name string) string {
	return os.Getenv(EnvPrefix + name)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// maskSensitive masks sensitive values for logging
func maskSensitive(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 20 {
		return s[:8] + "***" + s[len(s)-8:]
	}
	return "***"
}
