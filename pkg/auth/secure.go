package auth

import (
	"context"
	"net/http"
)

// KeyScheme is the Authorization scheme used for upstream API keys.
const KeyScheme = "Key"

// SecureAuthProvider provides authentication headers for an outgoing request
type SecureAuthProvider interface {
	// GetAuthHeaders returns authentication headers for the given context
	GetAuthHeaders(ctx context.Context) map[string]string
}

// keyAuthProvider sends a fixed API key as "Authorization: Key <key>"
type keyAuthProvider struct {
	key string
}

// NewKeyProvider creates a provider for a static API key
func NewKeyProvider(apiKey string) SecureAuthProvider {
	return &keyAuthProvider{key: apiKey}
}

// GetAuthHeaders returns the Authorization header. The header is sent even for an empty key.
func (p *keyAuthProvider) GetAuthHeaders(ctx context.Context) map[string]string {
	return map[string]string{
		"Authorization": KeyScheme + " " + p.key,
	}
}

// SecureRequestModifier modifies HTTP requests with authentication
type SecureRequestModifier struct {
	provider SecureAuthProvider
}

// NewSecureRequestModifier creates a new secure request modifier
func NewSecureRequestModifier(provider SecureAuthProvider) *SecureRequestModifier {
	return &SecureRequestModifier{
		provider: provider,
	}
}

// ModifyRequest adds authentication headers to an HTTP request
func (m *SecureRequestModifier) ModifyRequest(req *http.Request) {
	for key, value := range m.provider.GetAuthHeaders(req.Context()) {
		req.Header.Set(key, value)
	}
}
