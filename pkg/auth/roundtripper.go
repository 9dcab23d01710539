package auth

import (
	"net/http"
)

// SecureRoundTripper adds authentication to every request passing through it
type SecureRoundTripper struct {
	base     http.RoundTripper
	modifier *SecureRequestModifier
}

// NewSecureRoundTripper creates a new secure round tripper
func NewSecureRoundTripper(base http.RoundTripper, provider SecureAuthProvider) *SecureRoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return &SecureRoundTripper{
		base:     base,
		modifier: NewSecureRequestModifier(provider),
	}
}

// RoundTrip executes a single HTTP transaction with authentication
func (t *SecureRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	t.modifier.ModifyRequest(clonedReq)
	return t.base.RoundTrip(clonedReq)
}

// CloseIdleConnections closes idle connections of the wrapped transport, if it keeps any
func (t *SecureRoundTripper) CloseIdleConnections() {
	type closeIdler interface {
		CloseIdleConnections()
	}
	if ci, ok := t.base.(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}
