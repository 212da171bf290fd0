package server

import (
	"net/http"
	"strings"
)

// authorizationServerMetadata publishes the RFC 8414 document describing
// the gateway's own OAuth surface.
func (s *gatewayServer) authorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                s.baseURL,
		"authorization_endpoint":                s.baseURL + "/authorize",
		"token_endpoint":                        s.baseURL + "/token",
		"registration_endpoint":                 s.baseURL + "/register",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported":      []string{"S256"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post", "none"},
		"scopes_supported":                      strings.Fields(s.relay.CanonicalScope()),
	})
}

// protectedResourceMetadata publishes the RFC 9728 document for the MCP
// endpoint.
func (s *gatewayServer) protectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"resource":                 s.baseURL + "/mcp",
		"authorization_servers":    []string{s.baseURL},
		"scopes_supported":         strings.Fields(s.relay.CanonicalScope()),
		"bearer_methods_supported": []string{"header"},
	})
}
