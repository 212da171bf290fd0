package server

import (
	"fmt"
	"net/http"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/oidc"
	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

// bearerMiddleware gates the MCP endpoint: every request is verified
// against the upstream user-info endpoint and the resulting identity is
// attached to the request context.
func (s *gatewayServer) bearerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.unauthorized(w)

			return
		}

		info, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			slogctx.Debug(r.Context(), "Bearer token rejected", "error", err)
			s.unauthorized(w)

			return
		}

		next.ServeHTTP(w, r.WithContext(oidc.ContextWithAuthInfo(r.Context(), info)))
	})
}

// unauthorized answers with the RFC 6750 challenge pointing clients at the
// protected resource metadata.
func (s *gatewayServer) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(
		`Bearer realm=%q, resource_metadata=%q, scope=%q`,
		s.baseURL+"/mcp",
		s.baseURL+"/.well-known/oauth-protected-resource",
		s.relay.CanonicalScope(),
	))

	writeOAuthError(w, serviceerr.ErrUnauthorized)
}
