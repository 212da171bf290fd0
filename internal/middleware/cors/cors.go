// Package cors provides the permissive CORS middleware for the gateway's
// JSON endpoints. The allowed origin mirrors the request's Origin header,
// browser-based MCP clients connect from arbitrary origins.
package cors

import "net/http"

const (
	allowMethods = "GET, POST, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, Mcp-Session-Id, Mcp-Protocol-Version"
)

// Middleware mirrors the Origin header into the CORS response headers and
// short-circuits OPTIONS preflight requests with 204.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
