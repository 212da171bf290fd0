package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/samber/oops"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/config"
	"github.com/openkcm/agreement-gateway/internal/middleware/accesslog"
	"github.com/openkcm/agreement-gateway/internal/middleware/cors"
	"github.com/openkcm/agreement-gateway/internal/oidc"
	"github.com/openkcm/agreement-gateway/internal/relay"
)

// Deps are the collaborators of the public HTTP server.
type Deps struct {
	Relay    *relay.Manager
	Verifier *oidc.Provider
	MCP      http.Handler
}

// createHTTPServer creates the public API http server using the given config
func createHTTPServer(_ context.Context, cfg *config.Config, deps Deps) *http.Server {
	gw := newGatewayServer(cfg, deps)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", gw.authorize)
	mux.HandleFunc("GET /auth/callback", gw.callback)
	mux.HandleFunc("POST /token", gw.token)
	mux.HandleFunc("POST /register", gw.register)
	mux.Handle("/mcp", gw.bearerMiddleware(deps.MCP))
	mux.HandleFunc("GET /.well-known/oauth-authorization-server", gw.authorizationServerMetadata)
	mux.HandleFunc("GET /.well-known/oauth-protected-resource", gw.protectedResourceMetadata)
	mux.HandleFunc("GET /health", healthHandlerFunc(cfg))

	handler := accesslog.Middleware(mux)
	handler = cors.Middleware(handler)

	return &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: handler,
	}
}

// StartHTTPServer starts the public HTTP server using the given config.
func StartHTTPServer(ctx context.Context, cfg *config.Config, deps Deps) error {
	if err := initMeters(ctx, cfg); err != nil {
		return err
	}

	server := createHTTPServer(ctx, cfg, deps)

	slogctx.Info(ctx, "Starting a listener", "address", server.Addr)

	// Parse network if the address if provided in the format of network://address.
	// Otherwise use tcp network by default. Some integration tests are easier to implement
	// by binding a listener to a unix socket rather than a TCP port,
	// since we don't need to look up for a free port or scan /proc/net on Linux or call sysctl on macOS
	// to discover which port the process is bound to.
	network := "tcp"
	if idx := strings.IndexRune(server.Addr, ':'); idx != -1 && len(server.Addr) > idx+3 && server.Addr[idx:idx+3] == "://" {
		network = server.Addr[:idx]
		server.Addr = server.Addr[idx+3:]
	}

	listener, err := new(net.ListenConfig).Listen(ctx, network, server.Addr)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create a listener")
	}

	slogctx.Info(ctx, "A listener started", "address", listener.Addr().String())

	go func() {
		slogctx.Info(ctx, "Serving an HTTP server", "address", listener.Addr().String())
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogctx.Error(ctx, "Failed to serve an HTTP server", "error", err)
		}

		slogctx.Info(ctx, "Stopped an HTTP server")
	}()

	<-ctx.Done()

	shutdownCtx, shutdownRelease := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed shutting down HTTP server")
	}

	slogctx.Info(ctx, "Completed graceful shutdown of HTTP server")

	return nil
}
