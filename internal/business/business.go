package business

import (
	"context"
	"fmt"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openkcm/agreement-gateway/internal/business/server"
	"github.com/openkcm/agreement-gateway/internal/config"
	"github.com/openkcm/agreement-gateway/internal/navigator"
	"github.com/openkcm/agreement-gateway/internal/oidc"
	"github.com/openkcm/agreement-gateway/internal/relay"
	"github.com/openkcm/agreement-gateway/internal/tools"
)

// Main wires the gateway together and runs the HTTP API server until the
// context is cancelled.
func Main(ctx context.Context, cfg *config.Config) error {
	deps, err := initGateway(cfg)
	if err != nil {
		return fmt.Errorf("initialising the gateway: %w", err)
	}

	return server.StartHTTPServer(ctx, cfg, deps)
}

// initGateway builds the relay manager, token verifier and MCP tool server
// from the configuration. Everything is stateless, so there is nothing to
// close on shutdown.
func initGateway(cfg *config.Config) (server.Deps, error) {
	clientID, clientSecret, err := config.ClientCredentials(cfg.Provider)
	if err != nil {
		return server.Deps{}, fmt.Errorf("loading provider credentials: %w", err)
	}

	provider := oidc.NewProvider(cfg.Provider, clientID, clientSecret,
		&http.Client{Timeout: cfg.Provider.Timeout})

	relayManager, err := relay.NewManager(cfg, provider)
	if err != nil {
		return server.Deps{}, fmt.Errorf("creating relay manager: %w", err)
	}

	navClient := navigator.NewClient(cfg.Navigator,
		&http.Client{Timeout: cfg.Navigator.Timeout})

	mcpServer := tools.NewServer(cfg.MCP, tools.NewService(navClient))

	streamable := mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithStateLess(true),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			// carry the verified identity from the bearer middleware into
			// the tool handler context
			if info, ok := oidc.AuthInfoFromContext(r.Context()); ok {
				ctx = oidc.ContextWithAuthInfo(ctx, info)
			}

			return ctx
		}),
	)

	return server.Deps{
		Relay:    relayManager,
		Verifier: provider,
		MCP:      streamable,
	}, nil
}
