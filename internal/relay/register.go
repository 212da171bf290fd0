package relay

import (
	"context"
	"time"

	"github.com/google/uuid"
	slogctx "github.com/veqryn/slog-context"
)

// RegistrationRequest is an RFC 7591 dynamic client registration body.
type RegistrationRequest struct {
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	ClientName              string   `json:"client_name"`
	Scope                   string   `json:"scope"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// RegistrationResponse is the issued client metadata.
type RegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientSecretExpiresAt   int64    `json:"client_secret_expires_at"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	ClientName              string   `json:"client_name,omitempty"`
	Scope                   string   `json:"scope"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// RegisterClient issues fresh client credentials without persisting them.
// The upstream provider never sees these: the gateway substitutes its own
// credentials on every relayed call, so acceptance here is enough.
func (m *Manager) RegisterClient(ctx context.Context, req RegistrationRequest) (RegistrationResponse, error) {
	for _, redirectURI := range req.RedirectURIs {
		if err := m.ValidateRedirectURI(redirectURI); err != nil {
			return RegistrationResponse{}, err
		}
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{"authorization_code", "refresh_token"}
	}

	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = []string{"code"}
	}

	scope := req.Scope
	if scope == "" {
		scope = m.canonicalScope
	}

	authMethod := req.TokenEndpointAuthMethod
	if authMethod == "" {
		authMethod = "client_secret_basic"
	}

	clientID := "mcp-" + uuid.NewString()
	slogctx.Info(ctx, "Registered dynamic client", "client_id", clientID, "client_name", req.ClientName)

	return RegistrationResponse{
		ClientID:                clientID,
		ClientSecret:            m.pkce.ClientSecret(),
		ClientIDIssuedAt:        time.Now().Unix(),
		ClientSecretExpiresAt:   0,
		RedirectURIs:            req.RedirectURIs,
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		ClientName:              req.ClientName,
		Scope:                   scope,
		TokenEndpointAuthMethod: authMethod,
	}, nil
}
