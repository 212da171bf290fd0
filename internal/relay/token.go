package relay

import (
	"context"
	"fmt"
	"net/url"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/oidc"
	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

// TokenRequest carries the form parameters of a client token request.
// The client's redirect_uri is deliberately absent: the upstream exchange
// always uses the gateway's own callback URL, which is what the upstream
// saw during authorization.
type TokenRequest struct {
	GrantType    string
	Code         string
	CodeVerifier string
	RefreshToken string
}

// ExchangeToken relays a token request to the upstream provider using the
// gateway's client credentials. Any response carrying an access token has
// its scope overwritten with the canonical scope string.
func (m *Manager) ExchangeToken(ctx context.Context, req TokenRequest) (oidc.TokenResponse, error) {
	form := url.Values{}

	switch req.GrantType {
	case "authorization_code":
		if req.Code == "" {
			return oidc.TokenResponse{}, serviceerr.New(serviceerr.CodeInvalidRequest, "code is required")
		}

		form.Set("grant_type", "authorization_code")
		form.Set("code", req.Code)
		form.Set("redirect_uri", m.callbackURL.String())
		if req.CodeVerifier != "" {
			form.Set("code_verifier", req.CodeVerifier)
		}
	case "refresh_token":
		if req.RefreshToken == "" {
			return oidc.TokenResponse{}, serviceerr.New(serviceerr.CodeInvalidRequest, "refresh_token is required")
		}

		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", req.RefreshToken)
	default:
		return oidc.TokenResponse{}, serviceerr.New(serviceerr.CodeUnsupportedGrantType, "unsupported grant type: "+req.GrantType)
	}

	tokens, err := m.provider.Exchange(ctx, form)
	if err != nil {
		return oidc.TokenResponse{}, fmt.Errorf("exchanging token upstream: %w", err)
	}

	if tokens.AccessToken != "" && tokens.Scope != m.canonicalScope {
		if tokens.Scope != "" {
			slogctx.Warn(ctx, "Overwriting upstream scope with the canonical scope",
				"upstream_scope", tokens.Scope, "scope", m.canonicalScope)
		}
		tokens.Scope = m.canonicalScope
	}

	return tokens, nil
}
