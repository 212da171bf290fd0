// Package relay implements the OAuth 2.0 authorization relay: it validates
// client authorization requests, forwards them to the upstream provider with
// the gateway's own credentials, finishes the round trip on the callback and
// relays token exchanges. All request context travels inside the state
// parameter, nothing is stored.
package relay

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/openkcm/agreement-gateway/internal/config"
	"github.com/openkcm/agreement-gateway/internal/oidc"
	"github.com/openkcm/agreement-gateway/internal/pkce"
	"github.com/openkcm/agreement-gateway/internal/relaystate"
)

// defaultSupportedScopes limits what callers may ask for. Whatever they
// request, the upstream grant is normalized to the canonical scope.
var defaultSupportedScopes = []string{"signature", "impersonation", "openid", "extended"}

type Manager struct {
	provider *oidc.Provider
	codec    *relaystate.Codec
	pkce     pkce.Source

	callbackURL     *url.URL
	canonicalScope  string
	supportedScopes map[string]struct{}
}

func NewManager(cfg *config.Config, provider *oidc.Provider) (*Manager, error) {
	callbackURL, err := url.Parse(strings.TrimSuffix(cfg.HTTP.BaseURL, "/") + "/auth/callback")
	if err != nil {
		return nil, fmt.Errorf("parsing callback URL: %w", err)
	}

	var stateKey []byte
	if cfg.Provider.StateSecret != "" {
		stateKey = []byte(cfg.Provider.StateSecret)
	}

	supported := cfg.Provider.SupportedScopes
	if len(supported) == 0 {
		supported = defaultSupportedScopes
	}
	supportedSet := make(map[string]struct{}, len(supported))
	for _, s := range supported {
		supportedSet[s] = struct{}{}
	}

	return &Manager{
		provider:        provider,
		codec:           relaystate.NewCodec(stateKey, cfg.Provider.StateTTL),
		callbackURL:     callbackURL,
		canonicalScope:  cfg.Provider.Scope,
		supportedScopes: supportedSet,
	}, nil
}

// CallbackURL is the gateway's redirect URI registered at the upstream
// provider.
func (m *Manager) CallbackURL() string {
	return m.callbackURL.String()
}

// CanonicalScope is the scope string published on every token response.
func (m *Manager) CanonicalScope() string {
	return m.canonicalScope
}

func splitScope(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == '+'
	})
}
