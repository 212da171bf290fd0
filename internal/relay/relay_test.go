package relay

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/agreement-gateway/internal/config"
	"github.com/openkcm/agreement-gateway/internal/oidc"
)

// localRoundTripper is an http.RoundTripper that executes HTTP transactions by
// using handler directly, instead of going over an HTTP connection.
type localRoundTripper struct {
	handler http.Handler
}

func (l localRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	w := httptest.NewRecorder()
	l.handler.ServeHTTP(w, req)
	return w.Result(), nil
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HTTP = config.HTTPServer{
		Address: ":8080",
		BaseURL: "https://gateway.example.com",
	}
	cfg.Provider = config.Provider{
		IssuerURL:             "https://account.example.com",
		AuthorizationEndpoint: "https://account.example.com/oauth/auth",
		TokenEndpoint:         "https://account.example.com/oauth/token",
		UserInfoEndpoint:      "https://account.example.com/oauth/userinfo",
		ClientID:              commoncfg.SourceRef{Source: "embedded", Value: "gateway-client"},
		ClientSecret:          commoncfg.SourceRef{Source: "embedded", Value: "gateway-secret"},
		Scope:                 "signature",
		StateTTL:              10 * time.Minute,
		Timeout:               30 * time.Second,
	}

	return cfg
}

func newTestManager(t *testing.T, handler http.Handler) *Manager {
	t.Helper()

	httpClient := http.DefaultClient
	if handler != nil {
		httpClient = &http.Client{Transport: localRoundTripper{handler}}
	}

	cfg := newTestConfig()
	provider := oidc.NewProvider(cfg.Provider, "gateway-client", "gateway-secret", httpClient)

	manager, err := NewManager(cfg, provider)
	require.NoError(t, err)

	return manager
}

func validAuthorizationRequest() AuthorizationRequest {
	return AuthorizationRequest{
		ResponseType:        "code",
		ClientID:            "mcp-9f7f2c7e-8f2c-4a59-b9a1-2f6f0c9f0d11",
		RedirectURI:         "https://client.example.com/callback",
		State:               "client-state-123",
		CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallengeMethod: "S256",
		Scope:               "signature",
	}
}
