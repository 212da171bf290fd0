package oidc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/agreement-gateway/internal/config"
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

func testProviderConfig() config.Provider {
	return config.Provider{
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
}

func TestProvider_Endpoints_Configured(t *testing.T) {
	conf := testProviderConfig()
	provider := NewProvider(conf, "gateway-client", "gateway-secret", http.DefaultClient)

	eps, err := provider.Endpoints(t.Context())
	require.NoError(t, err)

	assert.Equal(t, conf.AuthorizationEndpoint, eps.Authorization)
	assert.Equal(t, conf.TokenEndpoint, eps.Token)
	assert.Equal(t, conf.UserInfoEndpoint, eps.UserInfo)
}

func TestProvider_Endpoints_Discovered(t *testing.T) {
	var hits int

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/oauth/auth",
			"token_endpoint":         srv.URL + "/oauth/token",
			"userinfo_endpoint":      srv.URL + "/oauth/userinfo",
		})
	})

	conf := testProviderConfig()
	conf.IssuerURL = srv.URL
	conf.AuthorizationEndpoint = ""
	conf.TokenEndpoint = ""
	conf.UserInfoEndpoint = ""

	provider := NewProvider(conf, "gateway-client", "gateway-secret", srv.Client())

	eps, err := provider.Endpoints(t.Context())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/oauth/auth", eps.Authorization)
	assert.Equal(t, srv.URL+"/oauth/token", eps.Token)
	assert.Equal(t, srv.URL+"/oauth/userinfo", eps.UserInfo)

	// second resolution is served from the cache
	_, err = provider.Endpoints(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}
