// Package oidc talks to the upstream OAuth 2.0 provider: endpoint
// discovery, authorization code exchange and remote token verification
// through the user-info endpoint.
package oidc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zitadel/oidc/v3/pkg/client"
	zoidc "github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/openkcm/agreement-gateway/internal/config"
)

// Endpoints are the upstream endpoints the gateway relays to.
type Endpoints struct {
	Issuer        string
	Authorization string
	Token         string
	UserInfo      string
}

type Provider struct {
	issuerURL    string
	configured   Endpoints
	clientID     string
	clientSecret string
	scope        string
	httpClient   *http.Client
	cache        *gocache.Cache
}

func NewProvider(conf config.Provider, clientID, clientSecret string, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: conf.Timeout}
	}

	return &Provider{
		issuerURL: conf.IssuerURL,
		configured: Endpoints{
			Issuer:        conf.IssuerURL,
			Authorization: conf.AuthorizationEndpoint,
			Token:         conf.TokenEndpoint,
			UserInfo:      conf.UserInfoEndpoint,
		},
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        conf.Scope,
		httpClient:   httpClient,
		cache:        gocache.New(15*time.Minute, 30*time.Minute),
	}
}

// ClientID returns the upstream client identifier the gateway
// authenticates with.
func (p *Provider) ClientID() string {
	return p.clientID
}

// Endpoints returns the configured upstream endpoints, filling any that
// are missing from OIDC discovery on the issuer.
func (p *Provider) Endpoints(ctx context.Context) (Endpoints, error) {
	eps := p.configured
	if eps.Authorization != "" && eps.Token != "" && eps.UserInfo != "" {
		return eps, nil
	}

	conf, err := p.getOpenIDConfig(ctx)
	if err != nil {
		return Endpoints{}, fmt.Errorf("discovering openid configuration: %w", err)
	}

	if eps.Authorization == "" {
		eps.Authorization = conf.AuthorizationEndpoint
	}
	if eps.Token == "" {
		eps.Token = conf.TokenEndpoint
	}
	if eps.UserInfo == "" {
		eps.UserInfo = conf.UserinfoEndpoint
	}

	return eps, nil
}

func (p *Provider) getOpenIDConfig(ctx context.Context) (*zoidc.DiscoveryConfiguration, error) {
	const wkocPrefix = "wkoc_"

	// first check the cache for a recent WKOC configuration for this issuer
	cacheKey := wkocPrefix + p.issuerURL
	cached, ok := p.cache.Get(cacheKey)
	if ok {
		//nolint:forcetypeassert
		return cached.(*zoidc.DiscoveryConfiguration), nil
	}

	conf, err := client.Discover(ctx, p.issuerURL, p.httpClient)
	if err != nil {
		return nil, err
	}
	p.cache.Set(cacheKey, conf, 0)

	return conf, nil
}
