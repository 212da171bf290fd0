// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP HTTPServer `yaml:"http"`

	Provider  Provider  `yaml:"provider"`
	Navigator Navigator `yaml:"navigator"`
	MCP       MCP       `yaml:"mcp"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080"`
	BaseURL         string        `yaml:"baseURL" default:"http://localhost:8080"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
}

// Provider configures the upstream authorization server the gateway
// relays to. Endpoints left empty are filled from OIDC discovery on the
// issuer URL.
type Provider struct {
	IssuerURL             string `yaml:"issuerURL"`
	AuthorizationEndpoint string `yaml:"authorizationEndpoint"`
	TokenEndpoint         string `yaml:"tokenEndpoint"`
	UserInfoEndpoint      string `yaml:"userInfoEndpoint"`

	ClientID     commoncfg.SourceRef `yaml:"clientID"`
	ClientSecret commoncfg.SourceRef `yaml:"clientSecret"`

	Scope           string        `yaml:"scope" default:"signature"`
	SupportedScopes []string      `yaml:"supportedScopes"`
	StateTTL        time.Duration `yaml:"stateTTL" default:"10m"`
	StateSecret     string        `yaml:"stateSecret"`
	Timeout         time.Duration `yaml:"timeout" default:"30s"`
}

// Navigator configures the upstream agreement API.
type Navigator struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout" default:"30s"`
}

type MCP struct {
	ServerName    string `yaml:"serverName" default:"agreement-gateway"`
	ServerVersion string `yaml:"serverVersion" default:"1.0.0"`
}
