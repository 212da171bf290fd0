package relay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

func TestManager_RegisterClient(t *testing.T) {
	manager := newTestManager(t, nil)

	resp, err := manager.RegisterClient(t.Context(), RegistrationRequest{
		RedirectURIs: []string{"https://client.example.com/callback"},
		ClientName:   "Example MCP Client",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.ClientID, "mcp-"), "client_id must carry the mcp- prefix")
	assert.NotEmpty(t, resp.ClientSecret)
	assert.NotZero(t, resp.ClientIDIssuedAt)
	assert.Zero(t, resp.ClientSecretExpiresAt, "issued secrets never expire")
	assert.Equal(t, []string{"https://client.example.com/callback"}, resp.RedirectURIs)
	assert.Equal(t, []string{"authorization_code", "refresh_token"}, resp.GrantTypes)
	assert.Equal(t, []string{"code"}, resp.ResponseTypes)
	assert.Equal(t, "Example MCP Client", resp.ClientName)
	assert.Equal(t, "signature", resp.Scope)
	assert.Equal(t, "client_secret_basic", resp.TokenEndpointAuthMethod)
}

func TestManager_RegisterClient_EchoesMetadata(t *testing.T) {
	manager := newTestManager(t, nil)

	resp, err := manager.RegisterClient(t.Context(), RegistrationRequest{
		RedirectURIs:            []string{"vscode://ms.extension/callback"},
		GrantTypes:              []string{"authorization_code"},
		ResponseTypes:           []string{"code"},
		Scope:                   "signature openid",
		TokenEndpointAuthMethod: "none",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"authorization_code"}, resp.GrantTypes)
	assert.Equal(t, "signature openid", resp.Scope)
	assert.Equal(t, "none", resp.TokenEndpointAuthMethod)
}

func TestManager_RegisterClient_UniqueCredentials(t *testing.T) {
	manager := newTestManager(t, nil)

	first, err := manager.RegisterClient(t.Context(), RegistrationRequest{})
	require.NoError(t, err)
	second, err := manager.RegisterClient(t.Context(), RegistrationRequest{})
	require.NoError(t, err)

	assert.NotEqual(t, first.ClientID, second.ClientID)
	assert.NotEqual(t, first.ClientSecret, second.ClientSecret)
}

func TestManager_RegisterClient_RejectsBadRedirectURI(t *testing.T) {
	manager := newTestManager(t, nil)

	_, err := manager.RegisterClient(t.Context(), RegistrationRequest{
		RedirectURIs: []string{"javascript:alert(1)"},
	})
	require.Error(t, err)

	var svcErr *serviceerr.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, serviceerr.CodeInvalidRequest, svcErr.Err)
}
