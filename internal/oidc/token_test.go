package oidc

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

func TestProvider_Exchange(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantErr    assert.ErrorAssertionFunc
		wantCode   serviceerr.Code
		wantStatus int
		wantScope  string
		wantAccess string
	}{
		{
			name:   "Successful exchange",
			status: http.StatusOK,
			body: TokenResponse{
				AccessToken: "upstream-access-token",
				TokenType:   "Bearer",
				ExpiresIn:   28800,
				Scope:       "signature impersonation",
			},
			wantErr:    assert.NoError,
			wantScope:  "signature impersonation",
			wantAccess: "upstream-access-token",
		},
		{
			name:       "Upstream OAuth error is forwarded",
			status:     http.StatusBadRequest,
			body:       map[string]string{"error": "invalid_grant", "error_description": "authorization code expired"},
			wantErr:    assert.Error,
			wantCode:   serviceerr.CodeInvalidGrant,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Upstream invalid_client keeps its 401",
			status:     http.StatusUnauthorized,
			body:       map[string]string{"error": "invalid_client"},
			wantErr:    assert.Error,
			wantCode:   serviceerr.CodeInvalidClient,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Upstream outage with non-JSON body",
			status:     http.StatusServiceUnavailable,
			body:       "<html>upstream down</html>",
			wantErr:    assert.Error,
			wantCode:   serviceerr.CodeTemporarilyUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "Upstream failure without OAuth body",
			status:     http.StatusBadGateway,
			body:       map[string]string{"message": "bad gateway"},
			wantErr:    assert.Error,
			wantCode:   serviceerr.CodeTemporarilyUnavailable,
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotContentType string
			httpClient := &http.Client{
				Transport: localRoundTripper{
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						gotAuth = r.Header.Get("Authorization")
						gotContentType = r.Header.Get("Content-Type")
						w.WriteHeader(tt.status)
						_ = json.NewEncoder(w).Encode(tt.body)
					}),
				},
			}

			provider := NewProvider(testProviderConfig(), "gateway-client", "gateway-secret", httpClient)

			form := url.Values{}
			form.Set("grant_type", "authorization_code")
			form.Set("code", "auth-code")

			tokens, err := provider.Exchange(t.Context(), form)
			if !tt.wantErr(t, err) {
				return
			}

			assert.NotEmpty(t, gotAuth, "Missing Basic auth header")
			assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)

			if err != nil {
				var svcErr *serviceerr.Error
				require.True(t, errors.As(err, &svcErr))
				assert.Equal(t, tt.wantCode, svcErr.Err)
				assert.Equal(t, tt.wantStatus, svcErr.HTTPStatus())
				return
			}

			assert.Equal(t, tt.wantAccess, tokens.AccessToken)
			assert.Equal(t, tt.wantScope, tokens.Scope)
		})
	}
}
