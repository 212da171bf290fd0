package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

// TokenResponse is the upstream token endpoint response body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

type tokenError struct {
	Err         string `json:"error"`
	Description string `json:"error_description"`
}

// Exchange posts the given form to the upstream token endpoint,
// authenticating with the gateway's client credentials. Upstream OAuth
// errors come back as *serviceerr.Error carrying the upstream error code.
func (p *Provider) Exchange(ctx context.Context, form url.Values) (TokenResponse, error) {
	eps, err := p.Endpoints(ctx)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("resolving upstream endpoints: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eps.Token, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.clientID, p.clientSecret)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, serviceerr.New(serviceerr.CodeTemporarilyUnavailable, "token endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var upstream tokenError
		if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil || upstream.Err == "" {
			return TokenResponse{}, serviceerr.New(serviceerr.CodeTemporarilyUnavailable,
				fmt.Sprintf("token exchange failed with status: %d", resp.StatusCode)).
				WithStatus(resp.StatusCode)
		}

		return TokenResponse{}, serviceerr.New(serviceerr.Code(upstream.Err), upstream.Description).
			WithStatus(resp.StatusCode)
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return TokenResponse{}, fmt.Errorf("decoding response: %w", err)
	}

	return tokens, nil
}
