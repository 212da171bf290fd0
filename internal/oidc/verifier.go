package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

// Account is one entry of the user-info accounts claim.
type Account struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	IsDefault   bool   `json:"is_default"`
	BaseURI     string `json:"base_uri"`
}

// UserInfo is the upstream user-info response body.
type UserInfo struct {
	Sub      string    `json:"sub"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Accounts []Account `json:"accounts"`
}

// DefaultAccount returns the account flagged is_default, falling back to
// the first one.
func (u UserInfo) DefaultAccount() (Account, bool) {
	for _, acc := range u.Accounts {
		if acc.IsDefault {
			return acc, true
		}
	}

	if len(u.Accounts) > 0 {
		return u.Accounts[0], true
	}

	return Account{}, false
}

// AuthInfo is the verified identity attached to every protected request.
type AuthInfo struct {
	Token    string
	ClientID string
	Scopes   []string
	UserInfo UserInfo
}

// Verify checks the bearer token against the upstream user-info endpoint.
// The result is binary: any non-2xx upstream answer yields
// serviceerr.ErrUnauthorized, the distinction between an expired token and
// other failures only shows up in the logs.
func (p *Provider) Verify(ctx context.Context, token string) (AuthInfo, error) {
	eps, err := p.Endpoints(ctx)
	if err != nil {
		return AuthInfo{}, fmt.Errorf("resolving upstream endpoints: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eps.UserInfo, nil)
	if err != nil {
		return AuthInfo{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		slogctx.Warn(ctx, "User info endpoint unreachable", "error", err)
		return AuthInfo{}, serviceerr.ErrUnauthorized
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		slogctx.Debug(ctx, "User info rejected the token")
		return AuthInfo{}, serviceerr.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		slogctx.Warn(ctx, "User info request failed", "status", resp.StatusCode)
		return AuthInfo{}, serviceerr.ErrUnauthorized
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		slogctx.Warn(ctx, "Decoding user info failed", "error", err)
		return AuthInfo{}, serviceerr.ErrUnauthorized
	}

	return AuthInfo{
		Token:    token,
		ClientID: p.clientID,
		Scopes:   strings.Fields(p.scope),
		UserInfo: info,
	}, nil
}

type authInfoKey struct{}

func ContextWithAuthInfo(ctx context.Context, info AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey{}, info)
}

func AuthInfoFromContext(ctx context.Context) (AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey{}).(AuthInfo)
	return info, ok
}
