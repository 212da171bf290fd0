package relay

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/openkcm/agreement-gateway/internal/pkce"
	"github.com/openkcm/agreement-gateway/internal/relaystate"
	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

// AuthorizationRequest carries the query parameters of a client
// authorization request.
type AuthorizationRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	Scope               string
	Resource            string
}

var allowedCustomSchemes = map[string]struct{}{
	"vscode":          {},
	"vscode-insiders": {},
	"cursor":          {},
	"windsurf":        {},
}

var deniedSchemes = map[string]struct{}{
	"javascript": {},
	"data":       {},
	"vbscript":   {},
	"file":       {},
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// ValidateRedirectURI enforces the redirect URI scheme policy: https
// always, http only towards loopback, a short list of desktop editor
// schemes, never script-capable schemes.
func (m *Manager) ValidateRedirectURI(raw string) error {
	if raw == "" {
		return serviceerr.New(serviceerr.CodeInvalidRequest, "redirect_uri is required")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return serviceerr.New(serviceerr.CodeInvalidRequest, "redirect_uri must be an absolute URI")
	}

	scheme := strings.ToLower(u.Scheme)
	if _, ok := deniedSchemes[scheme]; ok {
		return serviceerr.New(serviceerr.CodeInvalidRequest, "redirect_uri scheme is not allowed")
	}

	switch {
	case scheme == "https":
		return nil
	case scheme == "http":
		if isLoopback(u.Hostname()) {
			return nil
		}

		return serviceerr.New(serviceerr.CodeInvalidRequest, "http redirect_uri is only allowed for loopback hosts")
	default:
		if _, ok := allowedCustomSchemes[scheme]; ok {
			return nil
		}

		return serviceerr.New(serviceerr.CodeInvalidRequest, "redirect_uri scheme is not allowed")
	}
}

func (m *Manager) validateAuthorizationRequest(req AuthorizationRequest) error {
	if req.ResponseType != "code" {
		return serviceerr.New(serviceerr.CodeUnsupportedResponseType, "only the code response type is supported")
	}

	if req.ClientID == "" {
		return serviceerr.New(serviceerr.CodeInvalidRequest, "client_id is required")
	}

	if err := m.ValidateRedirectURI(req.RedirectURI); err != nil {
		return err
	}

	if req.CodeChallenge == "" {
		return serviceerr.New(serviceerr.CodeInvalidRequest, "code_challenge is required")
	}

	if req.CodeChallengeMethod != pkce.MethodS256 {
		return serviceerr.New(serviceerr.CodeInvalidRequest, "only the S256 code challenge method is supported")
	}

	for _, term := range splitScope(req.Scope) {
		if _, ok := m.supportedScopes[term]; !ok {
			return serviceerr.New(serviceerr.CodeInvalidScope, "unsupported scope: "+term)
		}
	}

	if req.Resource != "" {
		if _, err := url.Parse(req.Resource); err != nil {
			return serviceerr.New(serviceerr.CodeInvalidRequest, "resource must be a valid URI")
		}
	}

	return nil
}

// MakeAuthURI validates the client request and returns the upstream
// authorization URI carrying the gateway's credentials and a state value
// encoding the client's request context.
func (m *Manager) MakeAuthURI(ctx context.Context, req AuthorizationRequest) (string, error) {
	if err := m.validateAuthorizationRequest(req); err != nil {
		return "", err
	}

	state, err := m.codec.Encode(relaystate.State{
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		OriginalState:       req.State,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		Resource:            req.Resource,
	})
	if err != nil {
		return "", fmt.Errorf("encoding relay state: %w", err)
	}

	endpoints, err := m.provider.Endpoints(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving upstream endpoints: %w", err)
	}

	scope := m.canonicalScope
	if terms := splitScope(req.Scope); len(terms) > 0 {
		scope = strings.Join(terms, " ")
	}

	u, err := url.Parse(endpoints.Authorization)
	if err != nil {
		return "", fmt.Errorf("parsing authorization endpoint url: %w", err)
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", m.provider.ClientID())
	q.Set("redirect_uri", m.callbackURL.String())
	q.Set("scope", scope)
	q.Set("state", state)
	q.Set("code_challenge", req.CodeChallenge)
	q.Set("code_challenge_method", req.CodeChallengeMethod)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
