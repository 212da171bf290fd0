package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/config"
	"github.com/openkcm/agreement-gateway/internal/oidc"
	"github.com/openkcm/agreement-gateway/internal/relay"
	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

const maxRegistrationBody = 1 << 20

// gatewayServer implements the OAuth relay endpoints.
type gatewayServer struct {
	cfg      *config.Config
	relay    *relay.Manager
	verifier *oidc.Provider
	baseURL  string
}

func newGatewayServer(cfg *config.Config, deps Deps) *gatewayServer {
	return &gatewayServer{
		cfg:      cfg,
		relay:    deps.Relay,
		verifier: deps.Verifier,
		baseURL:  strings.TrimSuffix(cfg.HTTP.BaseURL, "/"),
	}
}

// errorModel is the RFC 6749 error response body.
type errorModel struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	State            string `json:"state,omitempty"`
}

// Unexpected errors surface as server_error so only RFC 6749 codes ever
// reach a caller.
func toErrorModel(err error) (errorModel, int) {
	var serviceErr *serviceerr.Error
	if !errors.As(err, &serviceErr) {
		serviceErr = serviceerr.ErrServerError
	}

	return errorModel{
		Error:            string(serviceErr.Err),
		ErrorDescription: serviceErr.Description,
	}, serviceErr.HTTPStatus()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOAuthError(w http.ResponseWriter, err error) {
	body, status := toErrorModel(err)
	writeJSON(w, status, body)
}

func (s *gatewayServer) authorize(w http.ResponseWriter, r *http.Request) {
	ctx := slogctx.With(r.Context(),
		commoncfg.AttrRequestID, uuid.NewString(),
		commoncfg.AttrOperation, "authorize",
	)

	q := r.URL.Query()
	req := relay.AuthorizationRequest{
		ResponseType:        q.Get("response_type"),
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		State:               q.Get("state"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		Scope:               q.Get("scope"),
		Resource:            q.Get("resource"),
	}

	uri, err := s.relay.MakeAuthURI(ctx, req)
	if err != nil {
		slogctx.Info(ctx, "Rejected authorization request", "error", err)
		s.authorizeError(w, r, req, err)

		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	http.Redirect(w, r, uri, http.StatusFound)
}

// authorizeError redirects validation failures back to the caller when the
// redirect URI itself is trustworthy and the error class permits it,
// otherwise answers with a JSON error body.
func (s *gatewayServer) authorizeError(w http.ResponseWriter, r *http.Request, req relay.AuthorizationRequest, err error) {
	body, status := toErrorModel(err)

	redirectable := body.Error != string(serviceerr.CodeInvalidRequest) &&
		body.Error != string(serviceerr.CodeUnauthorizedClient)

	if redirectable && s.relay.ValidateRedirectURI(req.RedirectURI) == nil {
		u, parseErr := url.Parse(req.RedirectURI)
		if parseErr == nil {
			q := u.Query()
			q.Set("error", body.Error)
			if body.ErrorDescription != "" {
				q.Set("error_description", body.ErrorDescription)
			}
			if req.State != "" {
				q.Set("state", req.State)
			}
			u.RawQuery = q.Encode()

			http.Redirect(w, r, u.String(), http.StatusFound)

			return
		}
	}

	body.State = req.State
	writeJSON(w, status, body)
}

func (s *gatewayServer) callback(w http.ResponseWriter, r *http.Request) {
	ctx := slogctx.With(r.Context(),
		commoncfg.AttrRequestID, uuid.NewString(),
		commoncfg.AttrOperation, "callback",
	)

	q := r.URL.Query()
	redirectURL, err := s.relay.FinaliseCallback(ctx,
		q.Get("code"), q.Get("state"), q.Get("error"), q.Get("error_description"))
	if err != nil {
		slogctx.Info(ctx, "Callback failed", "error", err)
		writeOAuthError(w, err)

		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (s *gatewayServer) token(w http.ResponseWriter, r *http.Request) {
	ctx := slogctx.With(r.Context(),
		commoncfg.AttrRequestID, uuid.NewString(),
		commoncfg.AttrOperation, "token",
	)

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, serviceerr.New(serviceerr.CodeInvalidRequest, "malformed form body"))

		return
	}

	tokens, err := s.relay.ExchangeToken(ctx, relay.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
	})
	if err != nil {
		slogctx.Info(ctx, "Token exchange failed", "error", err)
		writeOAuthError(w, err)

		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, tokens)
}

func (s *gatewayServer) register(w http.ResponseWriter, r *http.Request) {
	ctx := slogctx.With(r.Context(),
		commoncfg.AttrRequestID, uuid.NewString(),
		commoncfg.AttrOperation, "register",
	)

	var req relay.RegistrationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegistrationBody)).Decode(&req); err != nil {
		writeOAuthError(w, serviceerr.New(serviceerr.CodeInvalidRequest, "malformed registration body"))

		return
	}

	resp, err := s.relay.RegisterClient(ctx, req)
	if err != nil {
		slogctx.Info(ctx, "Client registration rejected", "error", err)
		writeOAuthError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
