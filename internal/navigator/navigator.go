// Package navigator is the client for the upstream agreement API. Every
// call goes upstream with the caller's bearer token, nothing is cached.
package navigator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/config"
	"github.com/openkcm/agreement-gateway/internal/oidc"
)

const apiName = "Navigator"

var (
	// ErrAgreementNotFound is a plain 404 for an agreement id.
	ErrAgreementNotFound = errors.New("Agreement not found")
	// ErrNavigatorDisabled marks accounts without the agreement API
	// feature.
	ErrNavigatorDisabled = errors.New("Navigator API is not available for this account")
	// ErrUpstream covers network failures and upstream 5xx answers.
	ErrUpstream = errors.New("agreement API request failed")
)

// AuthError is a 401 from the agreement API: the caller's bearer token was
// rejected upstream. Reason carries the upstream explanation when the body
// had one.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "agreement API rejected the token"
	}

	return "agreement API rejected the token: " + e.Reason
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(conf config.Navigator, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: conf.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(conf.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// DefaultAccount resolves the account the tool calls operate on.
func (c *Client) DefaultAccount(info oidc.AuthInfo) (oidc.Account, error) {
	account, ok := info.UserInfo.DefaultAccount()
	if !ok {
		return oidc.Account{}, errors.New("user has no accounts")
	}

	return account, nil
}

type listResponse struct {
	Data []Agreement `json:"data"`
}

// ListAgreements fetches all agreements visible to the account.
func (c *Client) ListAgreements(ctx context.Context, token, accountID string) ([]Agreement, error) {
	var list listResponse
	path := fmt.Sprintf("/v1/accounts/%s/agreements", accountID)
	if err := c.get(ctx, token, path, &list); err != nil {
		return nil, err
	}

	return list.Data, nil
}

// GetAgreement fetches a single agreement by id.
func (c *Client) GetAgreement(ctx context.Context, token, accountID, agreementID string) (Agreement, error) {
	var agreement Agreement
	path := fmt.Sprintf("/v1/accounts/%s/agreements/%s", accountID, agreementID)
	if err := c.get(ctx, token, path, &agreement); err != nil {
		return Agreement{}, err
	}

	return agreement, nil
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slogctx.Error(ctx, "Agreement API unreachable", "api", apiName, "error", err)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slogctx.Warn(ctx, "Agreement API request failed",
			"api", apiName, "status", resp.StatusCode, "path", path)

		return classifyStatus(resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// classifyStatus separates "this agreement does not exist" from "this
// account has no agreement API" from everything else. The upstream flags
// the latter by naming the API in the error body.
func classifyStatus(status int, body []byte) error {
	mentionsAPI := strings.Contains(strings.ToLower(string(body)), strings.ToLower(apiName))

	switch status {
	case http.StatusUnauthorized:
		return &AuthError{Reason: errorReason(body)}
	case http.StatusNotFound:
		if mentionsAPI {
			return ErrNavigatorDisabled
		}

		return ErrAgreementNotFound
	case http.StatusForbidden:
		if mentionsAPI {
			return ErrNavigatorDisabled
		}

		return fmt.Errorf("%w: status %d", ErrUpstream, status)
	default:
		return fmt.Errorf("%w: status %d", ErrUpstream, status)
	}
}

// errorReason pulls the human readable part out of an upstream error body.
func errorReason(body []byte) string {
	var parsed struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Message     string `json:"message"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	switch {
	case parsed.Description != "":
		return parsed.Description
	case parsed.Message != "":
		return parsed.Message
	default:
		return parsed.Error
	}
}
