// Package tools exposes the agreement operations as MCP tools. Every
// handler resolves the caller identity from the request context and turns
// failures into in-band tool error results, never protocol errors.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/config"
	"github.com/openkcm/agreement-gateway/internal/navigator"
	"github.com/openkcm/agreement-gateway/internal/oidc"
)

type Service struct {
	navigator *navigator.Client
}

func NewService(navClient *navigator.Client) *Service {
	return &Service{navigator: navClient}
}

// NewServer builds the MCP server with all agreement tools registered.
func NewServer(cfg config.MCP, svc *Service) *server.MCPServer {
	srv := server.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		server.WithToolCapabilities(false),
	)

	srv.AddTool(mcp.NewTool("auth_status",
		mcp.WithDescription("Check the current authentication status and show the active account"),
	), svc.AuthStatus)

	srv.AddTool(mcp.NewTool("get_agreements",
		mcp.WithDescription("List all agreements visible to the authenticated account"),
	), svc.GetAgreements)

	srv.AddTool(mcp.NewTool("get_agreement_by_id",
		mcp.WithDescription("Fetch a single agreement by its id"),
		mcp.WithString("agreementId",
			mcp.Required(),
			mcp.Description("The agreement id"),
		),
	), svc.GetAgreementByID)

	srv.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search agreements by keyword across title, summary, type, category, file name and party names"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Whitespace-separated search terms, any term may match"),
		),
	), svc.Search)

	srv.AddTool(mcp.NewTool("fetch",
		mcp.WithDescription("Fetch the full record of a single agreement for the connector protocol"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The agreement id"),
		),
	), svc.Fetch)

	return srv
}

func (s *Service) authInfo(ctx context.Context) (oidc.AuthInfo, *mcp.CallToolResult) {
	info, ok := oidc.AuthInfoFromContext(ctx)
	if !ok || info.Token == "" {
		return oidc.AuthInfo{}, mcp.NewToolResultError("Authentication required: no valid bearer token was presented.")
	}

	return info, nil
}

// toolError translates the error taxonomy into caller-facing messages.
// Unexpected errors stay generic, the detail only goes to the logs.
func toolError(ctx context.Context, err error) *mcp.CallToolResult {
	var authErr *navigator.AuthError

	switch {
	case errors.As(err, &authErr):
		msg := "Authentication with the agreement service failed"
		if authErr.Reason != "" {
			msg += ": " + authErr.Reason
		}

		return mcp.NewToolResultError(msg + ". Please re-authenticate and try again.")
	case errors.Is(err, navigator.ErrAgreementNotFound):
		return mcp.NewToolResultError("Agreement not found.")
	case errors.Is(err, navigator.ErrNavigatorDisabled):
		return mcp.NewToolResultError("Navigator API is not available for this account. Ask your account administrator to enable agreement access.")
	case errors.Is(err, navigator.ErrUpstream):
		return mcp.NewToolResultError("The agreement service is temporarily unavailable. Please try again later.")
	default:
		slogctx.Error(ctx, "Tool call failed", "error", err)
		return mcp.NewToolResultError("An unexpected error occurred.")
	}
}

func (s *Service) AuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, errResult := s.authInfo(ctx)
	if errResult != nil {
		return errResult, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Authenticated as %s (%s).\n", info.UserInfo.Name, info.UserInfo.Email)

	if account, ok := info.UserInfo.DefaultAccount(); ok {
		fmt.Fprintf(&b, "Default account: %s (%s)\n", account.AccountName, account.AccountID)
	} else {
		b.WriteString("No accounts are linked to this user.\n")
	}
	fmt.Fprintf(&b, "Granted scopes: %s\n", strings.Join(info.Scopes, " "))

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Service) GetAgreements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, errResult := s.authInfo(ctx)
	if errResult != nil {
		return errResult, nil
	}

	account, err := s.navigator.DefaultAccount(info)
	if err != nil {
		return toolError(ctx, err), nil
	}

	agreements, err := s.navigator.ListAgreements(ctx, info.Token, account.AccountID)
	if err != nil {
		return toolError(ctx, err), nil
	}

	if len(agreements) == 0 {
		return mcp.NewToolResultText("No agreements were found for this account."), nil
	}

	blocks := make([]string, 0, len(agreements))
	for _, agreement := range agreements {
		blocks = append(blocks, FormatAgreement(agreement))
	}

	result := mcp.NewToolResultText(fmt.Sprintf("Found %d agreements:\n\n%s",
		len(agreements), strings.Join(blocks, "\n")))
	result.StructuredContent = map[string]any{"agreements": agreements}

	return result, nil
}

func (s *Service) GetAgreementByID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, errResult := s.authInfo(ctx)
	if errResult != nil {
		return errResult, nil
	}

	agreementID, err := request.RequireString("agreementId")
	if err != nil {
		return mcp.NewToolResultError("agreementId argument is required"), nil
	}

	account, err := s.navigator.DefaultAccount(info)
	if err != nil {
		return toolError(ctx, err), nil
	}

	agreement, err := s.navigator.GetAgreement(ctx, info.Token, account.AccountID, agreementID)
	if err != nil {
		return toolError(ctx, err), nil
	}

	result := mcp.NewToolResultText(FormatAgreement(agreement))
	result.StructuredContent = map[string]any{"agreement": agreement}

	return result, nil
}

func (s *Service) Search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, errResult := s.authInfo(ctx)
	if errResult != nil {
		return errResult, nil
	}

	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required"), nil
	}

	account, err := s.navigator.DefaultAccount(info)
	if err != nil {
		return toolError(ctx, err), nil
	}

	agreements, err := s.navigator.ListAgreements(ctx, info.Token, account.AccountID)
	if err != nil {
		return toolError(ctx, err), nil
	}

	results := make([]SearchResult, 0)
	for _, agreement := range agreements {
		if !MatchAgreement(agreement, query) {
			continue
		}

		results = append(results, SearchResult{
			ID:    agreement.ID,
			Title: agreement.Title,
			Text:  SnippetForAgreement(agreement),
			URL:   AgreementURL(account.AccountID, agreement.ID),
		})
	}

	payload, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return toolError(ctx, err), nil
	}

	result := mcp.NewToolResultText(string(payload))
	result.StructuredContent = map[string]any{"results": results}

	return result, nil
}

func (s *Service) Fetch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, errResult := s.authInfo(ctx)
	if errResult != nil {
		return errResult, nil
	}

	agreementID, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required"), nil
	}

	account, err := s.navigator.DefaultAccount(info)
	if err != nil {
		return toolError(ctx, err), nil
	}

	agreement, err := s.navigator.GetAgreement(ctx, info.Token, account.AccountID, agreementID)
	if err != nil {
		return toolError(ctx, err), nil
	}

	metadata := map[string]any{
		"type":     agreement.Type,
		"category": agreement.Category,
		"status":   agreement.Status,
	}
	if agreement.Metadata != nil {
		metadata["created_at"] = agreement.Metadata.CreatedAt
	}

	envelope := FetchResult{
		ID:       agreement.ID,
		Title:    agreement.Title,
		Text:     FormatAgreement(agreement),
		URL:      AgreementURL(account.AccountID, agreement.ID),
		Metadata: metadata,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return toolError(ctx, err), nil
	}

	result := mcp.NewToolResultText(string(payload))
	result.StructuredContent = envelope

	return result, nil
}
