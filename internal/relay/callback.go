package relay

import (
	"context"
	"fmt"
	"net/url"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

// FinaliseCallback handles the upstream redirect back to the gateway.
// It restores the client's redirect URI and state from the relay state
// and returns the URL the client is sent to, carrying either the
// authorization code or the upstream error.
func (m *Manager) FinaliseCallback(ctx context.Context, code, state, errCode, errDesc string) (string, error) {
	if errCode != "" {
		return m.relayUpstreamError(ctx, state, errCode, errDesc)
	}

	if code == "" || state == "" {
		return "", serviceerr.New(serviceerr.CodeInvalidRequest, "code and state are required")
	}

	st, err := m.codec.Decode(state)
	if err != nil {
		return "", fmt.Errorf("decoding relay state: %w", err)
	}

	u, err := url.Parse(st.RedirectURI)
	if err != nil {
		return "", serviceerr.New(serviceerr.CodeInvalidRequest, "stored redirect_uri is invalid")
	}

	q := u.Query()
	q.Set("code", code)
	if st.OriginalState != "" {
		q.Set("state", st.OriginalState)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// relayUpstreamError forwards an upstream authorization error to the
// client when the relay state is still usable, otherwise surfaces the
// error directly.
func (m *Manager) relayUpstreamError(ctx context.Context, state, errCode, errDesc string) (string, error) {
	slogctx.Info(ctx, "Upstream authorization failed", "error", errCode, "error_description", errDesc)

	st, decodeErr := m.codec.Decode(state)
	if decodeErr != nil {
		return "", serviceerr.New(serviceerr.Code(errCode), errDesc)
	}

	u, err := url.Parse(st.RedirectURI)
	if err != nil {
		return "", serviceerr.New(serviceerr.Code(errCode), errDesc)
	}

	q := u.Query()
	q.Set("error", errCode)
	if errDesc != "" {
		q.Set("error_description", errDesc)
	}
	if st.OriginalState != "" {
		q.Set("state", st.OriginalState)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
