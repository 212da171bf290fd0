package relaystate

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

func newTestState() State {
	return State{
		ClientID:            "mcp-9f7f2c7e-8f2c-4a59-b9a1-2f6f0c9f0d11",
		RedirectURI:         "https://client.example.com/callback",
		OriginalState:       "client-state-123",
		CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		CodeChallengeMethod: "S256",
		Resource:            "https://gateway.example.com/mcp",
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
	}{
		{name: "unsigned"},
		{name: "signed", key: []byte("relay-state-signing-key")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewCodec(tt.key, 10*time.Minute)

			token, err := codec.Encode(newTestState())
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			got, err := codec.Decode(token)
			require.NoError(t, err)
			assert.NotZero(t, got.IssuedAt)

			want := newTestState()
			if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(State{}, "IssuedAt")); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_Expiry(t *testing.T) {
	codec := NewCodec(nil, 10*time.Minute)

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	token, err := codec.Encode(newTestState())
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{
			name: "Fresh state is accepted",
			now:  issued.Add(9 * time.Minute),
		},
		{
			name: "State at the window boundary is accepted",
			now:  issued.Add(10 * time.Minute),
		},
		{
			name:    "Expired state is rejected",
			now:     issued.Add(10*time.Minute + time.Second),
			wantErr: serviceerr.ErrStateExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec.now = func() time.Time { return tt.now }

			_, err := codec.Decode(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCodec_Tampering(t *testing.T) {
	codec := NewCodec([]byte("relay-state-signing-key"), 10*time.Minute)

	token, err := codec.Encode(newTestState())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 2)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Missing signature", token: parts[0]},
		{name: "Modified payload", token: "x" + parts[0] + "." + parts[1]},
		{name: "Modified signature", token: parts[0] + "." + strings.Repeat("0", len(parts[1]))},
		{name: "Garbage token", token: "not-a-state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestCodec_WrongKey(t *testing.T) {
	enc := NewCodec([]byte("key-one"), 10*time.Minute)
	dec := NewCodec([]byte("key-two"), 10*time.Minute)

	token, err := enc.Encode(newTestState())
	require.NoError(t, err)

	_, err = dec.Decode(token)
	assert.Error(t, err)
}

func TestCodec_MalformedPayload(t *testing.T) {
	codec := NewCodec(nil, 10*time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Not base64", token: "%%%"},
		{name: "Not JSON", token: "bm90LWpzb24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			assert.Error(t, err)
		})
	}
}
