// Package relaystate encodes the authorization request parameters that must
// survive the round trip through the upstream identity provider. The state
// value carries everything needed to finish the flow, so the service keeps
// no per-request storage.
package relaystate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openkcm/agreement-gateway/internal/serviceerr"
)

// State is the payload relayed through the upstream authorization server.
// IssuedAt is unix milliseconds.
type State struct {
	ClientID            string `json:"client_id"`
	RedirectURI         string `json:"redirect_uri"`
	OriginalState       string `json:"original_state,omitempty"`
	CodeChallenge       string `json:"code_challenge,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
	Resource            string `json:"resource,omitempty"`
	IssuedAt            int64  `json:"issued_at"`
}

// Codec encodes and decodes relay state tokens. With a non-empty key every
// token carries an HMAC-SHA256 tag and tampered tokens are rejected.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCodec(key []byte, ttl time.Duration) *Codec {
	return &Codec{
		key: key,
		ttl: ttl,
		now: time.Now,
	}
}

func (c *Codec) sign(payload string) string {
	hash := hmac.New(sha256.New, c.key)
	hash.Write([]byte(payload))

	return hex.EncodeToString(hash.Sum(nil))
}

// Encode stamps the state with the current time and serializes it into a
// URL-safe token.
func (c *Codec) Encode(st State) (string, error) {
	st.IssuedAt = c.now().UnixMilli()

	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("marshaling state: %w", err)
	}

	payload := base64.RawURLEncoding.EncodeToString(data)
	if len(c.key) == 0 {
		return payload, nil
	}

	return payload + "." + c.sign(payload), nil
}

// Decode parses a token produced by Encode and enforces the freshness
// window. Expired tokens yield serviceerr.ErrStateExpired.
func (c *Codec) Decode(token string) (State, error) {
	payload := token

	if len(c.key) > 0 {
		parts := strings.Split(token, ".")
		if len(parts) != 2 {
			return State{}, serviceerr.New(serviceerr.CodeInvalidRequest, "malformed state parameter")
		}

		payload = parts[0]

		tag, err := hex.DecodeString(parts[1])
		if err != nil {
			return State{}, serviceerr.New(serviceerr.CodeInvalidRequest, "malformed state parameter")
		}

		expected, err := hex.DecodeString(c.sign(payload))
		if err != nil {
			return State{}, fmt.Errorf("decoding state signature: %w", err)
		}

		if !hmac.Equal(tag, expected) {
			return State{}, serviceerr.New(serviceerr.CodeInvalidRequest, "state signature mismatch")
		}
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return State{}, serviceerr.New(serviceerr.CodeInvalidRequest, "malformed state parameter")
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, serviceerr.New(serviceerr.CodeInvalidRequest, "malformed state parameter")
	}

	issued := time.UnixMilli(st.IssuedAt)
	if c.now().Sub(issued) > c.ttl {
		return State{}, serviceerr.ErrStateExpired
	}

	return st, nil
}
