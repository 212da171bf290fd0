package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const MethodS256 = "S256"

// PKCE holds one verifier/challenge pair for the S256 code challenge method.
type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}

type Source struct{}

func (p Source) randBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)

	return b
}

// PKCE returns a fresh verifier/challenge pair.
func (p Source) PKCE() PKCE {
	const n = 32

	verifierBuf := make([]byte, base64.RawURLEncoding.EncodedLen(n))
	base64.RawURLEncoding.Encode(verifierBuf, p.randBytes(n))

	challengeSHA := sha256.Sum256(verifierBuf)
	challengeBuf := make([]byte, base64.RawURLEncoding.EncodedLen(len(challengeSHA)))
	base64.RawURLEncoding.Encode(challengeBuf, challengeSHA[:])

	return PKCE{
		Verifier:  string(verifierBuf),
		Challenge: string(challengeBuf),
		Method:    MethodS256,
	}
}

// ClientSecret returns a fresh secret for dynamically registered clients.
func (p Source) ClientSecret() string {
	const n = 32

	return base64.RawURLEncoding.EncodeToString(p.randBytes(n))
}
