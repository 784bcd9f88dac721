package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// CodeChallengeMethodS256 is the only PKCE method this package emits.
const CodeChallengeMethodS256 = "S256"

// PKCE holds a code verifier and its derived challenge. See RFC 7636.
type PKCE struct {
	Verifier        string
	Challenge       string
	ChallengeMethod string
}

// NewPKCE generates a fresh verifier with its S256 challenge.
func NewPKCE() (PKCE, error) {
	verifier, err := randomString(64)
	if err != nil {
		return PKCE{}, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return PKCE{
		Verifier:        verifier,
		Challenge:       CodeChallengeS256(verifier),
		ChallengeMethod: CodeChallengeMethodS256,
	}, nil
}

// CodeChallengeS256 derives the S256 challenge of a verifier.
func CodeChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// randomString returns n random bytes encoded as unpadded base64url.
func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error in rand.Read call: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
