package oauth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/require"
)

const (
	mockIssuer      = "https://issuer.example.com"
	mockClientID    = "mockClientID"
	mockRedirectURI = "com.example.app:/oauth2redirect"
	mockKeyID       = "mockKeyID"
)

// mockNow is the fixed instant every test clock returns.
var mockNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func mockClock() Clock {
	return ClockFunc(func() time.Time { return mockNow })
}

func mockDiscovery() DiscoveryDocument {
	return DiscoveryDocument{
		Issuer:                           mockIssuer,
		AuthorizationEndpoint:            mockIssuer + "/authorize",
		TokenEndpoint:                    mockIssuer + "/token",
		UserInfoEndpoint:                 mockIssuer + "/userinfo",
		JWKSURI:                          mockIssuer + "/jwks",
		ResponseTypesSupported:           []string{"code"},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"RS256"},
	}
}

func mockAccount() Account {
	return Account{
		Issuer:      mockIssuer,
		ClientID:    mockClientID,
		RedirectURI: mockRedirectURI,
		Scopes:      []string{"openid", "email"},
	}.WithServiceConfig(ServiceConfigFromDiscovery(mockDiscovery()))
}

func mockRequest(t *testing.T) AuthorizationRequest {
	req, err := NewAuthorizationRequest(mockAccount(), nil)
	require.NoError(t, err, "Failed to build authorization request")
	return req
}

// mockSigner holds an RSA key and the JWK set publishing its public half.
type mockSigner struct {
	key *rsa.PrivateKey
	set jwk.Set
}

func newMockSigner(t *testing.T) mockSigner {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "Failed to generate RSA key")

	encode := func(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }
	setJSON := fmt.Sprintf(`{"keys":[{"kty":"RSA","use":"sig","alg":"RS256","kid":%q,"n":%q,"e":%q}]}`,
		mockKeyID, encode(key.N.Bytes()), encode(big.NewInt(int64(key.E)).Bytes()))

	set, err := jwk.Parse([]byte(setJSON))
	require.NoError(t, err, "Failed to parse JWK set")

	return mockSigner{key: key, set: set}
}

// sign mints an RS256 token with the given claims.
func (m mockSigner) sign(t *testing.T, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = mockKeyID

	signed, err := token.SignedString(m.key)
	require.NoError(t, err, "Failed to sign token")
	return signed
}

// validClaims returns the claims of a token that passes validation for the given nonce.
func validClaims(nonce string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   mockIssuer,
		"sub":   "mockSubject",
		"aud":   mockClientID,
		"exp":   mockNow.Add(time.Hour).Unix(),
		"iat":   mockNow.Unix(),
		"nonce": nonce,
		"azp":   mockClientID,
	}
}
