package flow

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shivanshkc/oidcflow/internal/utils/httputils"
	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

const (
	mockIssuer      = "https://issuer.example.com"
	mockClientID    = "mockClientID"
	mockRedirectURI = "com.example.app:/oauth2redirect"
	mockKeyID       = "mockKeyID"
)

// waitTimeout bounds every wait on the worker or the executor.
const waitTimeout = 5 * time.Second

// mockChecker is a mock implementation of RegistrationChecker.
type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) IsRegistered(ctx context.Context, uri string) (bool, error) {
	args := m.Called(ctx, uri)
	return args.Bool(0), args.Error(1)
}

// mockLauncher records launch requests instead of opening anything.
type mockLauncher struct {
	err      error
	launched chan LaunchRequest
}

func newMockLauncher() *mockLauncher {
	return &mockLauncher{launched: make(chan LaunchRequest, 1)}
}

func (m *mockLauncher) Launch(_ context.Context, req LaunchRequest) error {
	if m.err != nil {
		return m.err
	}
	m.launched <- req
	return nil
}

func (m *mockLauncher) wait(t *testing.T) LaunchRequest {
	select {
	case req := <-m.launched:
		return req
	case <-time.After(waitTimeout):
		require.FailNow(t, "Timed out waiting for the launch")
		return LaunchRequest{}
	}
}

// recordingCallback records every callback invocation.
type recordingCallback struct {
	mu        sync.Mutex
	statuses  []string
	successes []*oauth.ClientAPI
	errs      []*oauth.Error
	cancels   int

	terminal chan struct{}
}

func newRecordingCallback() *recordingCallback {
	return &recordingCallback{terminal: make(chan struct{}, 8)}
}

func (r *recordingCallback) OnStatus(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, phase)
}

func (r *recordingCallback) OnSuccess(client *oauth.ClientAPI) {
	r.mu.Lock()
	r.successes = append(r.successes, client)
	r.mu.Unlock()
	r.terminal <- struct{}{}
}

func (r *recordingCallback) OnError(_ string, err *oauth.Error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.terminal <- struct{}{}
}

func (r *recordingCallback) OnCancel() {
	r.mu.Lock()
	r.cancels++
	r.mu.Unlock()
	r.terminal <- struct{}{}
}

// waitTerminal waits for the terminal callback, then makes sure no second one follows.
func (r *recordingCallback) waitTerminal(t *testing.T) {
	select {
	case <-r.terminal:
	case <-time.After(waitTimeout):
		require.FailNow(t, "Timed out waiting for the terminal callback")
	}

	select {
	case <-r.terminal:
		require.FailNow(t, "More than one terminal callback")
	case <-time.After(100 * time.Millisecond):
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Equal(t, 1, len(r.successes)+len(r.errs)+r.cancels, "Expected exactly one terminal callback")
}

// requireNoTerminal makes sure no terminal callback arrives for a while.
func (r *recordingCallback) requireNoTerminal(t *testing.T) {
	select {
	case <-r.terminal:
		require.FailNow(t, "Unexpected terminal callback")
	case <-time.After(200 * time.Millisecond):
	}
}

func (r *recordingCallback) lastError(t *testing.T) *oauth.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.errs, 1, "Expected exactly one error")
	return r.errs[0]
}

// manualExecutor queues posted functions until run is called.
type manualExecutor struct {
	mu    sync.Mutex
	queue []func()
}

func (m *manualExecutor) Post(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

func (m *manualExecutor) posted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *manualExecutor) run() {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

// fakeProvider serves discovery and token requests of a fake OpenID provider.
type fakeProvider struct {
	key *rsa.PrivateKey
	set jwk.Set

	// nonce is the nonce the next identity token is minted with.
	nonce atomic.Value
	// tokenBody overrides the token endpoint response when set.
	tokenBody  string
	tokenCalls atomic.Int32
}

func newFakeProvider(t *testing.T) *fakeProvider {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "Failed to generate RSA key")

	encode := func(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }
	setJSON := fmt.Sprintf(`{"keys":[{"kty":"RSA","use":"sig","alg":"RS256","kid":%q,"n":%q,"e":%q}]}`,
		mockKeyID, encode(key.N.Bytes()), encode(big.NewInt(int64(key.E)).Bytes()))

	set, err := jwk.Parse([]byte(setJSON))
	require.NoError(t, err, "Failed to parse JWK set")

	p := &fakeProvider{key: key, set: set}
	p.nonce.Store("")
	return p
}

func (p *fakeProvider) discovery() oauth.DiscoveryDocument {
	return oauth.DiscoveryDocument{
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

func (p *fakeProvider) idToken(t *testing.T) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   mockIssuer,
		"sub":   "mockSubject",
		"aud":   mockClientID,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
		"nonce": p.nonce.Load().(string),
	})
	token.Header["kid"] = mockKeyID

	signed, err := token.SignedString(p.key)
	require.NoError(t, err, "Failed to sign token")
	return signed
}

func (p *fakeProvider) httpClient(t *testing.T) *http.Client {
	respond := func(status int, body string) *http.Response {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
		}
	}

	return &http.Client{Transport: httputils.RoundTripFunc(func(req *http.Request) *http.Response {
		switch req.URL.Path {
		case "/.well-known/openid-configuration":
			body, err := json.Marshal(p.discovery())
			require.NoError(t, err)
			return respond(http.StatusOK, string(body))
		case "/token":
			p.tokenCalls.Add(1)
			if p.tokenBody != "" {
				return respond(http.StatusOK, p.tokenBody)
			}
			return respond(http.StatusOK, fmt.Sprintf(
				`{"access_token":"mockAccessToken","token_type":"Bearer","expires_in":3600,"id_token":%q}`,
				p.idToken(t)))
		default:
			return respond(http.StatusNotFound, `{}`)
		}
	})}
}

// exchanger returns a token exchanger that verifies signatures with the provider's keys.
func (p *fakeProvider) exchanger(t *testing.T) *oauth.TokenExchanger {
	validator := oauth.NewIDTokenValidator(oauth.StaticKeys{Set: p.set}, nil)
	return oauth.NewTokenExchanger(p.httpClient(t), validator, nil)
}

func mockOptions() Options {
	return Options{
		Account: oauth.Account{
			Issuer:      mockIssuer,
			ClientID:    mockClientID,
			RedirectURI: mockRedirectURI,
			Scopes:      []string{"openid"},
		},
		Method: BrowserLogin{},
	}
}
