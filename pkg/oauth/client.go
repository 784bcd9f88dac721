package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/shivanshkc/oidcflow/internal/utils/httputils"
)

// ClientAPI is the authenticated client handle delivered on success.
//
// Its HTTP client attaches the access token to every request and refreshes it through the token
// endpoint once it expires, provided a refresh token was issued.
type ClientAPI struct {
	// Token is the response of the code exchange.
	Token TokenResponse

	httpClient       *http.Client
	userInfoEndpoint string
}

// NewClientAPI binds a client handle to the given token response.
//
// base is the client used for token refreshes and as the underlying transport, nil means
// http.DefaultClient. The handle outlives ctx cancellation.
func NewClientAPI(ctx context.Context, token TokenResponse, base *http.Client) *ClientAPI {
	if base == nil {
		base = http.DefaultClient
	}

	config := token.Request.Config
	conf := &oauth2.Config{
		ClientID: token.Request.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   config.AuthorizationEndpoint,
			TokenURL:  config.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: token.Request.RedirectURI,
		Scopes:      token.Request.Scopes,
	}

	oauthToken := &oauth2.Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.AccessTokenExpiration,
	}

	ctx = context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)

	var userInfo string
	if config.Discovery != nil {
		userInfo = config.Discovery.UserInfoEndpoint
	}

	return &ClientAPI{
		Token:            token,
		httpClient:       conf.Client(ctx, oauthToken),
		userInfoEndpoint: userInfo,
	}
}

// HTTPClient returns the authenticated HTTP client.
func (c *ClientAPI) HTTPClient() *http.Client {
	return c.httpClient
}

// UserInfo fetches the claims of the authenticated user from the userinfo endpoint.
func (c *ClientAPI) UserInfo(ctx context.Context) (map[string]any, error) {
	if c.userInfoEndpoint == "" {
		return nil, errors.New("userinfo endpoint is unknown")
	}

	// Form the HTTP request.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error in http.NewRequestWithContext call: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// Execute request.
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error in httpClient.Do call: %w", err)
	}
	// Close response body upon return.
	defer func() { _ = res.Body.Close() }()

	// Check if the request failed.
	if !httputils.Is2xx(res.StatusCode) {
		// Decode response body only for logging.
		resBody, err := io.ReadAll(res.Body)
		if err != nil {
			resBody = []byte("error in io.ReadAll call: " + err.Error())
		}
		slog.ErrorContext(ctx, "request failed", "code", res.StatusCode, "body", string(resBody))
		return nil, fmt.Errorf("request failed with status code: %d", res.StatusCode)
	}

	var claims map[string]any
	if err := json.NewDecoder(res.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("error in json Decode call: %w", err)
	}
	return claims, nil
}
