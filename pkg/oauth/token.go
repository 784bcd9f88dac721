package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/shivanshkc/oidcflow/internal/utils/httputils"
)

var tokenResponseParams = []string{
	ParamTokenType, ParamAccessToken, ParamExpiresIn, ParamIDToken, ParamRefreshToken, ParamScope,
}

// TokenResponse is the successful result of a token exchange.
type TokenResponse struct {
	// Request is the token request this response answers.
	Request               TokenRequest
	TokenType             string
	AccessToken           string
	AccessTokenExpiration time.Time
	IDToken               string
	RefreshToken          string
	Scope                 string
	AdditionalParameters  map[string]any
}

// tokenResponseBody is the wire schema of a token endpoint success response.
//
// See https://tools.ietf.org/html/rfc6749#section-5.1
type tokenResponseBody struct {
	TokenType    *string      `json:"token_type"`
	AccessToken  string       `json:"access_token"`
	ExpiresIn    *json.Number `json:"expires_in"`
	IDToken      string       `json:"id_token"`
	RefreshToken string       `json:"refresh_token"`
	Scope        string       `json:"scope"`
}

// TokenExchanger redeems authorization codes at the token endpoint.
type TokenExchanger struct {
	httpClient *http.Client
	validator  *IDTokenValidator
	clock      Clock
}

// NewTokenExchanger returns a new TokenExchanger.
//
// A nil httpClient means http.DefaultClient, a nil validator means one without signature
// verification, a nil clock means SystemClock.
func NewTokenExchanger(httpClient *http.Client, validator *IDTokenValidator, clock Clock) *TokenExchanger {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if clock == nil {
		clock = SystemClock
	}
	if validator == nil {
		validator = NewIDTokenValidator(nil, clock)
	}
	return &TokenExchanger{httpClient: httpClient, validator: validator, clock: clock}
}

// Exchange redeems the code of the given response. Returned errors are always of type *Error.
func (t *TokenExchanger) Exchange(ctx context.Context, response AuthorizationResponse) (TokenResponse, error) {
	tokenReq := response.TokenExchangeRequest()

	// The client id is always the one of the original request.
	form := tokenReq.Parameters()
	form.Set(ParamClientID, response.Request.ClientID)

	// Form the HTTP request.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenReq.Config.TokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, ErrNetwork.WithCause(fmt.Errorf("error in http.NewRequestWithContext call: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	// Execute request.
	res, err := t.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, ErrNetwork.WithCause(fmt.Errorf("error in httpClient.Do call: %w", err))
	}
	// Close response body upon return.
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return TokenResponse{}, ErrNetwork.WithCause(fmt.Errorf("error in io.ReadAll call: %w", err))
	}

	if !gjson.ValidBytes(body) {
		slog.ErrorContext(ctx, "token endpoint returned invalid json", "code", res.StatusCode, "body", string(body))
		return TokenResponse{}, ErrJSONDeserialization.WithCause(errors.New("token response body is not valid json"))
	}

	// An error field wins over the status code.
	if errField := gjson.GetBytes(body, ParamError); errField.Exists() {
		if errField.Type != gjson.String {
			return TokenResponse{}, ErrJSONDeserialization.WithCause(
				fmt.Errorf("error field is not a string: %s", errField.Raw))
		}

		name := errField.String()
		description := gjson.GetBytes(body, ParamErrorDescription).String()
		uri := gjson.GetBytes(body, ParamErrorURI).String()
		slog.WarnContext(ctx, "token endpoint returned an error", "code", res.StatusCode, "error", name)
		return TokenResponse{}, TokenErrorByName(name).WithDetails(name, description, uri)
	}

	if !httputils.Is2xx(res.StatusCode) {
		slog.ErrorContext(ctx, "request failed", "code", res.StatusCode, "body", string(body))
		return TokenResponse{}, ErrServer.WithCause(fmt.Errorf("request failed with status code: %d", res.StatusCode))
	}

	tokenRes, err := t.parseTokenResponse(body, tokenReq)
	if err != nil {
		return TokenResponse{}, ErrJSONDeserialization.WithCause(err)
	}

	if tokenRes.IDToken != "" {
		if _, err := t.validator.Validate(ctx, tokenRes.IDToken, tokenReq); err != nil {
			return TokenResponse{}, err
		}
	}

	return tokenRes, nil
}

func (t *TokenExchanger) parseTokenResponse(body []byte, tokenReq TokenRequest) (TokenResponse, error) {
	var decoded tokenResponseBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return TokenResponse{}, fmt.Errorf("error in json.Unmarshal call: %w", err)
	}

	if decoded.TokenType == nil || *decoded.TokenType == "" {
		return TokenResponse{}, errors.New("token_type is missing")
	}

	tokenRes := TokenResponse{
		Request:              tokenReq,
		TokenType:            *decoded.TokenType,
		AccessToken:          decoded.AccessToken,
		IDToken:              decoded.IDToken,
		RefreshToken:         decoded.RefreshToken,
		Scope:                decoded.Scope,
		AdditionalParameters: map[string]any{},
	}

	if decoded.ExpiresIn != nil {
		seconds, err := decoded.ExpiresIn.Int64()
		if err != nil {
			return TokenResponse{}, fmt.Errorf("expires_in is not an integer: %w", err)
		}
		tokenRes.AccessTokenExpiration = t.clock.Now().Add(time.Duration(seconds) * time.Second)
	}

	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		if !slices.Contains(tokenResponseParams, key.String()) {
			tokenRes.AdditionalParameters[key.String()] = value.Value()
		}
		return true
	})

	return tokenRes, nil
}
