package oauth

import (
	"errors"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// GrantTypeAuthorizationCode is the grant used to redeem an authorization code.
const GrantTypeAuthorizationCode = "authorization_code"

// Authorization response parameter names.
const (
	ParamCode         = "code"
	ParamTokenType    = "token_type"
	ParamAccessToken  = "access_token"
	ParamExpiresIn    = "expires_in"
	ParamIDToken      = "id_token"
	ParamRefreshToken = "refresh_token"
	ParamGrantType    = "grant_type"
	ParamCodeVerifier = "code_verifier"
)

var responseParams = []string{
	ParamState, ParamTokenType, ParamCode, ParamAccessToken, ParamExpiresIn, ParamIDToken, ParamScope,
}

// errExtractResponse is the template for redirects that cannot be turned into a response.
var errExtractResponse = ErrInvalidRegistrationResponse.WithDetails("",
	"Failed to extract OAuth2 response from redirect", "")

// AuthorizationResponse is the successful result of the interactive step.
type AuthorizationResponse struct {
	// Request is the request this response answers.
	Request               AuthorizationRequest
	State                 string
	TokenType             string
	AuthorizationCode     string
	AccessToken           string
	AccessTokenExpiration time.Time
	IDToken               string
	Scope                 string
	AdditionalParameters  map[string]string
}

// ExtractResponse turns a redirect into an AuthorizationResponse for the given request.
//
// Checks run in this order:
//   - a nil request or redirect cannot be extracted
//   - an "error" query parameter yields the matching authorization error
//   - a missing code cannot be extracted
//   - the state must be structurally equal to the request state (both absent, or equal)
//
// now is used to turn "expires_in" into an absolute expiry.
func ExtractResponse(req *AuthorizationRequest, redirect *url.URL, now time.Time) (AuthorizationResponse, error) {
	if redirect == nil {
		return AuthorizationResponse{}, errExtractResponse.WithCause(errors.New("redirect is nil"))
	}
	// The request is gone when the flow was torn down before the redirect arrived.
	if req == nil {
		return AuthorizationResponse{}, errExtractResponse.WithCause(errors.New("no pending request"))
	}

	if authErr := ErrorFromRedirect(redirect); authErr != nil {
		return AuthorizationResponse{}, authErr
	}

	q := redirect.Query()
	code := q.Get(ParamCode)
	if code == "" {
		return AuthorizationResponse{}, errExtractResponse.WithCause(errors.New("code is missing"))
	}

	if !stateMatches(req.State, q) {
		return AuthorizationResponse{}, ErrStateMismatch
	}

	res := AuthorizationResponse{
		Request:              *req,
		State:                q.Get(ParamState),
		TokenType:            q.Get(ParamTokenType),
		AuthorizationCode:    code,
		AccessToken:          q.Get(ParamAccessToken),
		IDToken:              q.Get(ParamIDToken),
		Scope:                q.Get(ParamScope),
		AdditionalParameters: map[string]string{},
	}

	if raw := q.Get(ParamExpiresIn); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return AuthorizationResponse{}, errExtractResponse.WithCause(
				errors.New("expires_in is not a number: " + raw))
		}
		res.AccessTokenExpiration = now.Add(time.Duration(seconds) * time.Second)
	}

	for k := range q {
		if !slices.Contains(responseParams, k) {
			res.AdditionalParameters[k] = q.Get(k)
		}
	}

	return res, nil
}

// stateMatches compares the request state with the redirect's state parameter. An empty request
// state stands for "no state", which only matches a redirect without one.
func stateMatches(expected string, q url.Values) bool {
	if expected == "" {
		return !q.Has(ParamState)
	}
	return q.Has(ParamState) && q.Get(ParamState) == expected
}

// TokenRequest is the code-for-token exchange request derived from an authorization response.
type TokenRequest struct {
	Config               ServiceConfig
	Issuer               string
	ClientID             string
	GrantType            string
	AuthorizationCode    string
	RedirectURI          string
	CodeVerifier         string
	// Nonce is not sent, it is kept for identity token validation.
	Nonce                string
	Scopes               []string
	AdditionalParameters map[string]string
}

// TokenExchangeRequest derives the request that redeems this response's code.
func (r AuthorizationResponse) TokenExchangeRequest() TokenRequest {
	return TokenRequest{
		Config:               r.Request.Config,
		Issuer:               r.Request.Issuer,
		ClientID:             r.Request.ClientID,
		GrantType:            GrantTypeAuthorizationCode,
		AuthorizationCode:    r.AuthorizationCode,
		RedirectURI:          r.Request.RedirectURI,
		CodeVerifier:         r.Request.PKCE.Verifier,
		Nonce:                r.Request.Nonce,
		Scopes:               slices.Clone(r.Request.Scopes),
		AdditionalParameters: map[string]string{},
	}
}

// Parameters returns the form parameters of the request, without the client id.
func (t TokenRequest) Parameters() url.Values {
	v := url.Values{}
	for k, val := range t.AdditionalParameters {
		v.Set(k, val)
	}

	v.Set(ParamGrantType, t.GrantType)
	if t.AuthorizationCode != "" {
		v.Set(ParamCode, t.AuthorizationCode)
	}
	if t.RedirectURI != "" {
		v.Set(ParamRedirectURI, t.RedirectURI)
	}
	if t.CodeVerifier != "" {
		v.Set(ParamCodeVerifier, t.CodeVerifier)
	}
	return v
}
