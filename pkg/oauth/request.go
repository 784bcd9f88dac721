package oauth

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// ResponseTypeCode is the only response type used by this package.
const ResponseTypeCode = "code"

// stateEntropy is the number of random bytes behind a generated state or nonce.
const stateEntropy = 16

// Authorization request parameter names.
const (
	ParamClientID            = "client_id"
	ParamResponseType        = "response_type"
	ParamRedirectURI         = "redirect_uri"
	ParamScope               = "scope"
	ParamState               = "state"
	ParamNonce               = "nonce"
	ParamLoginHint           = "login_hint"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
)

// builtInParams can never be overridden through additional parameters.
var builtInParams = []string{
	ParamClientID, ParamResponseType, ParamRedirectURI, ParamScope, ParamState, ParamNonce,
	ParamLoginHint, ParamCodeChallenge, ParamCodeChallengeMethod,
}

// Payload carries caller supplied request customisations.
type Payload struct {
	AdditionalParameters map[string]string
	LoginHint            string
	State                string
}

// AuthorizationRequest is an immutable snapshot of one authorization attempt.
//
// It is consumed by the interactive step through URI and later used to validate the matching
// response. Fields must be treated as read-only.
type AuthorizationRequest struct {
	Config               ServiceConfig
	// Issuer is the account issuer. Identity tokens must come from it when Config carries no
	// discovery document.
	Issuer               string
	ClientID             string
	ResponseType         string
	RedirectURI          string
	Scopes               []string
	State                string
	Nonce                string
	LoginHint            string
	PKCE                 PKCE
	AdditionalParameters map[string]string
}

// NewAuthorizationRequest builds the request for the given account and optional payload.
//
// A fresh state, nonce and PKCE verifier are generated. A non-empty payload state replaces the
// generated one, a non-empty login hint is copied. Neither the account nor the payload is modified.
func NewAuthorizationRequest(account Account, payload *Payload) (AuthorizationRequest, error) {
	config, ok := account.ServiceConfig()
	if !ok {
		return AuthorizationRequest{}, ErrInvalidDiscoveryDocument.WithDetails("", "Invalid account information", "")
	}

	state, err := randomString(stateEntropy)
	if err != nil {
		return AuthorizationRequest{}, fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := randomString(stateEntropy)
	if err != nil {
		return AuthorizationRequest{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	pkce, err := NewPKCE()
	if err != nil {
		return AuthorizationRequest{}, fmt.Errorf("error in NewPKCE call: %w", err)
	}

	req := AuthorizationRequest{
		Config:               config,
		Issuer:               account.Issuer,
		ClientID:             account.ClientID,
		ResponseType:         ResponseTypeCode,
		RedirectURI:          account.RedirectURI,
		Scopes:               slices.Clone(account.Scopes),
		State:                state,
		Nonce:                nonce,
		PKCE:                 pkce,
		AdditionalParameters: map[string]string{},
	}

	if payload != nil {
		maps.Copy(req.AdditionalParameters, payload.AdditionalParameters)
		if payload.State != "" {
			req.State = payload.State
		}
		if payload.LoginHint != "" {
			req.LoginHint = payload.LoginHint
		}
	}

	return req, nil
}

// URI renders the request as the authorization endpoint URL the interactive step should open.
func (r AuthorizationRequest) URI() string {
	u, err := url.Parse(r.Config.AuthorizationEndpoint)
	if err != nil {
		// Fall back to an opaque endpoint, the provider will reject it.
		u = &url.URL{Opaque: r.Config.AuthorizationEndpoint}
	}

	q := u.Query()
	// Additional parameters first so that the built-in ones win on collision.
	for k, v := range r.AdditionalParameters {
		if slices.Contains(builtInParams, k) {
			continue
		}
		q.Set(k, v)
	}

	q.Set(ParamClientID, r.ClientID)
	q.Set(ParamResponseType, r.ResponseType)
	q.Set(ParamRedirectURI, r.RedirectURI)
	if len(r.Scopes) > 0 {
		q.Set(ParamScope, strings.Join(r.Scopes, " "))
	}
	if r.State != "" {
		q.Set(ParamState, r.State)
	}
	if r.Nonce != "" {
		q.Set(ParamNonce, r.Nonce)
	}
	if r.LoginHint != "" {
		q.Set(ParamLoginHint, r.LoginHint)
	}
	if r.PKCE.Challenge != "" {
		q.Set(ParamCodeChallenge, r.PKCE.Challenge)
		q.Set(ParamCodeChallengeMethod, r.PKCE.ChallengeMethod)
	}

	u.RawQuery = q.Encode()
	return u.String()
}
