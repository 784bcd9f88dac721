package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/tidwall/gjson"
)

const (
	// maxIssuedAtAge bounds how far the "iat" claim may be from now.
	maxIssuedAtAge = 10 * time.Minute
	// clockSkew is tolerated on time based claims.
	clockSkew = time.Minute
)

// IDToken holds the claims of an OpenID Connect identity token.
//
// See https://openid.net/specs/openid-connect-core-1_0.html#IDToken
type IDToken struct {
	Issuer          string
	Subject         string
	Audience        []string
	Expiration      time.Time
	IssuedAt        time.Time
	Nonce           string
	AuthorizedParty string
	// Claims holds every claim of the token, including the ones above.
	Claims map[string]any
	Raw    string

	hasNonce bool
}

// ParseIDToken decodes the token without verifying it.
//
// The iss, sub, aud, exp and iat claims are required.
func ParseIDToken(raw string) (IDToken, error) {
	token, _, err := parseIDToken(raw)
	return token, err
}

func parseIDToken(raw string) (IDToken, jwt.Token, error) {
	parsed, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return IDToken{}, nil, ErrIDTokenParsing.WithCause(fmt.Errorf("error in jwt.ParseInsecure call: %w", err))
	}

	msg, err := jws.Parse([]byte(raw))
	if err != nil {
		return IDToken{}, nil, ErrIDTokenParsing.WithCause(fmt.Errorf("error in jws.Parse call: %w", err))
	}
	payload := msg.Payload()

	token := IDToken{Raw: raw}
	var found [5]bool
	token.Issuer, found[0] = parsed.Issuer()
	token.Subject, found[1] = parsed.Subject()
	token.Audience, found[2] = parsed.Audience()
	token.Expiration, found[3] = parsed.Expiration()
	token.IssuedAt, found[4] = parsed.IssuedAt()

	for i, name := range []string{"iss", "sub", "aud", "exp", "iat"} {
		if !found[i] {
			return IDToken{}, nil, ErrIDTokenParsing.WithCause(fmt.Errorf("%s claim is missing", name))
		}
	}

	if nonce := gjson.GetBytes(payload, "nonce"); nonce.Exists() {
		token.Nonce, token.hasNonce = nonce.String(), true
	}
	token.AuthorizedParty = gjson.GetBytes(payload, "azp").String()

	if err := json.Unmarshal(payload, &token.Claims); err != nil {
		return IDToken{}, nil, ErrIDTokenParsing.WithCause(fmt.Errorf("error in json.Unmarshal call: %w", err))
	}

	return token, parsed, nil
}

// KeySource provides the key set published at a JWKS URI.
type KeySource interface {
	KeySet(ctx context.Context, jwksURI string) (jwk.Set, error)
}

// IDTokenValidator validates identity tokens against the token request that produced them.
type IDTokenValidator struct {
	keys  KeySource
	clock Clock
}

// NewIDTokenValidator returns a new validator. Signatures are only verified when keys is not nil.
func NewIDTokenValidator(keys KeySource, clock Clock) *IDTokenValidator {
	if clock == nil {
		clock = SystemClock
	}
	return &IDTokenValidator{keys: keys, clock: clock}
}

// Validate parses the token and checks its signature, issuer, audience, expiry, issue time and
// nonce. A token that cannot be parsed yields ErrIDTokenParsing, every other failure yields
// ErrIDTokenValidation with the specific cause attached.
func (v *IDTokenValidator) Validate(ctx context.Context, raw string, req TokenRequest) (IDToken, error) {
	token, parsed, err := parseIDToken(raw)
	if err != nil {
		return IDToken{}, err
	}

	if err := v.verifySignature(ctx, raw, req.Config); err != nil {
		return IDToken{}, ErrIDTokenValidation.WithCause(err)
	}

	issuer := expectedIssuer(req)
	if issuer == "" {
		return IDToken{}, ErrIDTokenValidation.WithCause(errors.New("expected issuer is unknown"))
	}

	options := []jwt.ValidateOption{
		jwt.WithIssuer(issuer),
		jwt.WithAudience(req.ClientID),
		jwt.WithClock(jwt.ClockFunc(v.clock.Now)),
		jwt.WithAcceptableSkew(clockSkew),
	}
	if err := jwt.Validate(parsed, options...); err != nil {
		return IDToken{}, ErrIDTokenValidation.WithCause(fmt.Errorf("error in jwt.Validate call: %w", err))
	}

	// jwt.Validate only rejects tokens issued in the future.
	if age := v.clock.Now().Sub(token.IssuedAt); age > maxIssuedAtAge || age < -maxIssuedAtAge {
		return IDToken{}, ErrIDTokenValidation.WithCause(fmt.Errorf("issued at is too far from now: %s", age))
	}

	// Structural equality, both absent or both present and equal.
	expectNonce := req.Nonce != ""
	if expectNonce != token.hasNonce || token.Nonce != req.Nonce {
		return IDToken{}, ErrIDTokenValidation.WithCause(errors.New("nonce mismatch"))
	}

	return token, nil
}

// expectedIssuer prefers the discovered issuer over the one the account was configured with.
func expectedIssuer(req TokenRequest) string {
	if req.Config.Discovery != nil && req.Config.Discovery.Issuer != "" {
		return req.Config.Discovery.Issuer
	}
	return req.Issuer
}

func (v *IDTokenValidator) verifySignature(ctx context.Context, raw string, config ServiceConfig) error {
	if v.keys == nil {
		return nil
	}
	if config.Discovery == nil || config.Discovery.JWKSURI == "" {
		return errors.New("jwks uri is unknown")
	}

	set, err := v.keys.KeySet(ctx, config.Discovery.JWKSURI)
	if err != nil {
		return fmt.Errorf("error in keys.KeySet call: %w", err)
	}

	if _, err := jwt.Parse([]byte(raw), jwt.WithKeySet(set), jwt.WithValidate(false)); err != nil {
		return fmt.Errorf("error in jwt.Parse call: %w", err)
	}
	return nil
}

// StaticKeys is a KeySource that always returns the same key set.
type StaticKeys struct {
	Set jwk.Set
}

// KeySet returns the static set.
func (s StaticKeys) KeySet(context.Context, string) (jwk.Set, error) {
	return s.Set, nil
}

// JWKCache is a KeySource backed by an auto refreshing jwk.Cache.
//
// Providers rotate their keys, the cache keeps them fresh in the background until the context
// given to NewJWKCache is cancelled.
type JWKCache struct {
	cache *jwk.Cache

	mu         sync.Mutex
	registered map[string]struct{}
}

// NewJWKCache creates the cache. JWKS URIs are registered lazily on first use.
func NewJWKCache(ctx context.Context) (*JWKCache, error) {
	// See the documentation here:
	// https://github.com/lestrrat-go/jwx/tree/develop/v3/jwk#auto-refresh-a-key-during-a-long-running-process
	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("error in jwk.NewCache call: %w", err)
	}
	return &JWKCache{cache: cache, registered: map[string]struct{}{}}, nil
}

// KeySet returns the cached key set of the given URI, registering it first if needed.
func (j *JWKCache) KeySet(ctx context.Context, jwksURI string) (jwk.Set, error) {
	j.mu.Lock()
	if _, ok := j.registered[jwksURI]; !ok {
		if err := j.cache.Register(ctx, jwksURI); err != nil {
			j.mu.Unlock()
			return nil, fmt.Errorf("error in jwkCache.Register call: %w", err)
		}
		j.registered[jwksURI] = struct{}{}
	}
	j.mu.Unlock()

	set, err := j.cache.Lookup(ctx, jwksURI)
	if err != nil {
		return nil, fmt.Errorf("error in jwkCache.Lookup call: %w", err)
	}
	return set, nil
}
