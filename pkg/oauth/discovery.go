package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// discoveryPath is appended to the issuer to locate the provider metadata.
//
// See https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderConfig
const discoveryPath = ".well-known/openid-configuration"

// discoveryTimeout bounds a discovery request shared by several callers.
const discoveryTimeout = 30 * time.Second

// DiscoveryDocument is the OpenID Provider metadata.
type DiscoveryDocument struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserInfoEndpoint                  string   `json:"userinfo_endpoint,omitempty"`
	JWKSURI                           string   `json:"jwks_uri"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	EndSessionEndpoint                string   `json:"end_session_endpoint,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ClaimsSupported                   []string `json:"claims_supported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty"`
}

// validate checks the fields that OpenID Connect Discovery marks as required.
func (d *DiscoveryDocument) validate() error {
	required := map[string]bool{
		"issuer":                                d.Issuer != "",
		"authorization_endpoint":                d.AuthorizationEndpoint != "",
		"token_endpoint":                        d.TokenEndpoint != "",
		"jwks_uri":                              d.JWKSURI != "",
		"response_types_supported":              len(d.ResponseTypesSupported) > 0,
		"subject_types_supported":               len(d.SubjectTypesSupported) > 0,
		"id_token_signing_alg_values_supported": len(d.IDTokenSigningAlgValuesSupported) > 0,
	}

	var missing []string
	for field, present := range required {
		if !present {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ServiceConfig holds the endpoints of an authorization service.
type ServiceConfig struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
	RegistrationEndpoint  string
	EndSessionEndpoint    string
	// Discovery is nil when the endpoints were configured by hand.
	Discovery *DiscoveryDocument
}

// ServiceConfigFromDiscovery derives the service endpoints from a discovery document.
func ServiceConfigFromDiscovery(doc DiscoveryDocument) ServiceConfig {
	return ServiceConfig{
		AuthorizationEndpoint: doc.AuthorizationEndpoint,
		TokenEndpoint:         doc.TokenEndpoint,
		RegistrationEndpoint:  doc.RegistrationEndpoint,
		EndSessionEndpoint:    doc.EndSessionEndpoint,
		Discovery:             &doc,
	}
}

// DiscoveryResolver fetches and validates provider metadata.
//
// Concurrent resolutions of the same issuer share a single request.
type DiscoveryResolver struct {
	httpClient *http.Client
	group      singleflight.Group
}

// NewDiscoveryResolver returns a resolver that uses the given client, or http.DefaultClient if nil.
func NewDiscoveryResolver(httpClient *http.Client) *DiscoveryResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DiscoveryResolver{httpClient: httpClient}
}

// Resolve fetches the discovery document of the given issuer.
//
// The shared request is detached from the caller that started it and bounded by discoveryTimeout.
// Every caller stops waiting when its own ctx is done. Returned errors are always of type *Error.
func (d *DiscoveryResolver) Resolve(ctx context.Context, issuer string) (ServiceConfig, error) {
	results := d.group.DoChan(issuer, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discoveryTimeout)
		defer cancel()
		return d.fetch(fetchCtx, issuer)
	})

	select {
	case <-ctx.Done():
		return ServiceConfig{}, ErrNetwork.WithCause(fmt.Errorf("discovery abandoned: %w", ctx.Err()))
	case res := <-results:
		if res.Err != nil {
			return ServiceConfig{}, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "discovery request shared", "issuer", issuer)
		}
		return ServiceConfigFromDiscovery(res.Val.(DiscoveryDocument)), nil
	}
}

func (d *DiscoveryResolver) fetch(ctx context.Context, issuer string) (DiscoveryDocument, error) {
	endpoint, err := url.JoinPath(issuer, discoveryPath)
	if err != nil {
		return DiscoveryDocument{}, ErrInvalidDiscoveryDocument.WithCause(
			fmt.Errorf("error in url.JoinPath call: %w", err))
	}

	// Form the HTTP request.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return DiscoveryDocument{}, ErrInvalidDiscoveryDocument.WithCause(
			fmt.Errorf("error in http.NewRequestWithContext call: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	// Execute request.
	res, err := d.httpClient.Do(req)
	if err != nil {
		return DiscoveryDocument{}, ErrNetwork.WithCause(fmt.Errorf("error in httpClient.Do call: %w", err))
	}
	// Close response body upon return.
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return DiscoveryDocument{}, ErrNetwork.WithCause(fmt.Errorf("error in io.ReadAll call: %w", err))
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		slog.ErrorContext(ctx, "discovery request failed", "code", res.StatusCode, "body", string(body))
		return DiscoveryDocument{}, ErrServer.WithCause(
			fmt.Errorf("discovery request failed with status code: %d", res.StatusCode))
	}

	var doc DiscoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return DiscoveryDocument{}, ErrJSONDeserialization.WithCause(fmt.Errorf("error in json.Unmarshal call: %w", err))
	}

	if err := doc.validate(); err != nil {
		return DiscoveryDocument{}, ErrInvalidDiscoveryDocument.WithCause(err)
	}

	// The issuer in the document must be the one that was asked for.
	if strings.TrimSuffix(doc.Issuer, "/") != strings.TrimSuffix(issuer, "/") {
		return DiscoveryDocument{}, ErrInvalidDiscoveryDocument.WithCause(
			errors.New("issuer mismatch: " + doc.Issuer))
	}

	return doc, nil
}
