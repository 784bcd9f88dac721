package oauth

import (
	"slices"
)

// Account describes the client registration at one provider.
//
// It is a value type. The flow never mutates an Account it was given, it derives configured copies
// with WithServiceConfig instead.
type Account struct {
	// Issuer is the OpenID Provider base URL used for discovery.
	Issuer string
	// ClientID is the identifier of this application at the provider.
	ClientID string
	// RedirectURI is where the provider sends the user after the interactive step.
	RedirectURI string
	// EndSessionRedirectURI is where the provider sends the user after logout.
	EndSessionRedirectURI string
	// Scopes to request, "openid" is expected among them for identity tokens.
	Scopes []string

	serviceConfig *ServiceConfig
}

// Configured reports whether the service endpoints are known.
func (a Account) Configured() bool {
	return a.serviceConfig != nil
}

// ServiceConfig returns the resolved endpoints. The second value is false if the account is not configured.
func (a Account) ServiceConfig() (ServiceConfig, bool) {
	if a.serviceConfig == nil {
		return ServiceConfig{}, false
	}
	return *a.serviceConfig, true
}

// WithServiceConfig returns a configured copy of the account.
func (a Account) WithServiceConfig(cfg ServiceConfig) Account {
	a.Scopes = slices.Clone(a.Scopes)
	a.serviceConfig = &cfg
	return a
}
