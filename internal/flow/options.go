package flow

import (
	"errors"
	"net/http"

	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

// Options configures one flow. It is validated by New and never modified afterwards.
type Options struct {
	Account oauth.Account
	// Method defaults to BrowserLogin.
	Method LoginMethod
	// Payload is optional.
	Payload *oauth.Payload
	// TabColor is a theming hint passed to the Launcher as is.
	TabColor string
}

func (o Options) validate() error {
	var errs []error
	if o.Account.ClientID == "" {
		errs = append(errs, errors.New("account client id is required"))
	}
	if o.Account.RedirectURI == "" {
		errs = append(errs, errors.New("account redirect uri is required"))
	}
	if o.Account.Issuer == "" && !o.Account.Configured() {
		errs = append(errs, errors.New("account issuer or service config is required"))
	}
	return errors.Join(errs...)
}

// Dependencies are the collaborators of a flow. Only Launcher is always required, Checker is
// required for BrowserLogin, everything else has a default.
type Dependencies struct {
	Launcher Launcher
	Checker  RegistrationChecker
	// Resolver defaults to an oauth.DiscoveryResolver over HTTPClient.
	Resolver ConfigResolver
	// Exchanger defaults to an oauth.TokenExchanger over HTTPClient.
	Exchanger TokenExchanger
	// Executor runs callbacks. It defaults to a Loop owned by the flow.
	Executor Executor
	Observer Observer
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Clock defaults to oauth.SystemClock.
	Clock oauth.Clock
}
