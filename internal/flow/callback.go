package flow

import (
	"context"
	"time"

	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

// Phases reported through Callback.OnStatus.
const (
	PhaseConfiguration = "configuration"
	PhaseAuthorization = "authorization"
	PhaseCodeExchange  = "Code exchange"
)

// Outcomes reported to the Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// ResultStatus tells how the interactive step ended.
type ResultStatus int

const (
	// ResultOK means the interactive step produced a redirect.
	ResultOK ResultStatus = iota
	// ResultCanceled means the user abandoned the interactive step.
	ResultCanceled
)

// Callback receives the results of a flow.
//
// All methods are called on the flow's Executor. Exactly one of OnSuccess, OnError and OnCancel is
// called per flow, OnStatus may be called any number of times before it.
type Callback interface {
	OnStatus(phase string)
	OnSuccess(client *oauth.ClientAPI)
	OnError(message string, err *oauth.Error)
	OnCancel()
}

// LaunchRequest asks the interactive surface to open the authorization URI.
type LaunchRequest struct {
	// RequestCode must be passed back to Flow.Complete.
	RequestCode string
	URI         string
	TabColor    string
	Request     oauth.AuthorizationRequest
}

// Launcher opens the interactive step. Launch must not block until the step ends.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) error
}

// ConfigResolver resolves the service configuration of an issuer.
type ConfigResolver interface {
	Resolve(ctx context.Context, issuer string) (oauth.ServiceConfig, error)
}

// RegistrationChecker tells whether exactly this application handles the redirect URI.
type RegistrationChecker interface {
	IsRegistered(ctx context.Context, uri string) (bool, error)
}

// TokenExchanger redeems an authorization code.
type TokenExchanger interface {
	Exchange(ctx context.Context, response oauth.AuthorizationResponse) (oauth.TokenResponse, error)
}

// Observer is notified of flow outcomes and exchange latencies.
type Observer interface {
	FlowFinished(outcome string)
	ExchangeCompleted(elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) FlowFinished(string)                    {}
func (nopObserver) ExchangeCompleted(time.Duration, error) {}
