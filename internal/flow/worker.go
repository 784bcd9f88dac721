package flow

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

// work runs the whole flow on the worker goroutine.
func (f *Flow) work(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			f.fail(oauth.ErrProgramCanceled.WithCause(fmt.Errorf("panic in flow worker: %v", r)))
		}
	}()

	switch f.opts.Method.(type) {
	case NativeLogin:
		f.fail(oauth.ErrUnsupportedLoginMethod)
		return
	case BrowserLogin:
	}

	account, ok := f.resolveAccount(ctx)
	if !ok {
		return
	}
	f.advance(StateDiscovery)

	if !f.checkRegistration(ctx, account.RedirectURI) {
		return
	}

	redirect, ok := f.authorize(ctx, account)
	if !ok {
		return
	}

	f.exchange(ctx, redirect)
}

// resolveAccount returns a configured copy of the account, running discovery if needed.
func (f *Flow) resolveAccount(ctx context.Context) (oauth.Account, bool) {
	account := f.opts.Account
	if account.Configured() {
		return account, true
	}

	f.status(PhaseConfiguration)
	config, err := f.deps.Resolver.Resolve(ctx, account.Issuer)
	if err != nil {
		if ctx.Err() != nil {
			return oauth.Account{}, false
		}
		f.fail(asOAuthError(err, oauth.ErrInvalidDiscoveryDocument))
		return oauth.Account{}, false
	}

	f.logger.Info("service configuration resolved", "authorizationEndpoint", config.AuthorizationEndpoint)
	return account.WithServiceConfig(config), true
}

// checkRegistration fails the flow unless exactly this application handles the redirect URI.
func (f *Flow) checkRegistration(ctx context.Context, redirectURI string) bool {
	registered, err := f.deps.Checker.IsRegistered(ctx, redirectURI)
	if err != nil {
		f.logger.Warn("registration check failed", "uri", redirectURI, "err", err)
	}
	if err != nil || !registered {
		f.fail(oauth.ErrNoRegisteredHandler)
		return false
	}
	return true
}

// authorize launches the interactive step and waits for its redirect. It reports false when the
// flow ended, either because a result was dispatched or because it was closed.
func (f *Flow) authorize(ctx context.Context, account oauth.Account) (*url.URL, bool) {
	req, err := oauth.NewAuthorizationRequest(account, f.opts.Payload)
	if err != nil {
		f.fail(asOAuthError(err, oauth.ErrInvalidDiscoveryDocument))
		return nil, false
	}

	f.status(PhaseAuthorization)

	cont := &continuation{requestCode: uuid.NewString(), resume: make(chan completion, 1)}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, false
	}
	f.pending = cont
	f.request = &req
	f.mu.Unlock()

	launch := LaunchRequest{RequestCode: cont.requestCode, URI: req.URI(), TabColor: f.opts.TabColor, Request: req}
	if err := f.deps.Launcher.Launch(ctx, launch); err != nil {
		f.mu.Lock()
		f.pending = nil
		f.mu.Unlock()
		f.fail(oauth.ErrProgramCanceled.WithCause(fmt.Errorf("error in launcher.Launch call: %w", err)))
		return nil, false
	}
	f.logger.Info("waiting for the interactive step", "requestCode", cont.requestCode)

	var result completion
	select {
	case result = <-cont.resume:
	case <-ctx.Done():
		return nil, false
	}

	if result.status == ResultCanceled {
		f.canceled()
		return nil, false
	}
	return result.redirect, true
}

// exchange validates the redirect and redeems its code.
func (f *Flow) exchange(ctx context.Context, redirect *url.URL) {
	f.mu.Lock()
	// Nil once the flow was closed.
	req := f.request
	f.mu.Unlock()

	response, err := oauth.ExtractResponse(req, redirect, f.deps.Clock.Now())
	if err != nil {
		f.fail(asOAuthError(err, oauth.ErrInvalidRegistrationResponse))
		return
	}

	f.advance(StateAuthorizing)
	f.status(PhaseCodeExchange)
	f.advance(StateCodeExchange)

	start := time.Now()
	token, err := f.deps.Exchanger.Exchange(ctx, response)
	f.deps.Observer.ExchangeCompleted(time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		f.fail(asOAuthError(err, oauth.ErrNetwork))
		return
	}

	client := oauth.NewClientAPI(ctx, token, f.deps.HTTPClient)
	f.advance(StateFinished)
	f.succeed(client)
}
