// Package flow drives the OAuth2 authorization code flow of one sign-in attempt.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

var (
	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("flow already started")
	// ErrClosed is returned by operations on a closed flow.
	ErrClosed = errors.New("flow is closed")
	// ErrUnknownRequest is returned by Complete for a request code the flow is not waiting for.
	ErrUnknownRequest = errors.New("unknown request code")
)

// completion is the outcome of the interactive step.
type completion struct {
	status   ResultStatus
	redirect *url.URL
}

// continuation is the suspended interactive step, resumed by Complete.
type continuation struct {
	requestCode string
	resume      chan completion
}

// Flow is one authorization attempt.
//
// All protocol work runs on a single worker goroutine. Results reach the Callback through a
// Dispatcher, so the caller only ever observes them on the Executor.
type Flow struct {
	id   string
	opts Options
	cb   Callback
	deps Dependencies

	state      atomic.Int32
	started    atomic.Bool
	terminated atomic.Bool

	dispatcher *Dispatcher
	ownLoop    *Loop
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	pending *continuation
	// request is the authorization request waiting for its redirect.
	request *oauth.AuthorizationRequest
}

// New validates the configuration and returns a flow ready to Start.
func New(opts Options, cb Callback, deps Dependencies) (*Flow, error) {
	if opts.Method == nil {
		opts.Method = BrowserLogin{}
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if cb == nil {
		return nil, errors.New("callback is required")
	}
	if deps.Launcher == nil {
		return nil, errors.New("launcher is required")
	}
	if _, browser := opts.Method.(BrowserLogin); browser && deps.Checker == nil {
		return nil, errors.New("registration checker is required for browser login")
	}

	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	if deps.Clock == nil {
		deps.Clock = oauth.SystemClock
	}
	if deps.Resolver == nil {
		deps.Resolver = oauth.NewDiscoveryResolver(deps.HTTPClient)
	}
	if deps.Exchanger == nil {
		deps.Exchanger = oauth.NewTokenExchanger(deps.HTTPClient, nil, deps.Clock)
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	f := &Flow{id: uuid.NewString(), opts: opts, cb: cb, deps: deps}
	if deps.Executor == nil {
		f.ownLoop = NewLoop()
		f.deps.Executor = f.ownLoop
	}

	f.dispatcher = NewDispatcher(f.deps.Executor)
	f.logger = slog.With("flow", f.id)
	f.ctx, f.cancel = context.WithCancel(context.Background())
	return f, nil
}

// ID identifies the flow in logs.
func (f *Flow) ID() string { return f.id }

// State returns the current state.
func (f *Flow) State() State {
	return State(f.state.Load())
}

// Start begins the flow in the background. It only fails on misuse.
func (f *Flow) Start() error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if !f.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	f.logger.Info("flow starting", "issuer", f.opts.Account.Issuer, "method", fmt.Sprintf("%T", f.opts.Method))
	go f.work(f.ctx)
	return nil
}

// Complete resumes the interactive step. It can be called from any goroutine.
//
// The redirect is ignored when status is ResultCanceled.
func (f *Flow) Complete(requestCode string, status ResultStatus, redirect *url.URL) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.pending == nil || f.pending.requestCode != requestCode {
		f.mu.Unlock()
		f.logger.Warn("completion for unknown request ignored", "requestCode", requestCode)
		return ErrUnknownRequest
	}
	cont := f.pending
	f.pending = nil
	f.mu.Unlock()

	// Buffered, the worker may not be receiving yet.
	cont.resume <- completion{status: status, redirect: redirect}
	return nil
}

// Close tears the flow down without waiting for background work. Results that were not delivered
// yet are dropped, later results and completions are ignored.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.pending = nil
	f.request = nil
	f.mu.Unlock()

	f.cancel()
	f.dispatcher.Close()
	if f.ownLoop != nil {
		f.ownLoop.Close()
	}
	f.logger.Info("flow closed", "state", f.State())
}

// advance moves the state forward. Backward moves are ignored.
func (f *Flow) advance(to State) {
	for {
		from := f.state.Load()
		if State(from) >= to {
			return
		}
		if f.state.CompareAndSwap(from, int32(to)) {
			f.logger.Debug("state changed", "from", State(from), "to", to)
			return
		}
	}
}

func (f *Flow) status(phase string) {
	if f.terminated.Load() {
		return
	}
	f.dispatcher.Schedule(func() { f.cb.OnStatus(phase) })
}

// terminate dispatches the single terminal result of the flow.
func (f *Flow) terminate(outcome string, deliver func(Callback)) {
	if !f.terminated.CompareAndSwap(false, true) {
		return
	}
	f.deps.Observer.FlowFinished(outcome)
	if !f.dispatcher.Schedule(func() { deliver(f.cb) }) {
		f.logger.Debug("result dropped after teardown", "outcome", outcome)
	}
}

func (f *Flow) succeed(client *oauth.ClientAPI) {
	f.logger.Info("flow succeeded")
	f.terminate(OutcomeSuccess, func(cb Callback) { cb.OnSuccess(client) })
}

func (f *Flow) fail(err *oauth.Error) {
	f.logger.Error("flow failed", "err", err)
	f.terminate(OutcomeError, func(cb Callback) { cb.OnError(err.Error(), err) })
}

func (f *Flow) canceled() {
	f.logger.Info("flow canceled")
	f.terminate(OutcomeCanceled, func(cb Callback) { cb.OnCancel() })
}

// asOAuthError returns err as an *oauth.Error, wrapping it into fallback when it is not one.
func asOAuthError(err error, fallback *oauth.Error) *oauth.Error {
	var oauthErr *oauth.Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return fallback.WithCause(err)
}
