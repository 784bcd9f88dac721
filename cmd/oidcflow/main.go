package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shivanshkc/oidcflow/internal/browser"
	"github.com/shivanshkc/oidcflow/internal/config"
	"github.com/shivanshkc/oidcflow/internal/flow"
	"github.com/shivanshkc/oidcflow/internal/handler"
	apphttp "github.com/shivanshkc/oidcflow/internal/http"
	"github.com/shivanshkc/oidcflow/internal/logger"
	"github.com/shivanshkc/oidcflow/internal/metrics"
	"github.com/shivanshkc/oidcflow/internal/middleware"
	"github.com/shivanshkc/oidcflow/internal/utils/signals"
	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

func main() {
	// Initialize basic dependencies.
	conf := config.Load()
	logger.Init(os.Stderr, conf.Logger.Level, conf.Logger.Pretty)

	if err := run(conf); err != nil {
		slog.Error("sign-in failed", "err", err)
		os.Exit(1)
	}
}

// run performs one sign-in and prints the result.
func run(conf config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if conf.Flow.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, conf.Flow.Timeout)
		defer cancelTimeout()
	}

	// Interruption abandons the attempt.
	signals.OnSignal(func(_ os.Signal) { cancel() })

	checker, closeRegistry, err := newChecker(ctx, conf)
	if err != nil {
		return fmt.Errorf("failed to set up the redirect registry: %w", err)
	}
	defer closeRegistry()

	// Metrics are served by the redirect receiver while the attempt is running.
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	observer := metrics.New(promRegistry)

	httpClient := &http.Client{Timeout: conf.Provider.HTTPTimeout}

	var keys oauth.KeySource
	if conf.Provider.VerifySignatures {
		if keys, err = oauth.NewJWKCache(ctx); err != nil {
			return fmt.Errorf("error in oauth.NewJWKCache call: %w", err)
		}
	}
	exchanger := oauth.NewTokenExchanger(httpClient, oauth.NewIDTokenValidator(keys, nil), nil)

	method, err := flow.ParseLoginMethod(conf.Flow.Method)
	if err != nil {
		return fmt.Errorf("error in flow.ParseLoginMethod call: %w", err)
	}

	opts := flow.Options{
		Account: oauth.Account{
			Issuer:      conf.Provider.Issuer,
			ClientID:    conf.Provider.ClientID,
			RedirectURI: conf.Provider.RedirectURI,
			Scopes:      conf.Provider.Scopes,
		},
		Method: method,
		Payload: &oauth.Payload{
			AdditionalParameters: conf.Provider.AdditionalParameters,
			LoginHint:            conf.Flow.LoginHint,
		},
		TabColor: conf.Flow.TabColor,
	}

	// The URI is printed when no browser can be opened.
	launcher := browser.NewLauncher(os.Stderr)
	callback := newCLICallback(os.Stderr)

	signIn, err := flow.New(opts, callback, flow.Dependencies{
		Launcher:   launcher,
		Checker:    checker,
		Exchanger:  exchanger,
		Observer:   observer,
		HTTPClient: httpClient,
	})
	if err != nil {
		return fmt.Errorf("error in flow.New call: %w", err)
	}
	defer signIn.Close()

	// Initialize the redirect receiver.
	server := &apphttp.Server{
		Config:     conf,
		Middleware: middleware.Middleware{},
		Handler:    handler.NewHandler(signIn, launcher),
		Gatherer:   promRegistry,
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to gracefully shutdown the server", "err", err)
		}
	}()

	if err := signIn.Start(); err != nil {
		return fmt.Errorf("error in flow.Start call: %w", err)
	}

	select {
	case result := <-callback.results:
		if result.err != nil {
			return result.err
		}
		return printResult(ctx, os.Stdout, result.client)
	case err := <-serverErr:
		if err == nil {
			err = errors.New("server closed")
		}
		return fmt.Errorf("redirect receiver stopped: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("sign-in did not finish: %w", ctx.Err())
	}
}
