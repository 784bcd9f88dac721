package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

// outcome is the terminal result of a flow.
type outcome struct {
	client *oauth.ClientAPI
	err    error
}

// cliCallback reports the progress of a flow on a terminal.
type cliCallback struct {
	out     io.Writer
	results chan outcome
}

func newCLICallback(out io.Writer) *cliCallback {
	return &cliCallback{out: out, results: make(chan outcome, 1)}
}

func (c *cliCallback) OnStatus(phase string) {
	_, _ = fmt.Fprintf(c.out, "==> %s\n", phase)
}

func (c *cliCallback) OnSuccess(client *oauth.ClientAPI) {
	c.results <- outcome{client: client}
}

func (c *cliCallback) OnError(message string, err *oauth.Error) {
	slog.Debug("flow reported an error", "message", message)
	c.results <- outcome{err: err}
}

func (c *cliCallback) OnCancel() {
	c.results <- outcome{err: oauth.ErrUserCanceled}
}

// printResult writes the token summary and the userinfo claims as JSON.
func printResult(ctx context.Context, w io.Writer, client *oauth.ClientAPI) error {
	summary := map[string]any{
		"token_type": client.Token.TokenType,
		"scope":      client.Token.Scope,
	}
	if !client.Token.AccessTokenExpiration.IsZero() {
		summary["expires_at"] = client.Token.AccessTokenExpiration.Format(time.RFC3339)
	}
	if client.Token.IDToken != "" {
		if idToken, err := oauth.ParseIDToken(client.Token.IDToken); err == nil {
			summary["subject"] = idToken.Subject
			summary["issuer"] = idToken.Issuer
		}
	}

	userInfo, err := client.UserInfo(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch userinfo", "err", err)
	} else {
		summary["userinfo"] = userInfo
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("error in json Encode call: %w", err)
	}
	return nil
}
