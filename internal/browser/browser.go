// Package browser opens the authorization page in the system browser.
package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/skratchdot/open-golang/open"

	"github.com/shivanshkc/oidcflow/internal/flow"
)

// Launcher implements flow.Launcher with the default browser of the OS.
type Launcher struct {
	open func(input string) error
	// fallback receives the URI when no browser could be opened. Nil means the launch fails instead.
	fallback io.Writer

	mu          sync.Mutex
	requestCode string
}

// NewLauncher returns a launcher that prints the URI to fallback if the browser cannot be opened.
func NewLauncher(fallback io.Writer) *Launcher {
	return &Launcher{open: open.Run, fallback: fallback}
}

// Launch opens the authorization URI and remembers the request code for the redirect receiver.
func (l *Launcher) Launch(ctx context.Context, req flow.LaunchRequest) error {
	l.mu.Lock()
	l.requestCode = req.RequestCode
	l.mu.Unlock()

	slog.InfoContext(ctx, "opening the authorization page", "uri", req.URI)
	err := l.open(req.URI)
	if err == nil {
		return nil
	}

	if l.fallback == nil {
		return fmt.Errorf("error in open.Run call: %w", err)
	}

	slog.WarnContext(ctx, "failed to open the browser", "err", err)
	if _, err := fmt.Fprintf(l.fallback, "Open this URL in your browser to sign in:\n\n    %s\n\n", req.URI); err != nil {
		return fmt.Errorf("error in fmt.Fprintf call: %w", err)
	}
	return nil
}

// RequestCode returns the request code of the latest launch.
func (l *Launcher) RequestCode() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requestCode
}
