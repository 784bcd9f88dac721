package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Checker verifies that a redirect URI can only be delivered to the expected component.
//
// A redirect claimed by any other component could be intercepted, so the check fails closed: it
// succeeds only when the expected component is the one and only candidate.
type Checker struct {
	registry Registry
	expected Component
}

// NewChecker returns a checker for the given receiving component.
func NewChecker(registry Registry, expected Component) *Checker {
	return &Checker{registry: registry, expected: expected}
}

// IsRegistered reports whether the expected component is the only handler of the URI.
func (c *Checker) IsRegistered(ctx context.Context, uri string) (bool, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return false, fmt.Errorf("error in url.Parse call: %w", err)
	}
	if parsed.Scheme == "" {
		return false, errors.New("redirect uri has no scheme")
	}

	candidates, err := c.registry.QueryBrowsableHandlers(ctx, parsed.Scheme, parsed.Hostname())
	if err != nil {
		return false, fmt.Errorf("error in registry.QueryBrowsableHandlers call: %w", err)
	}

	found := false
	for _, candidate := range candidates {
		if candidate != c.expected {
			slog.WarnContext(ctx, "redirect uri is claimed by another component", "uri", uri,
				"component", candidate.Name, "package", candidate.Package)
			return false, nil
		}
		found = true
	}

	if !found {
		slog.WarnContext(ctx, "no component handles the redirect uri", "uri", uri)
	}
	return found, nil
}
