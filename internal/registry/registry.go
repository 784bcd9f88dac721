// Package registry answers which components claim a redirect URI.
package registry

import (
	"context"
)

// ActionView is the action a component registers to receive redirects.
const ActionView = "view"

// Component identifies a redirect receiving component and the application that owns it.
type Component struct {
	Name    string `json:"name"`
	Package string `json:"package"`
}

// Registration is a component's claim on redirects of a scheme, and optionally a host.
type Registration struct {
	Component Component `json:"component"`
	Action    string    `json:"action"`
	Browsable bool      `json:"browsable"`
	Scheme    string    `json:"scheme"`
	// Host is empty when the registration covers every host of the scheme.
	Host string `json:"host"`
}

// Registry stores registrations.
type Registry interface {
	// Register adds a registration. Registering the same claim twice is not an error.
	Register(ctx context.Context, reg Registration) error
	// QueryBrowsableHandlers returns the distinct components registered for the view action as
	// browsable on the given scheme, either for the given host or for any host.
	QueryBrowsableHandlers(ctx context.Context, scheme, host string) ([]Component, error)
}
