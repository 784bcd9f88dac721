package config

import (
	"time"
)

// Config represents the configs model.
type Config struct {
	// Application is the model of application configs.
	Application struct {
		// Name of the application.
		Name string `yaml:"name"`
		// PProf is a flag to enable/disable profiling routes on the redirect receiver.
		PProf bool `yaml:"pprof"`
	} `yaml:"application"`

	// HTTPServer is the model of the redirect receiver configs.
	HTTPServer struct {
		// Addr is the address of the HTTP server. The provider redirects the browser here.
		Addr string `yaml:"addr"`
	} `yaml:"http_server"`

	// Logger is the model of the application logger configs.
	Logger struct {
		// Level of the logger.
		Level string `yaml:"level"`
		// Pretty is a flag that dictates whether the log output should be pretty (human-readable).
		Pretty bool `yaml:"pretty"`
	} `yaml:"logger"`

	// Provider holds the OpenID provider and the client registration at it.
	Provider struct {
		// Issuer is the base URL used for discovery.
		Issuer string `yaml:"issuer"`
		// ClientID is the OAuth client ID.
		ClientID string `yaml:"client_id"`
		// RedirectURI must point at the callback route of the HTTP server.
		RedirectURI string `yaml:"redirect_uri"`
		// Scopes are the OAuth scopes. A comma separated string is accepted too.
		Scopes []string `yaml:"scopes"`
		// AdditionalParameters are added to the authorization request.
		AdditionalParameters map[string]string `yaml:"additional_parameters"`
		// VerifySignatures enables identity token signature checks against the provider's JWKS.
		VerifySignatures bool `yaml:"verify_signatures"`
		// HTTPTimeout bounds every request to the provider.
		HTTPTimeout time.Duration `yaml:"http_timeout"`
	} `yaml:"provider"`

	// Flow holds the sign-in attempt options.
	Flow struct {
		// Method is "browser" or "native".
		Method string `yaml:"method"`
		// LoginHint is passed to the provider when set.
		LoginHint string `yaml:"login_hint"`
		// TabColor is a theming hint for the launcher.
		TabColor string `yaml:"tab_color"`
		// Timeout bounds the whole attempt, including the time the user spends in the browser.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"flow"`

	// Registry holds the redirect handler registry configs.
	Registry struct {
		// Backend is "memory" or "sql".
		Backend string `yaml:"backend"`
		// ComponentName identifies this application's redirect receiver.
		ComponentName string `yaml:"component_name"`
		// PackageName identifies the application that owns the receiver.
		PackageName string `yaml:"package_name"`
	} `yaml:"registry"`

	// Database is only used by the sql registry backend.
	Database struct {
		// DSN is the Postgres connection string.
		DSN string `yaml:"dsn"`
		// PingTimeout bounds the initial connection check.
		PingTimeout time.Duration `yaml:"ping_timeout"`
		// Migrate applies pending schema migrations at startup.
		Migrate bool `yaml:"migrate"`
	} `yaml:"database"`
}

// Load loads and returns the config value.
func Load() Config {
	return loadWithViper()
}

// LoadMock provides a mock instance of the config for testing purposes.
func LoadMock() Config {
	cfg := Config{}

	cfg.Application.Name = "oidcflow"
	cfg.HTTPServer.Addr = "localhost:8080"

	cfg.Logger.Level = "debug"
	cfg.Logger.Pretty = true

	cfg.Provider.Issuer = "https://accounts.example.com"
	cfg.Provider.ClientID = "mock-client-id"
	cfg.Provider.RedirectURI = "http://localhost:8080/callback"
	cfg.Provider.Scopes = []string{"openid", "email", "profile"}
	cfg.Provider.HTTPTimeout = 10 * time.Second

	cfg.Flow.Method = "browser"
	cfg.Flow.Timeout = 5 * time.Minute

	cfg.Registry.Backend = "memory"
	cfg.Registry.ComponentName = "callback"
	cfg.Registry.PackageName = "oidcflow"

	cfg.Database.PingTimeout = 5 * time.Second

	return cfg
}
