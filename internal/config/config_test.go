package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const mockConfigYAML = `
application:
  name: oidcflow
http_server:
  addr: localhost:9090
logger:
  level: warn
  pretty: false
provider:
  issuer: https://issuer.example.com
  client_id: file-client
  redirect_uri: http://localhost:9090/callback
  scopes: openid,email
  additional_parameters:
    prompt: consent
  http_timeout: 3s
flow:
  method: native
  timeout: 2m
registry:
  backend: sql
database:
  ping_timeout: 1s
`

func writeMockConfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "configs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mockConfigYAML), 0o600), "Failed to write config file")
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := loadFile(writeMockConfig(t))
	require.NoError(t, err, "Expected no error but got one")

	require.Equal(t, "oidcflow", cfg.Application.Name)
	require.Equal(t, "localhost:9090", cfg.HTTPServer.Addr)
	require.Equal(t, "warn", cfg.Logger.Level)
	require.Equal(t, "file-client", cfg.Provider.ClientID)
	require.Equal(t, []string{"openid", "email"}, cfg.Provider.Scopes, "Expected comma separated scopes")
	require.Equal(t, map[string]string{"prompt": "consent"}, cfg.Provider.AdditionalParameters)
	require.Equal(t, 3*time.Second, cfg.Provider.HTTPTimeout)
	require.Equal(t, "native", cfg.Flow.Method)
	require.Equal(t, 2*time.Minute, cfg.Flow.Timeout)
	require.Equal(t, "sql", cfg.Registry.Backend)
	require.Equal(t, time.Second, cfg.Database.PingTimeout)
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("PROVIDER_CLIENT_ID", "env-client")
	t.Setenv("LOGGER_LEVEL", "debug")

	cfg, err := loadFile(writeMockConfig(t))
	require.NoError(t, err, "Expected no error but got one")
	require.Equal(t, "env-client", cfg.Provider.ClientID)
	require.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := loadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err, "Expected error but got none")
}

func TestLoad(t *testing.T) {
	t.Setenv(configPathEnv, writeMockConfig(t))
	require.Equal(t, "file-client", Load().Provider.ClientID)

	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Panics(t, func() { Load() }, "Expected a panic for a missing file")
}

func TestLoadMock(t *testing.T) {
	cfg := LoadMock()
	require.NotEmpty(t, cfg.Provider.ClientID)
	require.Equal(t, "memory", cfg.Registry.Backend)
}
