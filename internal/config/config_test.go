package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so ambient shell state cannot
// leak into assertions. t.Setenv restores the originals automatically.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "MCP_TRANSPORT", "MCP_HTTP_HOST", "MCP_HTTP_PORT",
		"MCP_AUTH_ENABLED", "MCP_AUTH_USERNAME", "MCP_AUTH_PASSWORD",
		"MCP_SERVICE_TOKEN_SECRET", "LOG_LEVEL",
		"AUTOTASK_USERNAME", "AUTOTASK_SECRET", "AUTOTASK_INTEGRATION_CODE",
		"AUTOTASK_API_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("AUTOTASK_USERNAME", "api-user@example.com")
	t.Setenv("AUTOTASK_SECRET", "s3cret")
	t.Setenv("AUTOTASK_INTEGRATION_CODE", "INTEG123")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.HTTP.Auth.Enabled)
	assert.Equal(t, "api-user@example.com", cfg.Autotask.Username)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("MCP_TRANSPORT", "BOTH")
	t.Setenv("MCP_HTTP_PORT", "8080")
	t.Setenv("MCP_AUTH_ENABLED", "true")
	t.Setenv("MCP_AUTH_USERNAME", "svc")
	t.Setenv("MCP_AUTH_PASSWORD", "pw")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TransportBoth, cfg.Transport)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.HTTP.Auth.Enabled)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadYAMLFileThenEnvWins(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport: stdio
http:
  port: 9000
logLevel: warn
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	// environment overrides the file
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateTransportEnum(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("MCP_TRANSPORT", "websocket")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport")
}

func TestValidateAuthRequiresBothCredentials(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("MCP_AUTH_ENABLED", "true")
	t.Setenv("MCP_AUTH_USERNAME", "svc")
	// no password: must fail before any listener could start

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth")
}

func TestValidatePortRange(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("MCP_HTTP_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestValidateRequiresAutotaskCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTOTASK_USERNAME", "api-user@example.com")
	// secret and integration code missing

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTOTASK_SECRET")
}

func TestStdioTransportSkipsHTTPChecks(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("MCP_TRANSPORT", "stdio")
	t.Setenv("MCP_HTTP_PORT", "70000") // irrelevant when http is off

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Transport.IncludesStdio())
	assert.False(t, cfg.Transport.IncludesHTTP())
}

func TestTransportPredicates(t *testing.T) {
	assert.True(t, TransportBoth.IncludesHTTP())
	assert.True(t, TransportBoth.IncludesStdio())
	assert.False(t, TransportStdio.IncludesHTTP())
	assert.False(t, TransportHTTP.IncludesStdio())
}
