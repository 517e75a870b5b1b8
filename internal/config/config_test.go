package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-nagbot/internal/config"
	"github.com/stretchr/testify/require"
)

const testFile = `
app:
  name: Reminder Bot
  port: "9000"
  base_url: https://nag.example.com/
oauth:
  client_id: file-client
  scopes: [Tasks.Read, User.Read]
bot:
  trusted_service_urls:
    - https://smba.trafficmanager.net/emea/
nag:
  policy: base
  interval_prod: 6h
  retry_attempts: 5
storage:
  redis_url: redis://localhost:6379/0
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.True(t, c.IsDev())
	require.Equal(t, "base", c.GetNagPolicy())
	require.Equal(t, time.Minute, c.GetNagInterval(true))
	require.Equal(t, time.Hour, c.GetNagInterval(false))
	require.Equal(t, 3, c.GetRetryAttempts())
	require.Empty(t, c.GetRedisURL())
	require.Empty(t, c.GetTrustedServiceURLs())
}

func TestLoad_File(t *testing.T) {
	c, err := config.Load(writeConfig(t, testFile))
	require.NoError(t, err)

	require.Equal(t, "Reminder Bot", c.GetAppName())
	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://nag.example.com", c.GetBaseURL())
	require.Equal(t, "file-client", c.GetClientID())
	require.Equal(t, []string{"Tasks.Read", "User.Read"}, c.GetScopes())
	require.Equal(t, []string{"https://smba.trafficmanager.net/emea/"}, c.GetTrustedServiceURLs())
	require.Equal(t, 6*time.Hour, c.GetNagInterval(false))
	require.Equal(t, 5, c.GetRetryAttempts())
	require.Equal(t, "redis://localhost:6379/0", c.GetRedisURL())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("OAUTH_CLIENT_ID", "env-client")
	t.Setenv("OAUTH_SCOPES", "a, b ,,c")
	t.Setenv("NAG_INTERVAL", "90s")
	t.Setenv("ENV", "prod")

	c, err := config.Load(writeConfig(t, testFile))
	require.NoError(t, err)

	require.Equal(t, "env-client", c.GetClientID())
	require.Equal(t, []string{"a", "b", "c"}, c.GetScopes())
	require.Equal(t, 90*time.Second, c.GetNagInterval(false))
	require.False(t, c.IsDev())
}

func TestLoad_BadFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "nag: [not, a, map"))
	require.Error(t, err)
}
