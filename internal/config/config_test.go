package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/lingo-session/internal/config"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "APP_NAME", "ENV", "FOLDER", "STORAGE_PATH", "AUTH_BASE_URL", "AUTH_TOKEN_URL", "SESSION_IDLE_TIMEOUT"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "Lingo", c.GetAppName())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 30*time.Minute, c.GetIdleTimeout())
	require.Equal(t, 5*time.Minute, c.GetIdleWarning())
	require.Equal(t, time.Minute, c.GetRefreshMargin())
	require.Equal(t, filepath.Join("./data", "session.db"), c.GetStoragePath())
	require.Equal(t, "lingo-auth", c.GetStorageNamespace())
	require.Equal(t, 64*1024, c.GetMaxValueBytes())
	require.Equal(t, "http://localhost:9000/oauth2/token", c.GetTokenURL())
	require.Equal(t, "/api/auth/me", c.GetProfilePath())
	require.Equal(t, 10*time.Second, c.GetHTTPTimeout())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "PROD")
	t.Setenv("AUTH_BASE_URL", "https://auth.example.com")
	t.Setenv("AUTH_TOKEN_URL", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "45m")
	t.Setenv("FOLDER", "/var/lib/lingo")
	t.Setenv("STORAGE_PATH", "")
	c := config.New()

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "PROD", c.GetEnv())
	require.Equal(t, "https://auth.example.com/oauth2/token", c.GetTokenURL())
	require.Equal(t, "https://auth.example.com", c.GetIssuer())
	require.Equal(t, 45*time.Minute, c.GetIdleTimeout())
	require.Equal(t, filepath.Join("/var/lib/lingo", "session.db"), c.GetStoragePath())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "soon")
	t.Setenv("SESSION_IDLE_WARNING", "-1m")
	t.Setenv("STORAGE_MAX_VALUE_BYTES", "lots")

	require.Equal(t, 30*time.Minute, config.GetDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute))
	require.Equal(t, 5*time.Minute, config.GetDurationEnv("SESSION_IDLE_WARNING", 5*time.Minute))
	require.Equal(t, 64, config.GetIntEnv("STORAGE_MAX_VALUE_BYTES", 64))
}
