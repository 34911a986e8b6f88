package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var clientVars = []string{
	"STOCK_REMOTE_URL", "STOCK_REMOTE_KEY", "STOCK_DB_PATH",
	"STOCK_REMOTE_TIMEOUT", "STOCK_SYNC_SCHEDULE", "STOCK_LOG_LEVEL",
}

var serverVars = []string{
	"STOCK_SERVER_ADDR", "STOCK_DSN", "STOCK_JWT_KEY", "STOCK_ADMIN_SECRET_HASH",
	"STOCK_REDIS_URL", "STOCK_CACHE_TTL", "STOCK_MAX_BATCH", "STOCK_KEY_TTL",
	"STOCK_TLS_CERT", "STOCK_TLS_KEY",
}

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys []string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadClient_Defaults(t *testing.T) {
	clearEnv(t, clientVars)
	dir := t.TempDir()

	cfg, err := LoadClient(dir, noEnvFile(t))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "stock.db"), cfg.DBPath)
	require.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	require.Equal(t, "@every 5m", cfg.SyncSchedule)
	require.False(t, cfg.RemoteConfigured())
}

func TestLoadClient_FileThenEnv(t *testing.T) {
	clearEnv(t, clientVars)
	dir := t.TempDir()
	yml := "remote_url: https://stock.example.com\nremote_key: from-file\nremote_timeout: 3s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o600))

	t.Setenv("STOCK_REMOTE_KEY", "from-env")
	cfg, err := LoadClient(dir, noEnvFile(t))
	require.NoError(t, err)
	require.Equal(t, "https://stock.example.com", cfg.RemoteURL)
	require.Equal(t, "from-env", cfg.RemoteKey)
	require.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	require.True(t, cfg.RemoteConfigured())
}

func TestLoadClient_EnvFile(t *testing.T) {
	clearEnv(t, clientVars)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STOCK_SYNC_SCHEDULE=@every 1h\n"), 0o600))

	cfg, err := LoadClient(t.TempDir(), envFile)
	require.NoError(t, err)
	require.Equal(t, "@every 1h", cfg.SyncSchedule)
}

func TestLoadClient_BadDuration(t *testing.T) {
	clearEnv(t, clientVars)
	t.Setenv("STOCK_REMOTE_TIMEOUT", "soon")

	_, err := LoadClient(t.TempDir(), noEnvFile(t))
	require.ErrorContains(t, err, "STOCK_REMOTE_TIMEOUT")
}

func TestLoadClient_BadYAML(t *testing.T) {
	clearEnv(t, clientVars)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("remote_url: [\n"), 0o600))

	_, err := LoadClient(dir, noEnvFile(t))
	require.Error(t, err)
}

func TestRemoteConfigured_Placeholders(t *testing.T) {
	for _, key := range []string{"", "YOUR_SUPABASE_KEY", "changeme", "<api-key>", "   "} {
		c := Client{RemoteURL: "https://x", RemoteKey: key}
		require.False(t, c.RemoteConfigured(), "key %q", key)
	}
	c := Client{RemoteURL: "https://YOUR_PROJECT.example.com", RemoteKey: "k"}
	require.False(t, c.RemoteConfigured())
	c = Client{RemoteURL: "https://x", RemoteKey: "eyJhbGciOi"}
	require.True(t, c.RemoteConfigured())
}

func setServerEnv(t *testing.T) {
	clearEnv(t, serverVars)
	t.Setenv("STOCK_DSN", "postgres://stock@localhost/stock")
	t.Setenv("STOCK_JWT_KEY", "sign")
	t.Setenv("STOCK_ADMIN_SECRET_HASH", "c2FsdA$aGFzaA")
}

func TestLoadServer_Defaults(t *testing.T) {
	setServerEnv(t)

	cfg, err := LoadServer("", noEnvFile(t))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 1000, cfg.MaxBatch)
	require.Equal(t, 24*time.Hour, cfg.KeyTTL)
	require.False(t, cfg.TLS())
}

func TestLoadServer_Overrides(t *testing.T) {
	setServerEnv(t)
	t.Setenv("STOCK_MAX_BATCH", "50")
	t.Setenv("STOCK_CACHE_TTL", "1m")
	t.Setenv("STOCK_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadServer("", noEnvFile(t))
	require.NoError(t, err)
	require.Equal(t, 50, cfg.MaxBatch)
	require.Equal(t, time.Minute, cfg.CacheTTL)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadServer_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"missing dsn", "STOCK_DSN", "", "STOCK_DSN"},
		{"placeholder jwt", "STOCK_JWT_KEY", "changeme", "STOCK_JWT_KEY"},
		{"tls half", "STOCK_TLS_CERT", "cert.pem", "STOCK_TLS_KEY"},
		{"bad batch", "STOCK_MAX_BATCH", "many", "STOCK_MAX_BATCH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setServerEnv(t)
			if tt.val == "" {
				require.NoError(t, os.Unsetenv(tt.key))
			} else {
				t.Setenv(tt.key, tt.val)
			}
			_, err := LoadServer("", noEnvFile(t))
			require.ErrorContains(t, err, tt.want)
		})
	}
}
