package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PUSHGATEWAY_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://api.fitbit.com", cfg.Fitbit.APIBaseURL)
	require.Equal(t, "127.0.0.1:8080", cfg.CallbackAddr())
	require.Equal(t, 5*time.Minute, cfg.Auth.CallbackTimeout)
	require.Contains(t, cfg.Fitbit.Scopes, "heartrate")
	require.False(t, cfg.Archive.Enabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
fitbit:
  apiBaseUrl: http://localhost:9000
  requestTimeout: 10s
auth:
  callbackTimeout: 30s
archive:
  endpoint: minio:9000
  bucket: fitbit
`)
	t.Setenv("SNAPSHOT_DIR", "/var/lib/fitbit")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9000", cfg.Fitbit.APIBaseURL)
	require.Equal(t, 10*time.Second, cfg.Fitbit.RequestTimeout)
	require.Equal(t, 30*time.Second, cfg.Auth.CallbackTimeout)
	require.Equal(t, "/var/lib/fitbit", cfg.Output.SnapshotDir)
	require.True(t, cfg.Archive.Enabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeFile(t, "config.yaml", `
archive:
  endpoint: minio:9000
`)
	_, err := Load(path)
	require.True(t, apperrors.IsCode(err, apperrors.CodeConfigInvalid))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, apperrors.IsCode(err, apperrors.CodeConfigInvalid))
}

func TestValidateRedirectURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.RedirectURL = "not a url"
	require.Error(t, cfg.Validate())
}
