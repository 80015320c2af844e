package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fitbit-export/internal/infra/config"
	"github.com/yanqian/fitbit-export/internal/infra/sink"
	"github.com/yanqian/fitbit-export/internal/interface/cli"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSecrets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fitbit_api_secrets.conf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestProvideSecretsRequiresDatabaseKeysOnlyInDatabaseMode(t *testing.T) {
	clientOnly := writeSecrets(t, "oauth2_client = abc\nclient_secret = xyz\n")

	cases := []struct {
		name    string
		opts    cli.Options
		wantErr bool
	}{
		{"database", cli.Options{SecretFile: clientOnly}, true},
		{"csv", cli.Options{SecretFile: clientOnly, CSV: true}, false},
		{"dry run", cli.Options{SecretFile: clientOnly, DryRun: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			secrets, err := provideSecrets(tc.opts)
			if tc.wantErr {
				require.True(t, apperrors.IsCode(err, apperrors.CodeSecretsInvalid), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "abc", secrets.ClientID)
		})
	}
}

func TestProvideWriterSelectsSink(t *testing.T) {
	cfg := &config.Config{Output: config.OutputConfig{Dir: t.TempDir()}}
	secrets := &config.Secrets{ClientID: "abc", ClientSecret: "xyz", Host: "127.0.0.1", DBName: "fitbit", Port: "1", DBUser: "fitbit"}

	dry := provideWriter(cli.Options{DryRun: true}, cfg, secrets, newTestLogger())
	require.IsType(t, &sink.DryRunWriter{}, dry)

	csv := provideWriter(cli.Options{CSV: true}, cfg, secrets, newTestLogger())
	require.IsType(t, &sink.CSVWriter{}, csv)

	db := provideWriter(cli.Options{}, cfg, secrets, newTestLogger())
	require.IsType(t, &sink.PostgresWriter{}, db)
	// Nothing has been written, so no connection exists to close.
	require.NoError(t, db.Close(context.Background()))
}
