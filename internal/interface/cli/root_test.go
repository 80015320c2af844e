package cli

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
)

func execute(t *testing.T, args ...string) (Options, error) {
	t.Helper()
	var got Options
	cmd := NewRootCommand(func(_ context.Context, opts Options) error {
		got = opts
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return got, err
}

func TestDefaults(t *testing.T) {
	opts, err := execute(t, "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	require.True(t, opts.Verbose)
	require.False(t, opts.Quiet)
	require.Equal(t, "fitbit_api_secrets.conf", opts.SecretFile)
	require.Equal(t, []string{"2024-01-01", "2024-01-02"}, opts.Dates)
	require.Equal(t, SinkDatabase, opts.Sink())
	require.Equal(t, fitness.DateModeLegacy, opts.DateMode())
}

func TestFlags(t *testing.T) {
	opts, err := execute(t, "-q", "-a", "-c", "-k", "/etc/fitbit.conf", "--entry-dates", "--config", "cfg.yaml", "2024-01-01")
	require.NoError(t, err)
	require.True(t, opts.Quiet)
	require.False(t, opts.Verbose)
	require.True(t, opts.Atomic)
	require.Equal(t, SinkCSV, opts.Sink())
	require.Equal(t, "/etc/fitbit.conf", opts.SecretFile)
	require.Equal(t, "cfg.yaml", opts.ConfigPath)
	require.Equal(t, fitness.DateModeEntry, opts.DateMode())

	opts, err = execute(t, "-n", "2024-01-01")
	require.NoError(t, err)
	require.Equal(t, SinkDryRun, opts.Sink())
}

func TestRejectsConflictsAndMissingDates(t *testing.T) {
	_, err := execute(t, "-v", "-q", "2024-01-01")
	require.Error(t, err)

	_, err = execute(t, "-c", "-n", "2024-01-01")
	require.Error(t, err)

	_, err = execute(t)
	require.Error(t, err)
}
