package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yanqian/fitbit-export/internal/domain/auth"
	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/infra/config"
	"github.com/yanqian/fitbit-export/internal/infra/fitbit"
	"github.com/yanqian/fitbit-export/internal/infra/sink"
	"github.com/yanqian/fitbit-export/internal/infra/snapshot"
	"github.com/yanqian/fitbit-export/internal/interface/cli"
	"github.com/yanqian/fitbit-export/pkg/logger"
	"github.com/yanqian/fitbit-export/pkg/metrics"
)

const applicationName = "fitbit-export"

type runID string

func provideRunID() runID {
	return runID(uuid.NewString())
}

func provideLogger(opts cli.Options, id runID) *slog.Logger {
	return logger.New(logger.Options{Quiet: opts.Quiet}).With("run_id", string(id))
}

func provideConfig(opts cli.Options) (*config.Config, error) {
	return config.Load(opts.ConfigPath)
}

// provideSecrets fails before any network activity when a key the chosen
// sink needs is missing.
func provideSecrets(opts cli.Options) (*config.Secrets, error) {
	secrets, err := config.LoadSecrets(opts.SecretFile)
	if err != nil {
		return nil, err
	}
	if opts.Sink() == cli.SinkDatabase {
		if err := secrets.RequireDatabase(); err != nil {
			return nil, err
		}
	}
	return secrets, nil
}

func provideAuthConfig(cfg *config.Config, secrets *config.Secrets) auth.Config {
	return auth.Config{
		ClientID:     secrets.ClientID,
		ClientSecret: secrets.ClientSecret,
		AuthURL:      cfg.Fitbit.AuthURL,
		TokenURL:     cfg.Fitbit.TokenURL,
		RedirectURL:  cfg.Auth.RedirectURL,
		Scopes:       cfg.Fitbit.Scopes,
	}
}

func provideFitbitClient(cfg *config.Config, logger *slog.Logger) *fitbit.Client {
	return fitbit.NewClient(cfg.Fitbit.APIBaseURL, cfg.Fitbit.RequestTimeout, logger)
}

func provideArchive(cfg *config.Config, logger *slog.Logger) (snapshot.Archiver, error) {
	archive, err := snapshot.NewMinioArchive(cfg.Archive, logger)
	if err != nil {
		return nil, err
	}
	if archive == nil {
		logger.Debug("snapshot archive not configured")
		return nil, nil
	}
	return archive, nil
}

func provideSnapshotStore(cfg *config.Config, archive snapshot.Archiver, logger *slog.Logger) *snapshot.Store {
	return snapshot.NewStore(cfg.Output.SnapshotDir, archive, logger)
}

func provideWriter(opts cli.Options, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) export.Writer {
	switch opts.Sink() {
	case cli.SinkCSV:
		return sink.NewCSVWriter(cfg.Output.Dir, logger)
	case cli.SinkDryRun:
		return sink.NewDryRunWriter(os.Stdout)
	default:
		name := filepath.Base(os.Args[0])
		if name == "" || name == "." {
			name = applicationName
		}
		return sink.NewPostgresWriter(sink.PostgresConnector(secrets, name), opts.Atomic, logger)
	}
}

func provideMetrics(cfg *config.Config) *metrics.Recorder {
	return metrics.NewRecorder(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
}
