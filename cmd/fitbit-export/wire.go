//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/fitbit-export/internal/bootstrap"
	"github.com/yanqian/fitbit-export/internal/domain/auth"
	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/infra/fitbit"
	"github.com/yanqian/fitbit-export/internal/infra/snapshot"
	"github.com/yanqian/fitbit-export/internal/interface/cli"
	httpiface "github.com/yanqian/fitbit-export/internal/interface/http"
	"github.com/yanqian/fitbit-export/pkg/metrics"
)

func initializeApp(opts cli.Options) (*bootstrap.App, error) {
	wire.Build(
		provideRunID,
		provideLogger,
		provideConfig,
		provideSecrets,
		provideAuthConfig,
		provideFitbitClient,
		provideArchive,
		provideSnapshotStore,
		provideWriter,
		provideMetrics,
		auth.NewAuthorizer,
		httpiface.NewCallbackServer,
		export.NewService,
		wire.Bind(new(export.Fetcher), new(*fitbit.Client)),
		wire.Bind(new(export.SnapshotStore), new(*snapshot.Store)),
		wire.Bind(new(export.Metrics), new(*metrics.Recorder)),
		wire.Bind(new(bootstrap.FlowStarter), new(*auth.Authorizer)),
		wire.Bind(new(bootstrap.CallbackAuthorizer), new(*httpiface.CallbackServer)),
		bootstrap.NewApp,
	)
	return nil, nil
}
