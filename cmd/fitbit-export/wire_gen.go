// Written by hand to match the injector in wire.go; go generate replaces it
// with wire's own output.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/yanqian/fitbit-export/internal/bootstrap"
	"github.com/yanqian/fitbit-export/internal/domain/auth"
	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/interface/cli"
	"github.com/yanqian/fitbit-export/internal/interface/http"
)

// Injectors from wire.go:

func initializeApp(opts cli.Options) (*bootstrap.App, error) {
	mainRunID := provideRunID()
	logger := provideLogger(opts, mainRunID)
	config, err := provideConfig(opts)
	if err != nil {
		return nil, err
	}
	secrets, err := provideSecrets(opts)
	if err != nil {
		return nil, err
	}
	authConfig := provideAuthConfig(config, secrets)
	authorizer, err := auth.NewAuthorizer(authConfig, logger)
	if err != nil {
		return nil, err
	}
	callbackServer := http.NewCallbackServer(config, logger)
	client := provideFitbitClient(config, logger)
	archiver, err := provideArchive(config, logger)
	if err != nil {
		return nil, err
	}
	store := provideSnapshotStore(config, archiver, logger)
	writer := provideWriter(opts, config, secrets, logger)
	recorder := provideMetrics(config)
	service := export.NewService(client, store, writer, recorder, logger)
	app := bootstrap.NewApp(opts, authorizer, callbackServer, service, logger)
	return app, nil
}
