package bootstrap

import (
	"context"
	"log/slog"

	"github.com/yanqian/fitbit-export/internal/domain/auth"
	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	"github.com/yanqian/fitbit-export/internal/interface/cli"
)

// FlowStarter begins an authorization flow.
type FlowStarter interface {
	Start() (*auth.Flow, error)
}

// CallbackAuthorizer drives a flow to completion through the browser.
type CallbackAuthorizer interface {
	Authorize(ctx context.Context, flow *auth.Flow) (auth.Token, error)
}

// App encapsulates one export run.
type App struct {
	opts     cli.Options
	starter  FlowStarter
	callback CallbackAuthorizer
	exporter export.Service
	logger   *slog.Logger
}

// NewApp is used by Wire to build the runnable app.
func NewApp(opts cli.Options, starter FlowStarter, callback CallbackAuthorizer, exporter export.Service, logger *slog.Logger) *App {
	return &App{
		opts:     opts,
		starter:  starter,
		callback: callback,
		exporter: exporter,
		logger:   logger.With("component", "bootstrap"),
	}
}

// Run parses the dates, authorizes, then exports. Every error it returns
// is fatal for the process.
func (a *App) Run(ctx context.Context) error {
	dates, err := fitness.ParseDates(a.opts.Dates)
	if err != nil {
		return err
	}

	flow, err := a.starter.Start()
	if err != nil {
		return err
	}
	token, err := a.callback.Authorize(ctx, flow)
	if err != nil {
		return err
	}

	a.logger.Info("export starting", "dates", len(dates), "sink", a.opts.Sink().String(), "date_mode", a.opts.DateMode().String())
	result, err := a.exporter.Run(ctx, export.Request{
		Token: token.AccessToken,
		Dates: dates,
		Mode:  a.opts.DateMode(),
	})
	if err != nil {
		return err
	}
	a.logger.Info("export finished", "records", result.Records, "failed_rows", result.Report.Failed())
	return nil
}
