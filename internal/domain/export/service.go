package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
	"github.com/yanqian/fitbit-export/pkg/util"
)

// Service runs the fetch, snapshot, flatten and write pipeline.
type Service interface {
	Run(ctx context.Context, req Request) (Result, error)
}

type service struct {
	fetcher   Fetcher
	snapshots SnapshotStore
	writer    Writer
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service instance.
func NewService(fetcher Fetcher, snapshots SnapshotStore, writer Writer, metrics Metrics, logger *slog.Logger) Service {
	return &service{
		fetcher:   fetcher,
		snapshots: snapshots,
		writer:    writer,
		metrics:   metrics,
		logger:    logger.With("component", "export.service"),
		now:       util.NowUTC,
	}
}

// Run processes the dates in order. Any fetch, snapshot or payload error
// aborts the run before anything is written; per-row write failures only
// show up in the report.
func (s *service) Run(ctx context.Context, req Request) (Result, error) {
	if len(req.Dates) == 0 {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "at least one date is required", nil)
	}
	defer func() {
		if err := s.writer.Close(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("close writer", "error", err)
		}
	}()

	var batch fitness.Batch
	for _, date := range req.Dates {
		log := s.logger.With("date", date.Raw)
		bundle, err := s.fetcher.Fetch(ctx, req.Token, date.Day)
		if err != nil {
			return Result{}, err
		}
		if _, err := s.snapshots.Save(ctx, date.Raw, bundle); err != nil {
			return Result{}, err
		}
		records, err := fitness.Flatten(bundle, date.Day, req.Mode)
		if err != nil {
			return Result{}, err
		}
		batch.Append(records)
		s.metrics.ObserveDate()
		log.Info("date flattened",
			"daily", len(records.Daily),
			"intraday", len(records.Intraday),
			"sleep", len(records.Sleep),
			"date_mode", req.Mode.String(),
		)
	}

	label := req.Dates[len(req.Dates)-1].Raw
	report, err := s.writer.Write(ctx, batch, label)
	if err != nil {
		return Result{}, err
	}
	for _, row := range report.Rows {
		s.metrics.ObserveRow(row.Table, row.OK)
	}
	s.metrics.MarkSuccess(s.now())

	for table, summary := range report.Summary() {
		s.logger.Info("table written", "table", table, "ok", summary.OK, "failed", summary.Failed)
	}
	if s.metrics.Enabled() {
		if err := s.metrics.Push(ctx); err != nil {
			s.logger.Warn("push run metrics", "error", err)
		}
	}
	return Result{Records: batch.Len(), Report: report}, nil
}
