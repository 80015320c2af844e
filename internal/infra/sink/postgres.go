package sink

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// Tx is a transaction or a savepoint inside one. Begin on a Tx opens a
// savepoint; Commit releases it and Rollback rolls back to it.
type Tx interface {
	Begin(ctx context.Context) (Tx, error)
	Exec(ctx context.Context, sql string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is the single database connection used for a run.
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Connector opens the run's connection.
type Connector func(ctx context.Context) (Conn, error)

// PostgresWriter inserts records one row at a time. By default each table
// is one transaction with a savepoint per row, so a failing row is rolled
// back alone. In atomic mode every row commits on its own.
type PostgresWriter struct {
	connect Connector
	atomic  bool
	conn    Conn
	logger  *slog.Logger
}

// NewPostgresWriter builds a writer that connects lazily on first Write.
func NewPostgresWriter(connect Connector, atomic bool, logger *slog.Logger) *PostgresWriter {
	return &PostgresWriter{
		connect: connect,
		atomic:  atomic,
		logger:  logger.With("component", "sink.postgres"),
	}
}

func (w *PostgresWriter) Write(ctx context.Context, batch fitness.Batch, _ string) (export.Report, error) {
	if w.conn == nil {
		conn, err := w.connect(ctx)
		if err != nil {
			return export.Report{}, apperrors.Wrap(apperrors.CodeSink, "connect to database", err)
		}
		w.conn = conn
	}

	var report export.Report
	for _, t := range tablesOf(batch) {
		var (
			part export.Report
			err  error
		)
		if w.atomic {
			part, err = w.writeAtomic(ctx, t)
		} else {
			part, err = w.writeGrouped(ctx, t)
		}
		report.Merge(part)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (w *PostgresWriter) writeGrouped(ctx context.Context, t table) (export.Report, error) {
	var report export.Report
	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return report, apperrors.Wrap(apperrors.CodeSink, "begin "+t.name, err)
	}
	sql := t.insertSQL()
	for i, r := range t.rows {
		w.logger.Info(t.literal(r))
		sp, err := tx.Begin(ctx)
		if err != nil {
			_ = tx.Rollback(ctx)
			return report, apperrors.Wrap(apperrors.CodeSink, "savepoint "+t.name, err)
		}
		if err := sp.Exec(ctx, sql, r.key, string(r.variable), r.value); err != nil {
			w.warn(t, i, err)
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				_ = tx.Rollback(ctx)
				return report, apperrors.Wrap(apperrors.CodeSink, "rollback to savepoint", rbErr)
			}
			report.Add(export.RowResult{Table: t.name, Index: i, Reason: reason(err)})
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			_ = tx.Rollback(ctx)
			return report, apperrors.Wrap(apperrors.CodeSink, "release savepoint", err)
		}
		report.Add(export.RowResult{Table: t.name, Index: i, OK: true})
	}
	if err := tx.Commit(ctx); err != nil {
		return report, apperrors.Wrap(apperrors.CodeSink, "commit "+t.name, err)
	}
	return report, nil
}

func (w *PostgresWriter) writeAtomic(ctx context.Context, t table) (export.Report, error) {
	var report export.Report
	sql := t.insertSQL()
	for i, r := range t.rows {
		w.logger.Info(t.literal(r))
		tx, err := w.conn.Begin(ctx)
		if err != nil {
			return report, apperrors.Wrap(apperrors.CodeSink, "begin "+t.name, err)
		}
		if err := tx.Exec(ctx, sql, r.key, string(r.variable), r.value); err != nil {
			w.warn(t, i, err)
			_ = tx.Rollback(ctx)
			report.Add(export.RowResult{Table: t.name, Index: i, Reason: reason(err)})
			continue
		}
		if err := tx.Commit(ctx); err != nil {
			w.warn(t, i, err)
			report.Add(export.RowResult{Table: t.name, Index: i, Reason: reason(err)})
			continue
		}
		report.Add(export.RowResult{Table: t.name, Index: i, OK: true})
	}
	return report, nil
}

func (w *PostgresWriter) warn(t table, i int, err error) {
	w.logger.Warn(reason(err), "table", t.name, "row", i)
}

// Close releases the connection. It is safe to call more than once.
func (w *PostgresWriter) Close(ctx context.Context) error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close(ctx)
	w.conn = nil
	return err
}

func reason(err error) string {
	return strings.TrimSpace(err.Error())
}

var _ export.Writer = (*PostgresWriter)(nil)
