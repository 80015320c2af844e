package sink

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// CSVWriter writes daily_, intraday_ and sleep_ files named after the
// last requested date.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter builds a writer that creates files in dir.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, logger: logger.With("component", "sink.csv")}
}

func (w *CSVWriter) Write(_ context.Context, batch fitness.Batch, label string) (export.Report, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return export.Report{}, apperrors.Wrap(apperrors.CodeSink, "create output dir", err)
	}
	var report export.Report
	for _, t := range tablesOf(batch) {
		path := filepath.Join(w.dir, t.name+"_"+fileLabel(label)+".csv")
		if err := w.writeFile(path, t); err != nil {
			return export.Report{}, apperrors.Wrap(apperrors.CodeSink, "write "+path, err)
		}
		for i := range t.rows {
			report.Add(export.RowResult{Table: t.name, Index: i, OK: true})
		}
		w.logger.Info("csv written", "path", path, "rows", len(t.rows))
	}
	return report, nil
}

func (w *CSVWriter) writeFile(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.header()); err != nil {
		return err
	}
	for _, r := range t.rows {
		if err := cw.Write([]string{t.formatKey(r.key), string(r.variable), r.formatValue()}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (w *CSVWriter) Close(context.Context) error { return nil }

var _ export.Writer = (*CSVWriter)(nil)
