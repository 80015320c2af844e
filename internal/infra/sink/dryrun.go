package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// DryRunWriter prints one literal INSERT per record and never touches a
// database.
type DryRunWriter struct {
	out io.Writer
}

// NewDryRunWriter prints statements to out.
func NewDryRunWriter(out io.Writer) *DryRunWriter {
	return &DryRunWriter{out: out}
}

func (w *DryRunWriter) Write(_ context.Context, batch fitness.Batch, _ string) (export.Report, error) {
	buf := bufio.NewWriter(w.out)
	var report export.Report
	for _, t := range tablesOf(batch) {
		for i, r := range t.rows {
			if _, err := fmt.Fprintln(buf, t.literal(r)); err != nil {
				return export.Report{}, apperrors.Wrap(apperrors.CodeSink, "print statement", err)
			}
			report.Add(export.RowResult{Table: t.name, Index: i, OK: true})
		}
	}
	if err := buf.Flush(); err != nil {
		return export.Report{}, apperrors.Wrap(apperrors.CodeSink, "print statements", err)
	}
	return report, nil
}

func (w *DryRunWriter) Close(context.Context) error { return nil }

var _ export.Writer = (*DryRunWriter)(nil)
