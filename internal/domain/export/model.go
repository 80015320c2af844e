package export

import (
	"context"
	"time"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
)

// Destination tables, which double as CSV file prefixes.
const (
	TableDaily    = "daily"
	TableIntraday = "intraday"
	TableSleep    = "sleep"
)

// Tables lists the write order.
var Tables = []string{TableDaily, TableIntraday, TableSleep}

// RowResult is the outcome of persisting one record.
type RowResult struct {
	Table  string
	Index  int
	OK     bool
	Reason string
}

// TableSummary counts row outcomes for one table.
type TableSummary struct {
	OK     int
	Failed int
}

// Report collects every row outcome of a run.
type Report struct {
	Rows []RowResult
}

// Add records one row outcome.
func (r *Report) Add(res RowResult) {
	r.Rows = append(r.Rows, res)
}

// Merge appends other's rows.
func (r *Report) Merge(other Report) {
	r.Rows = append(r.Rows, other.Rows...)
}

// Failed counts failed rows across tables.
func (r Report) Failed() int {
	n := 0
	for _, row := range r.Rows {
		if !row.OK {
			n++
		}
	}
	return n
}

// Summary groups outcomes per table.
func (r Report) Summary() map[string]TableSummary {
	out := make(map[string]TableSummary, len(Tables))
	for _, row := range r.Rows {
		s := out[row.Table]
		if row.OK {
			s.OK++
		} else {
			s.Failed++
		}
		out[row.Table] = s
	}
	return out
}

// Fetcher downloads the raw responses for one date.
type Fetcher interface {
	Fetch(ctx context.Context, token string, date time.Time) (fitness.Bundle, error)
}

// SnapshotStore persists the raw bundle before it is flattened.
type SnapshotStore interface {
	Save(ctx context.Context, rawDate string, bundle fitness.Bundle) (string, error)
}

// Writer persists the accumulated records. label is the raw string of the
// last requested date and names any files the writer creates.
type Writer interface {
	Write(ctx context.Context, batch fitness.Batch, label string) (Report, error)
	Close(ctx context.Context) error
}

// Metrics observes run progress.
type Metrics interface {
	ObserveRow(table string, ok bool)
	ObserveDate()
	MarkSuccess(t time.Time)
	Push(ctx context.Context) error
	Enabled() bool
}

// Request describes one export run.
type Request struct {
	Token string
	Dates []fitness.RequestedDate
	Mode  fitness.DateMode
}

// Result summarizes a finished run.
type Result struct {
	Records int
	Report  Report
}
