package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bundleFor(date string) fitness.Bundle {
	series := func(resource, value string) json.RawMessage {
		return json.RawMessage(`{"activities-` + resource + `":[{"dateTime":"` + date + `","value":"` + value + `"}],` +
			`"activities-` + resource + `-intraday":{"dataset":[{"time":"00:01:00","value":1}]}}`)
	}
	return fitness.Bundle{
		fitness.SectionHR:     json.RawMessage(`{"activities-heart":[{"dateTime":"` + date + `","value":{"restingHeartRate":60}}],"activities-heart-intraday":{"dataset":[]}}`),
		fitness.SectionSleep:  json.RawMessage(`{"sleep":[]}`),
		fitness.SectionWeight: json.RawMessage(`{"weight":[]}`),
		fitness.SectionBMR:    json.RawMessage(`{"activities-caloriesBMR":[{"dateTime":"` + date + `","value":"1500"}]}`),
		fitness.SectionKcal:   series("calories", "2000"),
		fitness.SectionMiles:  series("distance", "3"),
		fitness.SectionSteps:  series("steps", "9000"),
		fitness.SectionFloors: series("floors", "4"),
		fitness.SectionActivity: json.RawMessage(`{"summary":{"elevation":1,"sedentaryMinutes":2,` +
			`"lightlyActiveMinutes":3,"fairlyActiveMinutes":4,"veryActiveMinutes":5}}`),
	}
}

type stubFetcher struct {
	calls []time.Time
	err   error
}

func (s *stubFetcher) Fetch(_ context.Context, token string, date time.Time) (fitness.Bundle, error) {
	s.calls = append(s.calls, date)
	if s.err != nil {
		return nil, s.err
	}
	return bundleFor(date.Format("2006-01-02")), nil
}

type stubSnapshots struct {
	saved []string
}

func (s *stubSnapshots) Save(_ context.Context, rawDate string, bundle fitness.Bundle) (string, error) {
	s.saved = append(s.saved, rawDate)
	return "data_" + rawDate, nil
}

type stubWriter struct {
	batch  fitness.Batch
	label  string
	writes int
	closed int
	failAt int
}

func (w *stubWriter) Write(_ context.Context, batch fitness.Batch, label string) (Report, error) {
	w.writes++
	w.batch = batch
	w.label = label
	var r Report
	for i := range batch.Daily {
		r.Add(RowResult{Table: TableDaily, Index: i, OK: i != w.failAt})
	}
	for i := range batch.Intraday {
		r.Add(RowResult{Table: TableIntraday, Index: i, OK: true})
	}
	return r, nil
}

func (w *stubWriter) Close(context.Context) error {
	w.closed++
	return nil
}

type stubMetrics struct {
	rows    map[string]int
	dates   int
	success bool
	pushed  bool
	enabled bool
}

func (m *stubMetrics) ObserveRow(table string, ok bool) {
	if m.rows == nil {
		m.rows = map[string]int{}
	}
	if ok {
		m.rows[table]++
	}
}
func (m *stubMetrics) ObserveDate()          { m.dates++ }
func (m *stubMetrics) MarkSuccess(time.Time) { m.success = true }
func (m *stubMetrics) Enabled() bool         { return m.enabled }
func (m *stubMetrics) Push(context.Context) error {
	m.pushed = true
	return errors.New("gateway down")
}

func dates(t *testing.T, raw ...string) []fitness.RequestedDate {
	t.Helper()
	out, err := fitness.ParseDates(raw)
	require.NoError(t, err)
	return out
}

func TestRunAccumulatesDatesAndWritesOnce(t *testing.T) {
	fetcher := &stubFetcher{}
	snaps := &stubSnapshots{}
	writer := &stubWriter{failAt: 2}
	metrics := &stubMetrics{enabled: true}
	svc := NewService(fetcher, snaps, writer, metrics, newTestLogger())

	res, err := svc.Run(context.Background(), Request{Token: "tok", Dates: dates(t, "2024-01-01", "2024-01-02")})
	require.NoError(t, err)

	require.Len(t, fetcher.calls, 2)
	require.Equal(t, []string{"2024-01-01", "2024-01-02"}, snaps.saved)
	require.Equal(t, 1, writer.writes)
	require.Equal(t, 1, writer.closed)
	require.Equal(t, "2024-01-02", writer.label)
	require.Len(t, writer.batch.Daily, 22)
	require.Len(t, writer.batch.Intraday, 8)
	require.Equal(t, 30, res.Records)

	require.Equal(t, 1, res.Report.Failed())
	require.Equal(t, TableSummary{OK: 21, Failed: 1}, res.Report.Summary()[TableDaily])
	require.Equal(t, 2, metrics.dates)
	require.Equal(t, 21, metrics.rows[TableDaily])
	require.True(t, metrics.success)
	require.True(t, metrics.pushed, "push failures are logged, not returned")
}

func TestRunAbortsOnFetchError(t *testing.T) {
	fetcher := &stubFetcher{err: apperrors.Wrap(apperrors.CodeUpstream, "status=500", nil)}
	writer := &stubWriter{}
	svc := NewService(fetcher, &stubSnapshots{}, writer, &stubMetrics{}, newTestLogger())

	_, err := svc.Run(context.Background(), Request{Token: "tok", Dates: dates(t, "2024-01-01", "2024-01-02")})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
	require.Len(t, fetcher.calls, 1)
	require.Zero(t, writer.writes)
	require.Equal(t, 1, writer.closed)
}

func TestRunRequiresDates(t *testing.T) {
	svc := NewService(&stubFetcher{}, &stubSnapshots{}, &stubWriter{}, &stubMetrics{}, newTestLogger())
	_, err := svc.Run(context.Background(), Request{Token: "tok"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}
