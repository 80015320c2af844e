package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder tallies one export run. A batch job has no scrape endpoint, so
// the registry is pushed to a Pushgateway once the run ends.
type Recorder struct {
	registry    *prometheus.Registry
	rows        *prometheus.CounterVec
	dates       prometheus.Counter
	lastSuccess prometheus.Gauge
	pushURL     string
	job         string
}

// NewRecorder builds a Recorder on a private registry.
func NewRecorder(pushURL, job string) *Recorder {
	if strings.TrimSpace(job) == "" {
		job = "fitbit_export"
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitbit_export",
			Name:      "rows_total",
			Help:      "Records written per table and outcome.",
		}, []string{"table", "outcome"}),
		dates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fitbit_export",
			Name:      "dates_processed_total",
			Help:      "Calendar dates fetched and flattened.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fitbit_export",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last run that finished writing.",
		}),
		pushURL: strings.TrimSpace(pushURL),
		job:     job,
	}
	r.registry.MustRegister(r.rows, r.dates, r.lastSuccess)
	return r
}

// ObserveRow counts one written or rejected record.
func (r *Recorder) ObserveRow(table string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.rows.WithLabelValues(table, outcome).Inc()
}

// ObserveDate counts one processed date.
func (r *Recorder) ObserveDate() {
	r.dates.Inc()
}

// MarkSuccess records the completion time of a run.
func (r *Recorder) MarkSuccess(ts time.Time) {
	if ts.IsZero() {
		return
	}
	r.lastSuccess.Set(float64(ts.Unix()))
}

// Enabled reports whether Push will contact a gateway.
func (r *Recorder) Enabled() bool {
	return r.pushURL != ""
}

// Push sends the registry to the configured gateway; it is a no-op without one.
func (r *Recorder) Push(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	return push.New(r.pushURL, r.job).Gatherer(r.registry).PushContext(ctx)
}
