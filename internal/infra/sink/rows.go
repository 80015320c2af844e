package sink

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/fitbit-export/internal/domain/export"
	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	"github.com/yanqian/fitbit-export/pkg/util"
)

type row struct {
	key      time.Time
	variable fitness.Variable
	value    float64
}

// table is one destination with its rows in emission order.
type table struct {
	name      string
	keyColumn string
	dateKey   bool
	rows      []row
}

func tablesOf(b fitness.Batch) []table {
	daily := table{name: export.TableDaily, keyColumn: "dte", dateKey: true, rows: make([]row, 0, len(b.Daily))}
	for _, r := range b.Daily {
		daily.rows = append(daily.rows, row{key: r.Date, variable: r.Variable, value: r.Value})
	}
	intraday := table{name: export.TableIntraday, keyColumn: "dt", rows: make([]row, 0, len(b.Intraday))}
	for _, r := range b.Intraday {
		intraday.rows = append(intraday.rows, row{key: r.Timestamp, variable: r.Variable, value: r.Value})
	}
	sleep := table{name: export.TableSleep, keyColumn: "start_dt", rows: make([]row, 0, len(b.Sleep))}
	for _, r := range b.Sleep {
		sleep.rows = append(sleep.rows, row{key: r.StartTimestamp, variable: r.Variable, value: r.Value})
	}
	return []table{daily, intraday, sleep}
}

func (t table) formatKey(k time.Time) string {
	if t.dateKey {
		return k.UTC().Format(util.DateLayout)
	}
	return k.UTC().Format(util.TimestampLayout)
}

// insertSQL is the parameterized single-row statement.
func (t table) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (%s, variable, value) VALUES ($1, $2, $3);", t.name, t.keyColumn)
}

// literal renders the statement with values inlined, as printed by dry
// runs and logged before each database insert.
func (t table) literal(r row) string {
	return fmt.Sprintf("INSERT INTO %s (%s, variable, value) VALUES ('%s', '%s', %s);",
		t.name, t.keyColumn, t.formatKey(r.key), quote(string(r.variable)), r.formatValue())
}

func (t table) header() []string {
	return []string{t.keyColumn, "variable", "value"}
}

// formatValue prints whole numbers without a fraction, except for means,
// which keep a trailing ".0".
func (r row) formatValue() string {
	s := strconv.FormatFloat(r.value, 'f', -1, 64)
	if r.variable.Mean() && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// fileLabel keeps the raw date string but never lets it escape the output dir.
func fileLabel(label string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(label)
}
