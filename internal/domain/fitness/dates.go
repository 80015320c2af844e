package fitness

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
	"github.com/yanqian/fitbit-export/pkg/util"
)

const clockLayout = "15:04:05"

// ParseDates parses every command-line date, keeping the raw strings for
// file naming. Any unparsable input rejects the whole list.
func ParseDates(raw []string) ([]RequestedDate, error) {
	if len(raw) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "at least one date is required", nil)
	}
	out := make([]RequestedDate, 0, len(raw))
	for _, s := range raw {
		day, err := parseDay(s)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("invalid date %q", s), err)
		}
		out = append(out, RequestedDate{Raw: s, Day: day})
	}
	return out, nil
}

// parseDay accepts an ISO date and falls back to the flexible parser for
// anything else. The result is midnight UTC.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(util.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return util.Day(t), nil
}

// parseStart reads a sleep start such as "2024-01-01T23:10:00.000" as a
// naive UTC timestamp.
func parseStart(s string) (time.Time, error) {
	return dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
}

// atClock places an "HH:MM:SS" wall clock on day.
func atClock(day time.Time, clock string) (time.Time, error) {
	c, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(c.Hour())*time.Hour +
		time.Duration(c.Minute())*time.Minute +
		time.Duration(c.Second())*time.Second), nil
}
