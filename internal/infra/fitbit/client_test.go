package fitbit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchRequestsEverySection(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, newTestLogger())
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bundle, err := c.Fetch(context.Background(), "tok-1", date)
	require.NoError(t, err)
	require.Empty(t, bundle.Missing())

	require.Equal(t, []string{
		"/1/user/-/sleep/date/2024-01-02.json",
		"/1/user/-/body/log/weight/date/2024-01-02.json",
		"/1/user/-/activities/caloriesBMR/date/2024-01-02/1d.json",
		"/1/user/-/activities/heart/date/2024-01-02/1d/1sec.json",
		"/1/user/-/activities/steps/date/2024-01-02/1d/1min.json",
		"/1/user/-/activities/calories/date/2024-01-02/1d/1min.json",
		"/1/user/-/activities/distance/date/2024-01-02/1d/1min.json",
		"/1/user/-/activities/floors/date/2024-01-02/1d/1min.json",
		"/1/user/-/activities/date/2024-01-02.json",
	}, paths)
	require.JSONEq(t, `{"path":"/1/user/-/activities/heart/date/2024-01-02/1d/1sec.json"}`, string(bundle[fitness.SectionHR]))
}

func TestFetchAbortsOnErrorStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if strings.Contains(r.URL.Path, "caloriesBMR") {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"errors":[{"errorType":"rate_limit"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, newTestLogger())
	_, err := c.Fetch(context.Background(), "tok", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
	require.Contains(t, err.Error(), "status=429")
	require.Equal(t, 3, calls, "no retry and no further sections")
}

func TestFetchRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, newTestLogger())
	_, err := c.Fetch(context.Background(), "tok", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, apperrors.IsCode(err, apperrors.CodePayloadInvalid))
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, newTestLogger())
	_, err := c.Fetch(context.Background(), "tok", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
}
