package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
	"github.com/yanqian/fitbit-export/pkg/util"
)

const (
	defaultBaseURL = "https://api.fitbit.com"
	errorBodyLimit = 4 << 10
)

type endpoint struct {
	section fitness.Section
	path    string
}

// endpoints are requested in this order for every date.
var endpoints = []endpoint{
	{fitness.SectionSleep, "/1/user/-/sleep/date/%s.json"},
	{fitness.SectionWeight, "/1/user/-/body/log/weight/date/%s.json"},
	{fitness.SectionBMR, "/1/user/-/activities/caloriesBMR/date/%s/1d.json"},
	{fitness.SectionHR, "/1/user/-/activities/heart/date/%s/1d/1sec.json"},
	{fitness.SectionSteps, "/1/user/-/activities/steps/date/%s/1d/1min.json"},
	{fitness.SectionKcal, "/1/user/-/activities/calories/date/%s/1d/1min.json"},
	{fitness.SectionMiles, "/1/user/-/activities/distance/date/%s/1d/1min.json"},
	{fitness.SectionFloors, "/1/user/-/activities/floors/date/%s/1d/1min.json"},
	{fitness.SectionActivity, "/1/user/-/activities/date/%s.json"},
}

// Client fetches the raw per-date responses from the Fitbit Web API.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient builds an API client. Requests are never retried.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(url, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return &Client{
		http:   client,
		logger: logger.With("component", "fitbit.client"),
	}
}

// Fetch downloads every section for date using the bearer token. Any
// transport failure or non-2xx status aborts the fetch.
func (c *Client) Fetch(ctx context.Context, token string, date time.Time) (fitness.Bundle, error) {
	day := date.Format(util.DateLayout)
	bundle := make(fitness.Bundle, len(endpoints))
	for _, ep := range endpoints {
		path := fmt.Sprintf(ep.path, day)
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			Get(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeUpstream, fmt.Sprintf("GET %s", path), err)
		}
		if resp.IsError() || resp.StatusCode() >= 300 {
			body := resp.Body()
			if len(body) > errorBodyLimit {
				body = body[:errorBodyLimit]
			}
			return nil, apperrors.Wrap(apperrors.CodeUpstream,
				fmt.Sprintf("GET %s: status=%d body=%s", path, resp.StatusCode(), string(body)), nil)
		}
		body := resp.Body()
		if !json.Valid(body) {
			return nil, apperrors.Wrap(apperrors.CodePayloadInvalid, fmt.Sprintf("GET %s: response is not JSON", path), nil)
		}
		c.logger.Debug("fetched section", "section", ep.section, "date", day, "bytes", len(body), "latency_ms", resp.Time().Milliseconds())
		bundle[ep.section] = json.RawMessage(append([]byte(nil), body...))
	}
	return bundle, nil
}
