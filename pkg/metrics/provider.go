// Package metrics calls the external metric providers the rollup aggregator
// needs for non-chain numbers (referrals, deployed agents). Providers are
// opaque and fallible; every failure degrades to zero.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider answers a numeric value for a named metric over a date range.
type Provider interface {
	FetchMetric(ctx context.Context, name string, start, end time.Time) (float64, error)
}

type Client struct {
	logger  *zap.Logger
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(logger *zap.Logger, baseURL, apiKey string) *Client {
	return &Client{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// metricPoint is the provider's row shape; some endpoints omit the date.
type metricPoint struct {
	Date  string      `json:"date"`
	Value json.Number `json:"value"`
}

// FetchMetric fetches one metric (e.g. "user/referrals") for [start, end],
// summing the returned points. Unconfigured providers and malformed replies
// are worth a log line, never an aborted rollup.
func (c *Client) FetchMetric(ctx context.Context, name string, start, end time.Time) (float64, error) {
	if c.baseURL == "" {
		return 0, nil
	}

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, name, url.Values{
		"start": {start.Format("2006-01-02")},
		"end":   {end.Format("2006-01-02")},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build metric request %s: %w", name, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch metric %s: %w", name, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close metric response", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch metric %s: unexpected status %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read metric response %s: %w", name, err)
	}

	return parseMetricValue(body)
}

// parseMetricValue accepts either a bare point or an array of points.
func parseMetricValue(body []byte) (float64, error) {
	var points []metricPoint
	if err := json.Unmarshal(body, &points); err != nil {
		var single metricPoint
		if err := json.Unmarshal(body, &single); err != nil {
			return 0, fmt.Errorf("unrecognized metric response: %w", err)
		}
		points = []metricPoint{single}
	}

	total := 0.0
	for _, p := range points {
		if v, err := p.Value.Float64(); err == nil {
			total += v
		}
	}
	return total, nil
}
