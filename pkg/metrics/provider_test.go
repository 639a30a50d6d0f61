package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFetchMetricSumsPoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/referrals", r.URL.Path)
		assert.Equal(t, "2025-04-14", r.URL.Query().Get("start"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"date":"2025-04-14","value":3},{"date":"2025-04-15","value":2.5}]`))
	}))
	defer srv.Close()

	c := NewClient(zaptest.NewLogger(t), srv.URL, "secret")
	start := time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)
	v, err := c.FetchMetric(context.Background(), "user/referrals", start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 5.5, v)
}

func TestFetchMetricSinglePoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":"42"}`))
	}))
	defer srv.Close()

	c := NewClient(zaptest.NewLogger(t), srv.URL, "")
	v, err := c.FetchMetric(context.Background(), "agents/deployed", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestFetchMetricErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(zaptest.NewLogger(t), srv.URL, "")
	v, err := c.FetchMetric(context.Background(), "user/referrals", time.Now(), time.Now())
	assert.Error(t, err)
	assert.Zero(t, v)
}

func TestFetchMetricUnconfigured(t *testing.T) {
	c := NewClient(zaptest.NewLogger(t), "", "key")
	v, err := c.FetchMetric(context.Background(), "user/referrals", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, v)
}
