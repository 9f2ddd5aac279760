package noaa

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/observability"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/stations"
)

func newTestCollector(t *testing.T, baseURL string) *Collector {
	t.Helper()

	cache, err := stations.NewEnrichmentCache(16)
	require.NoError(t, err)
	cache.Seed([]models.Station{
		{ID: "8518750", Name: "The Battery", Latitude: 40.7, Longitude: -74.0},
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	return NewCollector(Config{
		BaseURL:     baseURL,
		Application: "CoastWatch/1.0",
		Timeout:     5 * time.Second,
	}, cache, metrics, logger)
}

func TestFetchLatest(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data":[{"t":"2024-01-01 00:00","v":"1.234","f":""}]}`))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	readings := collector.FetchLatest(context.Background(), "8518750")

	require.Len(t, readings, 1)
	assert.Equal(t, 1.234, readings[0].WaterLevel)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), readings[0].Timestamp)
	assert.Equal(t, "The Battery", readings[0].StationName)
	assert.Equal(t, "MLLW", readings[0].Datum)

	assert.Equal(t, "water_level", gotQuery.Get("product"))
	assert.Equal(t, "8518750", gotQuery.Get("station"))
	assert.Equal(t, "latest", gotQuery.Get("date"))
	assert.Equal(t, "gmt", gotQuery.Get("time_zone"))
	assert.Equal(t, "metric", gotQuery.Get("units"))
	assert.Equal(t, "json", gotQuery.Get("format"))
}

func TestFetchLatestMissingDataKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"metadata":{"id":"8518750"}}`))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	readings := collector.FetchLatest(context.Background(), "8518750")
	assert.Empty(t, readings)
}

func TestFetchLatestEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("   \n"))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	readings := collector.FetchLatest(context.Background(), "8518750")
	assert.Empty(t, readings)
}

func TestFetchLatestBadValueFailsWholeCall(t *testing.T) {
	// The second point is fine, but the first has a non-numeric value; the
	// whole fetch must come back empty, not just drop the bad point.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"t":"2024-01-01 00:00","v":"n/a","f":""},{"t":"2024-01-01 00:06","v":"1.2","f":""}]}`))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	readings := collector.FetchLatest(context.Background(), "8518750")
	assert.Empty(t, readings)
}

func TestFetchLatestServerErrorYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	readings := collector.FetchLatest(context.Background(), "8518750")
	assert.Empty(t, readings)
}

func TestFetchRecentDateWindow(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	collector.clock = clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	collector.FetchRecent(context.Background(), "8518750", 7)

	assert.Equal(t, "20240308", gotQuery.Get("begin_date"))
	assert.Equal(t, "20240315", gotQuery.Get("end_date"))
	assert.Empty(t, gotQuery.Get("date"))
}

func TestFetchRecentEnrichesUnknownStation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"t":"2024-01-01 00:00","v":"0.5","f":"p"}]}`))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	readings := collector.FetchRecent(context.Background(), "1234567", 7)

	require.Len(t, readings, 1)
	assert.Equal(t, "Station 1234567", readings[0].StationName)
	assert.Equal(t, 40.0, readings[0].Latitude)
	assert.Equal(t, -74.0, readings[0].Longitude)
	assert.Equal(t, "p", readings[0].QualityFlags)
}

func TestFetchMonthlyMeans(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"data":[{"year":"2023","month":"11","MSL":"0.087"},{"year":"2023","month":"12","MSL":"0.102"}]}`))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	collector.clock = clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	means := collector.FetchMonthlyMeans(context.Background(), "8518750", 5)

	require.Len(t, means, 2)
	assert.Equal(t, 2023, means[0].Year)
	assert.Equal(t, 11, means[0].MonthNumber)
	assert.Equal(t, 0.087, means[0].MeanSeaLevel)
	assert.Equal(t, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), means[0].Month)
	assert.Equal(t, "The Battery", means[0].StationName)

	assert.Equal(t, "monthly_mean", gotQuery.Get("product"))
	assert.Equal(t, "MSL", gotQuery.Get("datum"))
	assert.Equal(t, "20190315", gotQuery.Get("begin_date"))
	assert.Equal(t, "20240315", gotQuery.Get("end_date"))
}

func TestFetchMonthlyMeansBadMonthFailsWholeCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"year":"2023","month":"xx","MSL":"0.087"}]}`))
	}))
	defer srv.Close()

	collector := newTestCollector(t, srv.URL)
	means := collector.FetchMonthlyMeans(context.Background(), "8518750", 5)
	assert.Empty(t, means)
}
