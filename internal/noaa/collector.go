// Package noaa fetches tide station time series from the NOAA CO-OPS data
// API and maps the provider wire format into internal records.
package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/observability"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/stations"
)

const (
	productWaterLevel  = "water_level"
	productMonthlyMean = "monthly_mean"

	datumWaterLevel  = "MLLW"
	datumMonthlyMean = "MSL"

	// Provider timestamps arrive as "yyyy-MM-dd HH:mm" in GMT.
	pointTimeLayout = "2006-01-02 15:04"
	// begin_date / end_date query parameters use yyyyMMdd.
	rangeDateLayout = "20060102"
)

// Config holds the provider endpoint settings.
type Config struct {
	BaseURL     string
	Application string
	Timeout     time.Duration
}

// Collector calls the tide data provider and normalizes its payloads.
// All three fetch operations share the same failure policy: network and
// parse errors are caught here, logged, counted, and surfaced as an empty
// result. Callers must treat "empty" as "nothing new", never as an error.
type Collector struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   *stations.EnrichmentCache
	metrics *observability.Metrics
	clock   clockwork.Clock
	logger  *logrus.Logger
}

// NewCollector creates a Collector with a bounded per-call HTTP timeout and
// a circuit breaker guarding the provider.
func NewCollector(cfg Config, cache *stations.EnrichmentCache, metrics *observability.Metrics, logger *logrus.Logger) *Collector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "noaa",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Collector{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		cache:   cache,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
	}
}

// FetchLatest returns the most recent water level reading set for a station.
func (c *Collector) FetchLatest(ctx context.Context, stationID string) []models.WaterLevelReading {
	params := c.baseParams(productWaterLevel, stationID, datumWaterLevel)
	params.Set("date", "latest")

	readings, err := c.fetchWaterLevels(ctx, stationID, params)
	if err != nil {
		c.fetchFailed(productWaterLevel, stationID, err)
		return nil
	}
	return readings
}

// FetchRecent returns water level readings for the [today-days, today] window.
func (c *Collector) FetchRecent(ctx context.Context, stationID string, days int) []models.WaterLevelReading {
	end := c.clock.Now().UTC()
	start := end.AddDate(0, 0, -days)

	params := c.baseParams(productWaterLevel, stationID, datumWaterLevel)
	params.Set("begin_date", start.Format(rangeDateLayout))
	params.Set("end_date", end.Format(rangeDateLayout))

	readings, err := c.fetchWaterLevels(ctx, stationID, params)
	if err != nil {
		c.fetchFailed(productWaterLevel, stationID, err)
		return nil
	}
	return readings
}

// FetchMonthlyMeans returns monthly mean sea levels for the
// [today-years, today] window.
func (c *Collector) FetchMonthlyMeans(ctx context.Context, stationID string, years int) []models.MonthlyMean {
	end := c.clock.Now().UTC()
	start := end.AddDate(-years, 0, 0)

	params := c.baseParams(productMonthlyMean, stationID, datumMonthlyMean)
	params.Set("begin_date", start.Format(rangeDateLayout))
	params.Set("end_date", end.Format(rangeDateLayout))

	body, err := c.get(ctx, params)
	if err != nil {
		c.fetchFailed(productMonthlyMean, stationID, err)
		return nil
	}

	var payload struct {
		Data []struct {
			Year  string `json:"year"`
			Month string `json:"month"`
			MSL   string `json:"MSL"`
		} `json:"data"`
	}
	if err := unmarshalResponse(body, &payload); err != nil {
		c.fetchFailed(productMonthlyMean, stationID, err)
		return nil
	}

	meta := c.cache.Lookup(stationID)

	means := make([]models.MonthlyMean, 0, len(payload.Data))
	for _, point := range payload.Data {
		year, err := strconv.Atoi(point.Year)
		if err != nil {
			c.fetchFailed(productMonthlyMean, stationID, fmt.Errorf("parsing year %q: %w", point.Year, err))
			return nil
		}
		monthNumber, err := strconv.Atoi(point.Month)
		if err != nil {
			c.fetchFailed(productMonthlyMean, stationID, fmt.Errorf("parsing month %q: %w", point.Month, err))
			return nil
		}
		meanLevel, err := strconv.ParseFloat(point.MSL, 64)
		if err != nil {
			c.fetchFailed(productMonthlyMean, stationID, fmt.Errorf("parsing MSL %q: %w", point.MSL, err))
			return nil
		}

		means = append(means, models.MonthlyMean{
			StationID:    stationID,
			StationName:  meta.Name,
			Month:        time.Date(year, time.Month(monthNumber), 1, 0, 0, 0, 0, time.UTC),
			MeanSeaLevel: meanLevel,
			Year:         year,
			MonthNumber:  monthNumber,
			Latitude:     meta.Latitude,
			Longitude:    meta.Longitude,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"station": stationID,
		"count":   len(means),
	}).Debug("Fetched monthly mean readings")

	return means
}

func (c *Collector) fetchWaterLevels(ctx context.Context, stationID string, params url.Values) ([]models.WaterLevelReading, error) {
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			T string `json:"t"`
			V string `json:"v"`
			F string `json:"f"`
		} `json:"data"`
	}
	if err := unmarshalResponse(body, &payload); err != nil {
		return nil, err
	}

	meta := c.cache.Lookup(stationID)

	readings := make([]models.WaterLevelReading, 0, len(payload.Data))
	for _, point := range payload.Data {
		// Timestamp and value are mandatory per point. The provider gives no
		// mid-list continuation guarantee, so one bad point fails the whole call.
		timestamp, err := time.ParseInLocation(pointTimeLayout, point.T, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", point.T, err)
		}
		level, err := strconv.ParseFloat(point.V, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing water level %q: %w", point.V, err)
		}

		readings = append(readings, models.WaterLevelReading{
			StationID:    stationID,
			StationName:  meta.Name,
			Timestamp:    timestamp,
			WaterLevel:   level,
			Datum:        datumWaterLevel,
			Latitude:     meta.Latitude,
			Longitude:    meta.Longitude,
			QualityFlags: point.F,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"station": stationID,
		"count":   len(readings),
	}).Debug("Fetched water level readings")

	return readings, nil
}

func (c *Collector) baseParams(product, stationID, datum string) url.Values {
	params := url.Values{}
	params.Set("product", product)
	params.Set("application", c.cfg.Application)
	params.Set("station", stationID)
	params.Set("datum", datum)
	params.Set("time_zone", "gmt")
	params.Set("units", "metric")
	params.Set("format", "json")
	return params
}

func (c *Collector) get(ctx context.Context, params url.Values) ([]byte, error) {
	requestURL := fmt.Sprintf("%s?%s", c.cfg.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.Application)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// unmarshalResponse decodes a provider body, treating an empty or
// whitespace-only body as "{}": zero records, not an error.
func unmarshalResponse(body []byte, out interface{}) error {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("decoding provider response: %w", err)
	}
	return nil
}

func (c *Collector) fetchFailed(product, stationID string, err error) {
	c.metrics.FetchErrors.WithLabelValues(product).Inc()
	c.logger.WithError(err).WithFields(logrus.Fields{
		"product": product,
		"station": stationID,
	}).Error("Fetching tide data failed")
}
