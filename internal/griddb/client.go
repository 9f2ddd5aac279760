// Package griddb implements the GridDB WebAPI time-series store client:
// container provisioning, bulk row writes, and bounded row queries with
// client-side station and time-window filtering.
package griddb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
)

// rowTimeLayout is how TIMESTAMP values are written to and read from the
// store.
const rowTimeLayout = "2006-01-02T15:04:05.000Z"

// queryRowLimit bounds worst-case query payload size. The store does not
// filter by station or window; we fetch broadly and filter client-side.
const queryRowLimit = 20000

// Config holds the store endpoint settings and container names.
type Config struct {
	BaseURL string
	// APIKey is the static basic credential attached to every request.
	APIKey  string
	Timeout time.Duration

	WaterLevelContainer  string
	MonthlyMeanContainer string
	StationContainer     string
}

// Client talks to the remote time-series store over HTTP.
type Client struct {
	cfg        Config
	client     *http.Client
	containers map[EntityKind]containerDef
	clock      clockwork.Clock
	logger     *logrus.Logger
}

// NewClient creates a store client for the given endpoint.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.Timeout},
		containers: containerDefs(cfg.WaterLevelContainer, cfg.MonthlyMeanContainer, cfg.StationContainer),
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
}

// EnsureSchema idempotently provisions the container for kind. A container
// that already exists is success. Any other failure is logged here and
// reported as SchemaFailed; provisioning never aborts a write.
func (c *Client) EnsureSchema(ctx context.Context, kind EntityKind) SchemaResult {
	def, ok := c.containers[kind]
	if !ok {
		c.logger.WithField("kind", string(kind)).Error("Unknown entity kind for schema provisioning")
		return SchemaFailed
	}

	body, err := json.Marshal(def)
	if err != nil {
		c.logger.WithError(err).Error("Encoding container schema")
		return SchemaFailed
	}

	status, respBody, err := c.send(ctx, http.MethodPost, c.cfg.BaseURL+"/containers", body)
	switch {
	case err != nil:
		c.logger.WithError(err).WithField("container", def.ContainerName).Error("Provisioning container")
		return SchemaFailed
	case status == http.StatusConflict:
		return SchemaExists
	case status >= 200 && status < 300:
		c.logger.WithField("container", def.ContainerName).Info("Provisioned container")
		return SchemaCreated
	default:
		c.logger.WithFields(logrus.Fields{
			"container": def.ContainerName,
			"status":    status,
			"body":      string(respBody),
		}).Error("Provisioning container rejected")
		return SchemaFailed
	}
}

// WriteWaterLevels bulk-writes readings. Empty input is a no-op that issues
// no HTTP traffic. The store's rowkey upsert makes re-ingesting the same
// (station, timestamp) pair idempotent.
func (c *Client) WriteWaterLevels(ctx context.Context, readings []models.WaterLevelReading) error {
	if len(readings) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(readings))
	for i, r := range readings {
		rows[i] = []interface{}{
			r.Timestamp.UTC().Format(rowTimeLayout),
			r.StationID,
			r.StationName,
			r.WaterLevel,
			r.Datum,
			r.Latitude,
			r.Longitude,
			r.QualityFlags,
		}
	}
	return c.writeRows(ctx, KindWaterLevel, rows)
}

// WriteMonthlyMeans bulk-writes monthly means, keyed by (station, month).
func (c *Client) WriteMonthlyMeans(ctx context.Context, means []models.MonthlyMean) error {
	if len(means) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(means))
	for i, m := range means {
		rows[i] = []interface{}{
			m.Month.UTC().Format(rowTimeLayout),
			m.StationID,
			m.StationName,
			m.MeanSeaLevel,
			m.Year,
			m.MonthNumber,
			m.Latitude,
			m.Longitude,
		}
	}
	return c.writeRows(ctx, KindMonthlyMean, rows)
}

// WriteStations bulk-writes station metadata with a last_updated stamp.
func (c *Client) WriteStations(ctx context.Context, list []models.Station) error {
	if len(list) == 0 {
		return nil
	}
	now := c.clock.Now().UTC().Format(rowTimeLayout)
	rows := make([][]interface{}, len(list))
	for i, s := range list {
		rows[i] = []interface{}{
			s.ID,
			s.Name,
			s.State,
			s.Latitude,
			s.Longitude,
			s.Region,
			s.IsActive,
			now,
		}
	}
	return c.writeRows(ctx, KindStation, rows)
}

// writeRows ensures the schema and issues one bulk PUT. Partial-batch
// failure is not distinguished from total failure; the caller gets a single
// error with no per-record outcome.
func (c *Client) writeRows(ctx context.Context, kind EntityKind, rows [][]interface{}) error {
	def := c.containers[kind]

	c.EnsureSchema(ctx, kind)

	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding row batch: %w", err)
	}

	url := fmt.Sprintf("%s/containers/%s/rows", c.cfg.BaseURL, def.ContainerName)
	status, respBody, err := c.send(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("writing %s batch: %w", kind, err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("writing %s batch: HTTP %d: %s", kind, status, respBody)
	}

	c.logger.WithFields(logrus.Fields{
		"kind":  string(kind),
		"count": len(rows),
	}).Info("Stored record batch")
	return nil
}

// rowSet is the store's query response: a column description plus positional
// rows. Column order is whatever the provisioned schema says, so consumers
// must go through the name-to-index mapping.
type rowSet struct {
	Columns []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"columns"`
	Rows [][]interface{} `json:"rows"`
}

func (rs *rowSet) columnIndex() map[string]int {
	idx := make(map[string]int, len(rs.Columns))
	for i, col := range rs.Columns {
		idx[col.Name] = i
	}
	return idx
}

// QueryWaterLevels returns readings for one station within the last `hours`
// hours, newest ordering as stored. The store fetch is bounded by
// queryRowLimit and filtered client-side.
func (c *Client) QueryWaterLevels(ctx context.Context, stationID string, hours int) ([]models.WaterLevelReading, error) {
	rs, err := c.fetchRows(ctx, KindWaterLevel)
	if err != nil {
		return nil, err
	}

	idx := rs.columnIndex()
	cutoff := c.clock.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var readings []models.WaterLevelReading
	for _, row := range rs.Rows {
		sid, ok := rowString(row, idx, "station_id")
		if !ok || sid != stationID {
			continue
		}
		ts, ok := rowTime(row, idx, "timestamp")
		if !ok || ts.Before(cutoff) {
			continue
		}

		level, _ := rowFloat(row, idx, "water_level")
		lat, _ := rowFloat(row, idx, "latitude")
		lon, _ := rowFloat(row, idx, "longitude")
		name, _ := rowString(row, idx, "station_name")
		datum, _ := rowString(row, idx, "datum")
		flags, _ := rowString(row, idx, "flags")

		readings = append(readings, models.WaterLevelReading{
			StationID:    sid,
			StationName:  name,
			Timestamp:    ts,
			WaterLevel:   level,
			Datum:        datum,
			Latitude:     lat,
			Longitude:    lon,
			QualityFlags: flags,
		})
	}
	return readings, nil
}

// QueryMonthlyTrends returns monthly means for one station within the last
// `years` years, filtered client-side.
func (c *Client) QueryMonthlyTrends(ctx context.Context, stationID string, years int) ([]models.MonthlyMean, error) {
	rs, err := c.fetchRows(ctx, KindMonthlyMean)
	if err != nil {
		return nil, err
	}

	idx := rs.columnIndex()
	cutoff := c.clock.Now().UTC().AddDate(-years, 0, 0)

	var means []models.MonthlyMean
	for _, row := range rs.Rows {
		sid, ok := rowString(row, idx, "station_id")
		if !ok || sid != stationID {
			continue
		}
		month, ok := rowTime(row, idx, "month")
		if !ok || month.Before(cutoff) {
			continue
		}

		mean, _ := rowFloat(row, idx, "mean_sea_level")
		year, _ := rowFloat(row, idx, "year")
		monthNumber, _ := rowFloat(row, idx, "month_number")
		lat, _ := rowFloat(row, idx, "latitude")
		lon, _ := rowFloat(row, idx, "longitude")
		name, _ := rowString(row, idx, "station_name")

		means = append(means, models.MonthlyMean{
			StationID:    sid,
			StationName:  name,
			Month:        month,
			MeanSeaLevel: mean,
			Year:         int(year),
			MonthNumber:  int(monthNumber),
			Latitude:     lat,
			Longitude:    lon,
		})
	}
	return means, nil
}

func (c *Client) fetchRows(ctx context.Context, kind EntityKind) (*rowSet, error) {
	def := c.containers[kind]

	body, err := json.Marshal(map[string]int{"limit": queryRowLimit})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/containers/%s/rows", c.cfg.BaseURL, def.ContainerName)
	status, respBody, err := c.send(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("querying %s rows: %w", kind, err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("querying %s rows: HTTP %d: %s", kind, status, respBody)
	}

	var rs rowSet
	if err := json.Unmarshal(respBody, &rs); err != nil {
		return nil, fmt.Errorf("decoding %s row set: %w", kind, err)
	}
	return &rs, nil
}

func (c *Client) send(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Basic "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func rowString(row []interface{}, idx map[string]int, name string) (string, bool) {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return "", false
	}
	s, ok := row[i].(string)
	return s, ok
}

func rowFloat(row []interface{}, idx map[string]int, name string) (float64, bool) {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return 0, false
	}
	f, ok := row[i].(float64)
	return f, ok
}

func rowTime(row []interface{}, idx map[string]int, name string) (time.Time, bool) {
	s, ok := rowString(row, idx, name)
	if !ok {
		return time.Time{}, false
	}
	if ts, err := time.Parse(rowTimeLayout, s); err == nil {
		return ts, true
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
