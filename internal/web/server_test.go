package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/scheduler"
)

type stubStations struct {
	list []models.Station
}

func (s *stubStations) List() []models.Station { return s.list }

type stubReadings struct {
	readings []models.WaterLevelReading
	means    []models.MonthlyMean
	err      error

	gotStation string
	gotHours   int
	gotYears   int
}

func (s *stubReadings) QueryWaterLevels(_ context.Context, stationID string, hours int) ([]models.WaterLevelReading, error) {
	s.gotStation, s.gotHours = stationID, hours
	return s.readings, s.err
}

func (s *stubReadings) QueryMonthlyTrends(_ context.Context, stationID string, years int) ([]models.MonthlyMean, error) {
	s.gotStation, s.gotYears = stationID, years
	return s.means, s.err
}

type stubTriggers struct {
	count int
	err   error
}

func (s *stubTriggers) TriggerWaterLevelTick(context.Context) (int, error)  { return s.count, s.err }
func (s *stubTriggers) TriggerMonthlyMeanTick(context.Context) (int, error) { return s.count, s.err }

func newTestServer(stations *stubStations, readings *stubReadings, triggers *stubTriggers) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewServer(stations, readings, triggers, logger)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandleStations(t *testing.T) {
	srv := newTestServer(
		&stubStations{list: []models.Station{{ID: "8518750", Name: "The Battery", Latitude: 40.7}}},
		&stubReadings{},
		&stubTriggers{},
	)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/stations", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	stations := body["stations"].([]interface{})
	require.Len(t, stations, 1)
	assert.Equal(t, "The Battery", stations[0].(map[string]interface{})["stationName"])
}

func TestHandleDashboardData(t *testing.T) {
	stations := &stubStations{list: []models.Station{
		{ID: "8518750", Name: "The Battery", State: "NY", Latitude: 40.7, Longitude: -74.0},
		{ID: "8443970", Name: "Boston", State: "MA", Latitude: 42.35, Longitude: -71.05},
	}}
	readings := &stubReadings{
		readings: []models.WaterLevelReading{{StationID: "8518750", WaterLevel: 1.234}},
		means:    []models.MonthlyMean{{StationID: "8518750", MeanSeaLevel: 0.087}},
	}
	srv := newTestServer(stations, readings, &stubTriggers{})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard-data", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Overview windows: latest hour of readings, two years of trend.
	assert.Equal(t, 1, readings.gotHours)
	assert.Equal(t, 2, readings.gotYears)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["totalStations"])
	assert.NotZero(t, body["lastUpdated"])

	stationsData := body["stations"].([]interface{})
	require.Len(t, stationsData, 2)

	first := stationsData[0].(map[string]interface{})
	assert.Equal(t, "8518750", first["stationId"])
	assert.Equal(t, "The Battery", first["stationName"])
	assert.Equal(t, "NY", first["state"])
	assert.Equal(t, 40.7, first["latitude"])
	assert.Len(t, first["latestWaterLevel"], 1)
	assert.Len(t, first["monthlyTrend"], 1)
}

func TestHandleDashboardDataStoreError(t *testing.T) {
	stations := &stubStations{list: []models.Station{{ID: "8518750", Name: "The Battery"}}}
	srv := newTestServer(stations, &stubReadings{err: errors.New("store down")}, &stubTriggers{})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard-data", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "failed to build dashboard data", body["error"])
}

func TestHandleWaterLevels(t *testing.T) {
	readings := &stubReadings{
		readings: []models.WaterLevelReading{
			{StationID: "8518750", WaterLevel: 1.234, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	srv := newTestServer(&stubStations{}, readings, &stubTriggers{})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/water-levels/8518750?hours=48", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "8518750", readings.gotStation)
	assert.Equal(t, 48, readings.gotHours)

	body := decodeBody(t, resp)
	assert.Len(t, body["results"], 1)
}

func TestHandleWaterLevelsDefaultsAndValidation(t *testing.T) {
	readings := &stubReadings{}
	srv := newTestServer(&stubStations{}, readings, &stubTriggers{})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/water-levels/8518750", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 24, readings.gotHours)

	resp, err = srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/water-levels/8518750?hours=0", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "hours")
}

func TestHandleMonthlyTrends(t *testing.T) {
	readings := &stubReadings{
		means: []models.MonthlyMean{{StationID: "8518750", MeanSeaLevel: 0.087}},
	}
	srv := newTestServer(&stubStations{}, readings, &stubTriggers{})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/monthly-trends/8518750?years=5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, readings.gotYears)
}

func TestHandleWaterLevelsStoreError(t *testing.T) {
	srv := newTestServer(&stubStations{}, &stubReadings{err: errors.New("store down")}, &stubTriggers{})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/water-levels/8518750", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	// The envelope is structured; internal detail does not leak.
	assert.Equal(t, "failed to query water levels", body["error"])
}

func TestHandleTriggerCollection(t *testing.T) {
	srv := newTestServer(&stubStations{}, &stubReadings{}, &stubTriggers{count: 12})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodPost, "/api/trigger-collection", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(12), body["records"])
}

func TestHandleTriggerCollectionBusy(t *testing.T) {
	srv := newTestServer(&stubStations{}, &stubReadings{}, &stubTriggers{err: scheduler.ErrTickInProgress})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodPost, "/api/trigger-monthly-update", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "busy", body["status"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubStations{}, &stubReadings{}, &stubTriggers{})

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
