// Package web exposes the JSON API consumed by the dashboard: station
// listings, filtered readings, and manual tick triggers. It is a thin caller
// of the core; all ingestion and query logic lives behind the interfaces
// below.
package web

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/scheduler"
)

var validate = validator.New()

// StationSource lists the configured stations.
type StationSource interface {
	List() []models.Station
}

// ReadingSource serves filtered reads from the time-series store.
type ReadingSource interface {
	QueryWaterLevels(ctx context.Context, stationID string, hours int) ([]models.WaterLevelReading, error)
	QueryMonthlyTrends(ctx context.Context, stationID string, years int) ([]models.MonthlyMean, error)
}

// Triggers runs ingestion ticks on demand.
type Triggers interface {
	TriggerWaterLevelTick(ctx context.Context) (int, error)
	TriggerMonthlyMeanTick(ctx context.Context) (int, error)
}

// Server is the public HTTP API.
type Server struct {
	app      *fiber.App
	stations StationSource
	readings ReadingSource
	triggers Triggers
	logger   *logrus.Logger
}

// NewServer builds the fiber app with all routes and middleware registered.
func NewServer(stations StationSource, readings ReadingSource, triggers Triggers, logger *logrus.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(requestID(), requestLogger(logger))

	s := &Server{
		app:      app,
		stations: stations,
		readings: readings,
		triggers: triggers,
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/stations", s.handleStations)
	api.Get("/dashboard-data", s.handleDashboardData)
	api.Get("/water-levels/:stationId", s.handleWaterLevels)
	api.Get("/monthly-trends/:stationId", s.handleMonthlyTrends)
	api.Post("/trigger-collection", s.handleTriggerCollection)
	api.Post("/trigger-monthly-update", s.handleTriggerMonthlyUpdate)

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
}

// Listen blocks serving the API on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleStations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"stations": s.stations.List()})
}

// handleDashboardData returns the per-station overview the dashboard renders
// on load: station metadata plus the latest water level reading and a short
// two-year monthly trend for each configured station.
func (s *Server) handleDashboardData(c *fiber.Ctx) error {
	list := s.stations.List()
	stationsData := make([]fiber.Map, 0, len(list))

	for _, station := range list {
		latest, err := s.readings.QueryWaterLevels(c.Context(), station.ID, 1)
		if err != nil {
			s.logger.WithError(err).WithField("station", station.ID).Error("Querying latest water level for dashboard")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build dashboard data")
		}
		trend, err := s.readings.QueryMonthlyTrends(c.Context(), station.ID, 2)
		if err != nil {
			s.logger.WithError(err).WithField("station", station.ID).Error("Querying monthly trend for dashboard")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build dashboard data")
		}

		if latest == nil {
			latest = []models.WaterLevelReading{}
		}
		if trend == nil {
			trend = []models.MonthlyMean{}
		}

		stationsData = append(stationsData, fiber.Map{
			"stationId":        station.ID,
			"stationName":      station.Name,
			"state":            station.State,
			"latitude":         station.Latitude,
			"longitude":        station.Longitude,
			"latestWaterLevel": latest,
			"monthlyTrend":     trend,
		})
	}

	return c.JSON(fiber.Map{
		"stations":      stationsData,
		"lastUpdated":   time.Now().UnixMilli(),
		"totalStations": len(list),
	})
}

type windowQuery struct {
	Hours int `validate:"min=1,max=720"`
	Years int `validate:"min=1,max=50"`
}

func (s *Server) handleWaterLevels(c *fiber.Ctx) error {
	stationID := c.Params("stationId")
	hours := c.QueryInt("hours", 24)

	if err := validate.Struct(windowQuery{Hours: hours, Years: 1}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "hours must be between 1 and 720")
	}

	readings, err := s.readings.QueryWaterLevels(c.Context(), stationID, hours)
	if err != nil {
		s.logger.WithError(err).WithField("station", stationID).Error("Querying water levels")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query water levels")
	}

	if readings == nil {
		readings = []models.WaterLevelReading{}
	}
	return c.JSON(fiber.Map{"results": readings})
}

func (s *Server) handleMonthlyTrends(c *fiber.Ctx) error {
	stationID := c.Params("stationId")
	years := c.QueryInt("years", 10)

	if err := validate.Struct(windowQuery{Hours: 1, Years: years}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "years must be between 1 and 50")
	}

	means, err := s.readings.QueryMonthlyTrends(c.Context(), stationID, years)
	if err != nil {
		s.logger.WithError(err).WithField("station", stationID).Error("Querying monthly trends")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query monthly trends")
	}

	if means == nil {
		means = []models.MonthlyMean{}
	}
	return c.JSON(fiber.Map{"results": means})
}

// handleTriggerCollection runs a water-level tick synchronously. The
// envelope reflects whether the tick could be invoked, not whether every
// station succeeded; callers confirm data landed via subsequent reads.
func (s *Server) handleTriggerCollection(c *fiber.Ctx) error {
	count, err := s.triggers.TriggerWaterLevelTick(c.Context())
	return s.triggerResponse(c, "Data collection triggered successfully", count, err)
}

func (s *Server) handleTriggerMonthlyUpdate(c *fiber.Ctx) error {
	count, err := s.triggers.TriggerMonthlyMeanTick(c.Context())
	return s.triggerResponse(c, "Monthly data update triggered successfully", count, err)
}

func (s *Server) triggerResponse(c *fiber.Ctx, message string, count int, err error) error {
	switch {
	case errors.Is(err, scheduler.ErrTickInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":    "busy",
			"message":   "a tick of this kind is already running",
			"timestamp": time.Now().UnixMilli(),
		})
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return c.JSON(fiber.Map{
			"status":    "success",
			"message":   message,
			"records":   count,
			"timestamp": time.Now().UnixMilli(),
		})
	}
}

// errorHandler renders every error as a structured payload; nothing throws
// past the API boundary.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
