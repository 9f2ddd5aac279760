// Package scheduler orchestrates the ingestion pipeline: the bootstrap load
// at startup and the recurring water-level and monthly-mean ticks.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/observability"
)

// ErrTickInProgress is returned by a manual trigger when a tick of the same
// kind is already running. The caller gets "busy" instead of overlapping
// writes.
var ErrTickInProgress = errors.New("tick of this kind is already in progress")

const (
	jobWaterLevel  = "water_level"
	jobMonthlyMean = "monthly_mean"

	// Upper bound for a scheduled tick so one unresponsive station cannot
	// stall a job slot forever.
	tickTimeout = 15 * time.Minute
)

// StationSource lists the monitored stations in registry order.
type StationSource interface {
	List() []models.Station
}

// Collector fetches tide data for one station. Implementations never return
// errors; a failed fetch is an empty result.
type Collector interface {
	FetchLatest(ctx context.Context, stationID string) []models.WaterLevelReading
	FetchRecent(ctx context.Context, stationID string, days int) []models.WaterLevelReading
	FetchMonthlyMeans(ctx context.Context, stationID string, years int) []models.MonthlyMean
}

// Store batch-writes normalized records to the time-series store.
type Store interface {
	WriteStations(ctx context.Context, stations []models.Station) error
	WriteWaterLevels(ctx context.Context, readings []models.WaterLevelReading) error
	WriteMonthlyMeans(ctx context.Context, means []models.MonthlyMean) error
}

// Config holds tick cadence and fetch window settings.
type Config struct {
	WaterLevelCron  string
	MonthlyMeanCron string
	// BootstrapDays is the recent water-level window loaded once at startup.
	BootstrapDays int
	// BootstrapYears is the monthly-mean window loaded once at startup.
	BootstrapYears int
	// RefreshYears is the short monthly-mean window used on recurring ticks;
	// it only needs to catch provider-side corrections to recent months.
	RefreshYears int
}

// Orchestrator runs each tick to completion with stations processed
// sequentially in registry order. Per-station failures are logged and the
// loop proceeds; one bad station never blocks the others. A per-job-kind
// try-lock keeps scheduled and manually triggered ticks of the same kind
// from overlapping.
type Orchestrator struct {
	stations  StationSource
	collector Collector
	store     Store
	pacer     Pacer
	metrics   *observability.Metrics
	logger    *logrus.Logger
	cron      *cron.Cron
	cfg       Config

	waterLevelMu  sync.Mutex
	monthlyMeanMu sync.Mutex
}

// NewOrchestrator wires the ingestion pipeline together.
func NewOrchestrator(
	stations StationSource,
	collector Collector,
	store Store,
	pacer Pacer,
	metrics *observability.Metrics,
	logger *logrus.Logger,
	cfg Config,
) *Orchestrator {
	if cfg.BootstrapDays <= 0 {
		cfg.BootstrapDays = 7
	}
	if cfg.BootstrapYears <= 0 {
		cfg.BootstrapYears = 5
	}
	if cfg.RefreshYears <= 0 {
		cfg.RefreshYears = 1
	}

	return &Orchestrator{
		stations:  stations,
		collector: collector,
		store:     store,
		pacer:     pacer,
		metrics:   metrics,
		logger:    logger,
		cron:      cron.New(),
		cfg:       cfg,
	}
}

// Bootstrap performs the one-time startup load: station metadata, then per
// station a recent water-level window and a long monthly-mean window. It
// never aborts early; a failure for one station is logged and the loop
// proceeds to the next.
func (o *Orchestrator) Bootstrap(ctx context.Context) {
	list := o.stations.List()
	o.logger.WithField("stations", len(list)).Info("Starting bootstrap data load")

	if err := o.store.WriteStations(ctx, list); err != nil {
		o.metrics.StoreErrors.WithLabelValues("station").Inc()
		o.logger.WithError(err).Error("Writing station metadata")
	} else if len(list) > 0 {
		o.metrics.RecordsStored.WithLabelValues("station").Add(float64(len(list)))
	}

	for _, station := range list {
		if ctx.Err() != nil {
			o.logger.Info("Bootstrap canceled")
			return
		}

		recent := o.collector.FetchRecent(ctx, station.ID, o.cfg.BootstrapDays)
		o.storeWaterLevels(ctx, recent)

		means := o.collector.FetchMonthlyMeans(ctx, station.ID, o.cfg.BootstrapYears)
		o.storeMonthlyMeans(ctx, means)

		if err := o.pacer.Wait(ctx); err != nil {
			return
		}
	}

	o.logger.Info("Bootstrap data load completed")
}

// Start registers the cron entries and starts the scheduler.
func (o *Orchestrator) Start() error {
	if _, err := o.cron.AddFunc(o.cfg.WaterLevelCron, o.scheduledWaterLevelTick); err != nil {
		return err
	}
	if _, err := o.cron.AddFunc(o.cfg.MonthlyMeanCron, o.scheduledMonthlyMeanTick); err != nil {
		return err
	}
	o.cron.Start()
	return nil
}

// Stop halts the cron scheduler. Running ticks finish on their own.
func (o *Orchestrator) Stop() {
	o.cron.Stop()
}

// TriggerWaterLevelTick runs a water-level tick synchronously and returns
// the number of newly stored records. Returns ErrTickInProgress when a tick
// of the same kind is already running.
func (o *Orchestrator) TriggerWaterLevelTick(ctx context.Context) (int, error) {
	if !o.waterLevelMu.TryLock() {
		return 0, ErrTickInProgress
	}
	defer o.waterLevelMu.Unlock()
	return o.runWaterLevelTick(ctx), nil
}

// TriggerMonthlyMeanTick runs a monthly-mean tick synchronously; same busy
// semantics as TriggerWaterLevelTick.
func (o *Orchestrator) TriggerMonthlyMeanTick(ctx context.Context) (int, error) {
	if !o.monthlyMeanMu.TryLock() {
		return 0, ErrTickInProgress
	}
	defer o.monthlyMeanMu.Unlock()
	return o.runMonthlyMeanTick(ctx), nil
}

func (o *Orchestrator) scheduledWaterLevelTick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if _, err := o.TriggerWaterLevelTick(ctx); errors.Is(err, ErrTickInProgress) {
		o.metrics.TicksSkipped.WithLabelValues(jobWaterLevel).Inc()
		o.logger.Warn("Previous water level tick still running, skipping")
	}
}

func (o *Orchestrator) scheduledMonthlyMeanTick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if _, err := o.TriggerMonthlyMeanTick(ctx); errors.Is(err, ErrTickInProgress) {
		o.metrics.TicksSkipped.WithLabelValues(jobMonthlyMean).Inc()
		o.logger.Warn("Previous monthly mean tick still running, skipping")
	}
}

func (o *Orchestrator) runWaterLevelTick(ctx context.Context) int {
	started := time.Now()
	total := 0

	for _, station := range o.stations.List() {
		if ctx.Err() != nil {
			break
		}

		readings := o.collector.FetchLatest(ctx, station.ID)
		total += o.storeWaterLevels(ctx, readings)

		if err := o.pacer.Wait(ctx); err != nil {
			break
		}
	}

	o.metrics.TickDuration.WithLabelValues(jobWaterLevel).Observe(time.Since(started).Seconds())
	o.logger.WithField("records", total).Info("Water level tick completed")
	return total
}

func (o *Orchestrator) runMonthlyMeanTick(ctx context.Context) int {
	started := time.Now()
	total := 0

	for _, station := range o.stations.List() {
		if ctx.Err() != nil {
			break
		}

		means := o.collector.FetchMonthlyMeans(ctx, station.ID, o.cfg.RefreshYears)
		total += o.storeMonthlyMeans(ctx, means)

		if err := o.pacer.Wait(ctx); err != nil {
			break
		}
	}

	o.metrics.TickDuration.WithLabelValues(jobMonthlyMean).Observe(time.Since(started).Seconds())
	o.logger.WithField("records", total).Info("Monthly mean tick completed")
	return total
}

// storeWaterLevels writes a non-empty batch and returns how many records
// landed. An empty fetch result means "nothing new" and short-circuits
// before the store client.
func (o *Orchestrator) storeWaterLevels(ctx context.Context, readings []models.WaterLevelReading) int {
	if len(readings) == 0 {
		return 0
	}
	if err := o.store.WriteWaterLevels(ctx, readings); err != nil {
		o.metrics.StoreErrors.WithLabelValues(jobWaterLevel).Inc()
		o.logger.WithError(err).Error("Writing water level batch")
		return 0
	}
	o.metrics.RecordsStored.WithLabelValues(jobWaterLevel).Add(float64(len(readings)))
	return len(readings)
}

func (o *Orchestrator) storeMonthlyMeans(ctx context.Context, means []models.MonthlyMean) int {
	if len(means) == 0 {
		return 0
	}
	if err := o.store.WriteMonthlyMeans(ctx, means); err != nil {
		o.metrics.StoreErrors.WithLabelValues(jobMonthlyMean).Inc()
		o.logger.WithError(err).Error("Writing monthly mean batch")
		return 0
	}
	o.metrics.RecordsStored.WithLabelValues(jobMonthlyMean).Add(float64(len(means)))
	return len(means)
}
