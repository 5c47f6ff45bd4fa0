package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hazardwatch/go-hazard-alerts/internal/dedup"
	"github.com/hazardwatch/go-hazard-alerts/internal/models"
	"github.com/hazardwatch/go-hazard-alerts/internal/observability"
	"github.com/hazardwatch/go-hazard-alerts/internal/repository"
	"github.com/hazardwatch/go-hazard-alerts/internal/severity"
)

const (
	// DefaultInterval is the pause between monitoring cycles.
	DefaultInterval = 300 * time.Second
	// DefaultRecoveryInterval is the shorter pause after a cycle blows up.
	DefaultRecoveryInterval = 60 * time.Second
	// DefaultLookback is how far back each domain query reaches.
	DefaultLookback = time.Hour
)

// Dispatcher is the monitor's view of the notification layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *models.Alert)
}

// Options wires a Monitor. Zero durations fall back to the defaults.
type Options struct {
	Records    repository.RecordRepository
	Alerts     repository.AlertRepository
	Thresholds *severity.Table
	Dedup      *dedup.Cache
	Dispatcher Dispatcher
	Metrics    *observability.Metrics
	Clock      clockwork.Clock
	Interval   time.Duration
	Recovery   time.Duration
	Lookback   time.Duration
}

// Monitor polls the four data domains, classifies severities, and turns
// qualifying records into persisted, dispatched alerts. It owns the dedup
// cache exclusively.
type Monitor struct {
	records    repository.RecordRepository
	alerts     repository.AlertRepository
	thresholds *severity.Table
	dedup      *dedup.Cache
	dispatcher Dispatcher
	metrics    *observability.Metrics
	clock      clockwork.Clock

	interval time.Duration
	recovery time.Duration
	lookback time.Duration

	wg sync.WaitGroup
}

func New(opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Recovery <= 0 {
		opts.Recovery = DefaultRecoveryInterval
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Monitor{
		records:    opts.Records,
		alerts:     opts.Alerts,
		thresholds: opts.Thresholds,
		dedup:      opts.Dedup,
		dispatcher: opts.Dispatcher,
		metrics:    opts.Metrics,
		clock:      opts.Clock,
		interval:   opts.Interval,
		recovery:   opts.Recovery,
		lookback:   opts.Lookback,
	}
}

// Start launches the monitoring loop. The loop never exits on error; it
// only stops when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx)
	}()
}

// Stop waits for the in-flight cycle to finish. Cancel the context passed
// to Start first.
func (m *Monitor) Stop() {
	m.wg.Wait()
	slog.Info("alert monitor stopped")
}

func (m *Monitor) run(ctx context.Context) {
	slog.Info("starting alert monitor", "interval", m.interval, "lookback", m.lookback)
	m.metrics.MonitorRunning.Set(1)
	defer m.metrics.MonitorRunning.Set(0)

	for {
		wait := m.interval
		if err := m.safeCycle(ctx); err != nil {
			slog.Error("monitoring cycle failed", "error", err)
			wait = m.recovery
		}

		select {
		case <-ctx.Done():
			slog.Info("alert monitor shutting down")
			return
		case <-m.clock.After(wait):
		}
	}
}

// safeCycle keeps a panicking cycle from killing the loop; the loop backs
// off and tries again.
func (m *Monitor) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	m.RunCycle(ctx)
	return nil
}

// RunCycle evaluates all four domains once, then prunes the dedup cache.
// A failure in one domain never prevents the others from being evaluated.
func (m *Monitor) RunCycle(ctx context.Context) {
	start := m.clock.Now()
	since := start.Add(-m.lookback)

	m.checkDomain(ctx, "flood_predictions", since, m.checkFloodPredictions)
	m.checkDomain(ctx, "earthquake_predictions", since, m.checkEarthquakePredictions)
	m.checkDomain(ctx, "weather_readings", since, m.checkWeatherReadings)
	m.checkDomain(ctx, "seismic_events", since, m.checkSeismicEvents)

	if pruned := m.dedup.PruneExpired(); pruned > 0 {
		slog.Info("pruned dedup cache", "removed", pruned, "remaining", m.dedup.Len())
	}

	m.metrics.CyclesTotal.Inc()
	m.metrics.CycleDuration.Observe(m.clock.Since(start).Seconds())
}

func (m *Monitor) checkDomain(ctx context.Context, domain string, since time.Time, check func(context.Context, time.Time) error) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.DomainErrors.WithLabelValues(domain).Inc()
			slog.Error("domain check panicked", "domain", domain, "panic", r)
		}
	}()

	if err := check(ctx, since); err != nil {
		m.metrics.DomainErrors.WithLabelValues(domain).Inc()
		slog.Error("domain check failed", "domain", domain, "error", err)
	}
}

// emit persists the alert, records the dedup key, and dispatches. If
// persistence fails the key is not recorded, so the record is retried
// next cycle. A MarkSent failure is best-effort bookkeeping only.
func (m *Monitor) emit(ctx context.Context, alert *models.Alert, key string) {
	if err := m.alerts.CreateAlert(ctx, alert); err != nil {
		slog.Error("error persisting alert",
			"alert_id", alert.ID, "category", alert.Category, "error", err)
		return
	}
	m.dedup.Record(key)
	m.metrics.AlertsCreated.WithLabelValues(string(alert.Category), string(alert.Severity)).Inc()

	m.dispatcher.Dispatch(ctx, alert)

	sentAt := m.clock.Now()
	if err := m.alerts.MarkSent(ctx, alert.ID, sentAt); err != nil {
		slog.Error("error marking alert sent", "alert_id", alert.ID, "error", err)
	} else {
		alert.SentAt = &sentAt
	}

	slog.Info("alert created and sent",
		"alert_id", alert.ID,
		"category", alert.Category,
		"severity", alert.Severity,
		"title", alert.Title)
}
