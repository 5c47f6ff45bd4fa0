package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// AlertFilter narrows alert listings.
type AlertFilter struct {
	ActiveOnly bool
	Now        time.Time // read-time expiry reference, used with ActiveOnly
	Category   *models.HazardCategory
	Severity   *models.Severity
	Limit      int
}

// RecordRepository is the read side the monitor polls each cycle. The
// prediction and ingestion collaborators own the writes.
type RecordRepository interface {
	RecentFloodPredictions(ctx context.Context, since time.Time) ([]models.FloodPrediction, error)
	RecentEarthquakePredictions(ctx context.Context, since time.Time) ([]models.EarthquakePrediction, error)
	RecentWeatherReadings(ctx context.Context, since time.Time) ([]models.WeatherReading, error)
	RecentSeismicEvents(ctx context.Context, since time.Time) ([]models.SeismicEvent, error)
}

// AlertRepository persists alerts and their two permitted mutations:
// the one-time sent timestamp and deactivation.
type AlertRepository interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	DeactivateAlert(ctx context.Context, id string) error
	CountActiveBySeverity(ctx context.Context, now time.Time) (map[models.Severity]int, error)
}
