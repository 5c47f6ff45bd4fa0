package monitor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazardwatch/go-hazard-alerts/internal/dedup"
	"github.com/hazardwatch/go-hazard-alerts/internal/models"
	"github.com/hazardwatch/go-hazard-alerts/internal/severity"
)

// Expiry windows per alert source.
const (
	floodExpiry      = 6 * time.Hour
	earthquakeExpiry = 24 * time.Hour
	weatherExpiry    = 6 * time.Hour
	seismicExpiry    = 12 * time.Hour
)

func (m *Monitor) checkFloodPredictions(ctx context.Context, since time.Time) error {
	predictions, err := m.records.RecentFloodPredictions(ctx, since)
	if err != nil {
		return fmt.Errorf("fetching flood predictions: %w", err)
	}

	for i := range predictions {
		p := &predictions[i]
		key := dedup.LocationKey(models.CategoryFlood, models.Coordinates{Latitude: p.Latitude, Longitude: p.Longitude})
		if m.dedup.ShouldSuppress(key) {
			m.metrics.Suppressed.WithLabelValues("flood_predictions").Inc()
			continue
		}

		sev, ok := m.thresholds.Classify(severity.ScaleFlood, p.Probability)
		if !ok {
			continue
		}

		expires := p.PredictionTime.Add(floodExpiry)
		m.emit(ctx, &models.Alert{
			ID:        uuid.NewString(),
			Category:  models.CategoryFlood,
			Severity:  sev,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Title:     fmt.Sprintf("Flood Warning - %s Risk", sev),
			Message: fmt.Sprintf("Flood prediction indicates %s risk with %.1f%% probability. Prediction valid until %s.",
				strings.ToLower(string(sev)), p.Probability*100, p.PredictionTime.UTC().Format("2006-01-02 15:04")),
			IsActive:  true,
			ExpiresAt: &expires,
			Metadata: map[string]any{
				"prediction_id": p.ID,
				"probability":   p.Probability,
				"confidence":    p.Confidence,
			},
			CreatedAt: m.clock.Now(),
		}, key)
	}
	return nil
}

func (m *Monitor) checkEarthquakePredictions(ctx context.Context, since time.Time) error {
	predictions, err := m.records.RecentEarthquakePredictions(ctx, since)
	if err != nil {
		return fmt.Errorf("fetching earthquake predictions: %w", err)
	}

	for i := range predictions {
		p := &predictions[i]
		key := dedup.LocationKey(models.CategoryEarthquake, models.Coordinates{Latitude: p.Latitude, Longitude: p.Longitude})
		if m.dedup.ShouldSuppress(key) {
			m.metrics.Suppressed.WithLabelValues("earthquake_predictions").Inc()
			continue
		}

		sev, ok := m.thresholds.Classify(severity.ScaleEarthquake, p.Probability)
		if !ok {
			continue
		}

		expires := p.PredictionTime.Add(earthquakeExpiry)
		m.emit(ctx, &models.Alert{
			ID:        uuid.NewString(),
			Category:  models.CategoryEarthquake,
			Severity:  sev,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Title:     fmt.Sprintf("Earthquake Risk Alert - %s Risk", sev),
			Message: fmt.Sprintf("Earthquake risk assessment indicates %s risk with %.1f%% probability. Estimated magnitude: M%.1f. Assessment valid until %s.",
				strings.ToLower(string(sev)), p.Probability*100, p.EstimatedMagnitude, p.PredictionTime.UTC().Format("2006-01-02 15:04")),
			IsActive:  true,
			ExpiresAt: &expires,
			Metadata: map[string]any{
				"prediction_id":       p.ID,
				"probability":         p.Probability,
				"estimated_magnitude": p.EstimatedMagnitude,
				"confidence":          p.Confidence,
			},
			CreatedAt: m.clock.Now(),
		}, key)
	}
	return nil
}

// weatherCandidate is one independent alert derived from a reading.
type weatherCandidate struct {
	category models.HazardCategory
	severity models.Severity
	title    string
	message  string
}

func (m *Monitor) checkWeatherReadings(ctx context.Context, since time.Time) error {
	readings, err := m.records.RecentWeatherReadings(ctx, since)
	if err != nil {
		return fmt.Errorf("fetching weather readings: %w", err)
	}

	for i := range readings {
		r := &readings[i]
		loc := r.Coordinates()

		for _, c := range m.weatherCandidates(r) {
			key := dedup.WeatherKey(loc, c.category)
			if m.dedup.ShouldSuppress(key) {
				m.metrics.Suppressed.WithLabelValues("weather_readings").Inc()
				continue
			}

			expires := m.clock.Now().Add(weatherExpiry)
			m.emit(ctx, &models.Alert{
				ID:        uuid.NewString(),
				Category:  c.category,
				Severity:  c.severity,
				Latitude:  r.Latitude,
				Longitude: r.Longitude,
				Title:     c.title,
				Message:   c.message,
				IsActive:  true,
				ExpiresAt: &expires,
				Metadata:  map[string]any{"reading_id": r.ID},
				CreatedAt: m.clock.Now(),
			}, key)
		}
	}
	return nil
}

// weatherCandidates evaluates each metric of a reading independently; a
// single reading can produce rain, wind, and temperature alerts at once.
func (m *Monitor) weatherCandidates(r *models.WeatherReading) []weatherCandidate {
	var out []weatherCandidate

	if r.Precipitation != nil {
		if sev, ok := m.thresholds.Classify(severity.ScalePrecipitation, *r.Precipitation); ok {
			out = append(out, weatherCandidate{
				category: models.CategoryFlood,
				severity: sev,
				title:    "Heavy Rainfall Alert",
				message:  fmt.Sprintf("Heavy rainfall detected: %.1fmm. Flood risk increased.", *r.Precipitation),
			})
		}
	}
	if r.WindSpeed != nil {
		if sev, ok := m.thresholds.Classify(severity.ScaleWind, *r.WindSpeed); ok {
			out = append(out, weatherCandidate{
				category: models.CategoryWeather,
				severity: sev,
				title:    "Extreme Wind Alert",
				message:  fmt.Sprintf("Extreme wind conditions: %.1f m/s. Take shelter immediately.", *r.WindSpeed),
			})
		}
	}
	if r.Temperature != nil {
		if sev, ok := m.thresholds.Classify(severity.ScaleTemperature, math.Abs(*r.Temperature)); ok {
			out = append(out, weatherCandidate{
				category: models.CategoryWeather,
				severity: sev,
				title:    "Extreme Temperature Alert",
				message:  fmt.Sprintf("Extreme temperature: %.1f°C. Take appropriate precautions.", *r.Temperature),
			})
		}
	}
	return out
}

func (m *Monitor) checkSeismicEvents(ctx context.Context, since time.Time) error {
	events, err := m.records.RecentSeismicEvents(ctx, since)
	if err != nil {
		return fmt.Errorf("fetching seismic events: %w", err)
	}

	for i := range events {
		e := &events[i]
		// One alert per physical event, keyed by the network's event id.
		key := dedup.EventKey(e.EventID)
		if m.dedup.ShouldSuppress(key) {
			m.metrics.Suppressed.WithLabelValues("seismic_events").Inc()
			continue
		}

		sev, ok := m.thresholds.Classify(severity.ScaleSeismicMagnitude, e.Magnitude)
		if !ok {
			continue
		}

		place := e.Place
		if place == "" {
			place = "Unknown"
		}

		expires := m.clock.Now().Add(seismicExpiry)
		m.emit(ctx, &models.Alert{
			ID:        uuid.NewString(),
			Category:  models.CategoryEarthquake,
			Severity:  sev,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
			Title:     fmt.Sprintf("Earthquake Detected - M%.1f", e.Magnitude),
			Message: fmt.Sprintf("Earthquake detected: M%.1f at depth %.1fkm. Location: %s. Time: %s UTC.",
				e.Magnitude, e.Depth, place, e.Timestamp.UTC().Format("2006-01-02 15:04:05")),
			IsActive:  true,
			ExpiresAt: &expires,
			Metadata: map[string]any{
				"event_id":  e.EventID,
				"magnitude": e.Magnitude,
				"depth":     e.Depth,
			},
			CreatedAt: m.clock.Now(),
		}, key)
	}
	return nil
}
