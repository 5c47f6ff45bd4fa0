package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

func (s *SQLiteDB) RecentFloodPredictions(ctx context.Context, since time.Time) ([]models.FloodPrediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prediction_time, latitude, longitude, probability, confidence, model_version, created_at
		FROM flood_predictions
		WHERE created_at >= ?
		ORDER BY created_at`, since)
	if err != nil {
		return nil, fmt.Errorf("error querying flood predictions: %w", err)
	}
	defer rows.Close()

	var out []models.FloodPrediction
	for rows.Next() {
		var p models.FloodPrediction
		var confidence sql.NullFloat64
		var modelVersion sql.NullString
		if err := rows.Scan(&p.ID, &p.PredictionTime, &p.Latitude, &p.Longitude,
			&p.Probability, &confidence, &modelVersion, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning flood prediction: %w", err)
		}
		p.Confidence = confidence.Float64
		p.ModelVersion = modelVersion.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) RecentEarthquakePredictions(ctx context.Context, since time.Time) ([]models.EarthquakePrediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prediction_time, latitude, longitude, probability, estimated_magnitude, confidence, model_version, created_at
		FROM earthquake_predictions
		WHERE created_at >= ?
		ORDER BY created_at`, since)
	if err != nil {
		return nil, fmt.Errorf("error querying earthquake predictions: %w", err)
	}
	defer rows.Close()

	var out []models.EarthquakePrediction
	for rows.Next() {
		var p models.EarthquakePrediction
		var magnitude, confidence sql.NullFloat64
		var modelVersion sql.NullString
		if err := rows.Scan(&p.ID, &p.PredictionTime, &p.Latitude, &p.Longitude,
			&p.Probability, &magnitude, &confidence, &modelVersion, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning earthquake prediction: %w", err)
		}
		p.EstimatedMagnitude = magnitude.Float64
		p.Confidence = confidence.Float64
		p.ModelVersion = modelVersion.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) RecentWeatherReadings(ctx context.Context, since time.Time) ([]models.WeatherReading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, latitude, longitude, temperature, humidity, pressure, precipitation, wind_speed, source, created_at
		FROM weather_readings
		WHERE timestamp >= ?
		ORDER BY timestamp`, since)
	if err != nil {
		return nil, fmt.Errorf("error querying weather readings: %w", err)
	}
	defer rows.Close()

	var out []models.WeatherReading
	for rows.Next() {
		var w models.WeatherReading
		var temp, humidity, pressure, precip, wind sql.NullFloat64
		var source sql.NullString
		if err := rows.Scan(&w.ID, &w.Timestamp, &w.Latitude, &w.Longitude,
			&temp, &humidity, &pressure, &precip, &wind, &source, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning weather reading: %w", err)
		}
		w.Temperature = nullableFloat(temp)
		w.Humidity = nullableFloat(humidity)
		w.Pressure = nullableFloat(pressure)
		w.Precipitation = nullableFloat(precip)
		w.WindSpeed = nullableFloat(wind)
		w.Source = source.String
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) RecentSeismicEvents(ctx context.Context, since time.Time) ([]models.SeismicEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, timestamp, latitude, longitude, magnitude, depth, place, source, created_at
		FROM seismic_events
		WHERE timestamp >= ?
		ORDER BY timestamp`, since)
	if err != nil {
		return nil, fmt.Errorf("error querying seismic events: %w", err)
	}
	defer rows.Close()

	var out []models.SeismicEvent
	for rows.Next() {
		var e models.SeismicEvent
		var depth sql.NullFloat64
		var place, source sql.NullString
		if err := rows.Scan(&e.ID, &e.EventID, &e.Timestamp, &e.Latitude, &e.Longitude,
			&e.Magnitude, &depth, &place, &source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning seismic event: %w", err)
		}
		e.Depth = depth.Float64
		e.Place = place.String
		e.Source = source.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// The Insert methods back the ingestion collaborators and tests; the
// engine itself only reads records.

func (s *SQLiteDB) InsertFloodPrediction(ctx context.Context, p *models.FloodPrediction) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO flood_predictions (prediction_time, latitude, longitude, probability, confidence, model_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.PredictionTime, p.Latitude, p.Longitude, p.Probability, p.Confidence, p.ModelVersion, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting flood prediction: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteDB) InsertEarthquakePrediction(ctx context.Context, p *models.EarthquakePrediction) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO earthquake_predictions (prediction_time, latitude, longitude, probability, estimated_magnitude, confidence, model_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PredictionTime, p.Latitude, p.Longitude, p.Probability, p.EstimatedMagnitude, p.Confidence, p.ModelVersion, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting earthquake prediction: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteDB) InsertWeatherReading(ctx context.Context, w *models.WeatherReading) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO weather_readings (timestamp, latitude, longitude, temperature, humidity, pressure, precipitation, wind_speed, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Timestamp, w.Latitude, w.Longitude,
		floatOrNil(w.Temperature), floatOrNil(w.Humidity), floatOrNil(w.Pressure),
		floatOrNil(w.Precipitation), floatOrNil(w.WindSpeed), w.Source, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting weather reading: %w", err)
	}
	w.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteDB) InsertSeismicEvent(ctx context.Context, e *models.SeismicEvent) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO seismic_events (event_id, timestamp, latitude, longitude, magnitude, depth, place, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.Timestamp, e.Latitude, e.Longitude, e.Magnitude, e.Depth, e.Place, e.Source, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting seismic event: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
