package models

import "time"

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the coordinates are within geographic bounds,
// latitude in [-90, 90] and longitude in [-180, 180].
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// FloodPrediction is a model-produced flood probability for a location.
// Written by the prediction collaborators, read-only here.
type FloodPrediction struct {
	ID             int64
	PredictionTime time.Time // when the prediction is for
	Latitude       float64
	Longitude      float64
	Probability    float64 // 0-1
	Confidence     float64 // 0-1
	ModelVersion   string
	CreatedAt      time.Time
}

// EarthquakePrediction is a model-produced earthquake risk assessment.
type EarthquakePrediction struct {
	ID                 int64
	PredictionTime     time.Time
	Latitude           float64
	Longitude          float64
	Probability        float64 // 0-1
	EstimatedMagnitude float64
	Confidence         float64
	ModelVersion       string
	CreatedAt          time.Time
}

// WeatherReading is a raw weather observation. A single reading can
// trigger several independent alerts (rain, wind, temperature).
type WeatherReading struct {
	ID            int64
	Timestamp     time.Time
	Latitude      float64
	Longitude     float64
	Temperature   *float64 // Celsius
	Humidity      *float64 // percent
	Pressure      *float64 // hPa
	Precipitation *float64 // mm over 24h
	WindSpeed     *float64 // m/s
	Source        string
	CreatedAt     time.Time
}

// SeismicEvent is a recorded earthquake, identified by the upstream
// network's event id.
type SeismicEvent struct {
	ID        int64
	EventID   string // natural id from the source, e.g. "us7000abcd"
	Timestamp time.Time
	Latitude  float64
	Longitude float64
	Magnitude float64
	Depth     float64 // km
	Place     string
	Source    string
	CreatedAt time.Time
}

func (w *WeatherReading) Coordinates() Coordinates {
	return Coordinates{Latitude: w.Latitude, Longitude: w.Longitude}
}

func (s *SeismicEvent) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}
