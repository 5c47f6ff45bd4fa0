package models

import "time"

type HazardCategory string

const (
	CategoryFlood      HazardCategory = "FLOOD"
	CategoryEarthquake HazardCategory = "EARTHQUAKE"
	CategoryWeather    HazardCategory = "WEATHER"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank places severities in their total order. Unknown severities rank
// below LOW so comparisons against them never win.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

type Alert struct {
	ID        string
	Category  HazardCategory
	Severity  Severity
	Latitude  float64
	Longitude float64
	Title     string
	Message   string
	IsActive  bool
	SentAt    *time.Time // set once, when dispatch completed
	ExpiresAt *time.Time
	Metadata  map[string]any // originating metrics, kept for audit
	CreatedAt time.Time
}

func (a *Alert) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
	}
}

// Expired reports whether the alert is past its expiry at t. Alerts
// without an expiry never expire passively.
func (a *Alert) Expired(t time.Time) bool {
	return a.ExpiresAt != nil && !t.Before(*a.ExpiresAt)
}
