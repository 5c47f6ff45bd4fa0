package severity

import (
	"fmt"
	"sort"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

// Scale names an ordered cutoff table. Flood and earthquake scales are
// probability-based (0-1); the rest classify raw metric values.
type Scale string

const (
	ScaleFlood            Scale = "flood"
	ScaleEarthquake       Scale = "earthquake"
	ScalePrecipitation    Scale = "precipitation"
	ScaleWind             Scale = "wind"
	ScaleTemperature      Scale = "temperature"
	ScaleSeismicMagnitude Scale = "seismic_magnitude"
)

type Tier struct {
	Severity models.Severity
	Cutoff   float64
}

// Table is the immutable threshold configuration, built once at startup
// and shared read-only by all classification calls.
type Table struct {
	tiers map[Scale][]Tier // ascending by cutoff
}

// New validates raw cutoffs (scale → severity name → cutoff) and builds a
// Table. A table with unknown severities, empty scales, or cutoffs that do
// not strictly increase with severity is rejected.
func New(raw map[Scale]map[string]float64) (*Table, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("threshold table is empty")
	}

	tiers := make(map[Scale][]Tier, len(raw))
	for scale, cutoffs := range raw {
		if len(cutoffs) == 0 {
			return nil, fmt.Errorf("scale %q has no cutoffs", scale)
		}

		list := make([]Tier, 0, len(cutoffs))
		for name, cutoff := range cutoffs {
			sev := models.Severity(name)
			if sev.Rank() == 0 {
				// Try the lowercase form used in config files.
				sev = parseSeverity(name)
			}
			if sev.Rank() == 0 {
				return nil, fmt.Errorf("scale %q: unknown severity %q", scale, name)
			}
			list = append(list, Tier{Severity: sev, Cutoff: cutoff})
		}

		sort.Slice(list, func(i, j int) bool {
			return list[i].Severity.Rank() < list[j].Severity.Rank()
		})
		for i := 1; i < len(list); i++ {
			if list[i].Cutoff <= list[i-1].Cutoff {
				return nil, fmt.Errorf("scale %q: cutoff for %s (%v) must exceed cutoff for %s (%v)",
					scale, list[i].Severity, list[i].Cutoff, list[i-1].Severity, list[i-1].Cutoff)
			}
		}
		tiers[scale] = list
	}

	return &Table{tiers: tiers}, nil
}

// Default returns the built-in threshold table.
func Default() *Table {
	t, err := New(DefaultCutoffs())
	if err != nil {
		// The built-in table is validated by tests; this cannot happen
		// at runtime.
		panic(err)
	}
	return t
}

// DefaultCutoffs returns the built-in cutoff values. Config files override
// these per scale.
func DefaultCutoffs() map[Scale]map[string]float64 {
	return map[Scale]map[string]float64{
		ScaleFlood: {
			"low":      0.3,
			"medium":   0.5,
			"high":     0.7,
			"critical": 0.85,
		},
		ScaleEarthquake: {
			"low":      0.2,
			"medium":   0.4,
			"high":     0.6,
			"critical": 0.8,
		},
		ScalePrecipitation: { // mm over 24h
			"medium": 50,
			"high":   100,
		},
		ScaleWind: { // m/s
			"high":     25,
			"critical": 35,
		},
		ScaleTemperature: { // absolute Celsius
			"high": 45,
		},
		ScaleSeismicMagnitude: {
			"medium":   5.0,
			"high":     6.0,
			"critical": 7.0,
		},
	}
}

// Classify returns the highest tier whose cutoff is <= value, or false
// when the value clears no cutoff. Pure and deterministic.
func (t *Table) Classify(scale Scale, value float64) (models.Severity, bool) {
	tiers, ok := t.tiers[scale]
	if !ok {
		return "", false
	}
	for i := len(tiers) - 1; i >= 0; i-- {
		if value >= tiers[i].Cutoff {
			return tiers[i].Severity, true
		}
	}
	return "", false
}

// Tiers returns the ascending tier list for a scale. The returned slice
// is a copy.
func (t *Table) Tiers(scale Scale) []Tier {
	tiers := t.tiers[scale]
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Scales lists the configured scales in no particular order.
func (t *Table) Scales() []Scale {
	out := make([]Scale, 0, len(t.tiers))
	for s := range t.tiers {
		out = append(out, s)
	}
	return out
}

func parseSeverity(s string) models.Severity {
	switch s {
	case "low":
		return models.SeverityLow
	case "medium":
		return models.SeverityMedium
	case "high":
		return models.SeverityHigh
	case "critical":
		return models.SeverityCritical
	default:
		return ""
	}
}
