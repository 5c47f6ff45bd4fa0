package api

import (
	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(alerts []models.Alert) FeatureCollection {
	features := make([]Feature, 0, len(alerts))

	for i := range alerts {
		a := &alerts[i]
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{a.Longitude, a.Latitude},
			},
			Properties: map[string]any{
				"id":         a.ID,
				"category":   a.Category,
				"severity":   a.Severity,
				"title":      a.Title,
				"message":    a.Message,
				"is_active":  a.IsActive,
				"created_at": a.CreatedAt,
			},
		}
		if a.ExpiresAt != nil {
			f.Properties["expires_at"] = *a.ExpiresAt
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
