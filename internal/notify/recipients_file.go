package notify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

type recipientEntry struct {
	Name      string    `yaml:"name"`
	Email     string    `yaml:"email"`
	Phone     string    `yaml:"phone"`
	PushToken string    `yaml:"push_token"`
	Channels  []Channel `yaml:"channels"`
	Latitude  *float64  `yaml:"latitude"`
	Longitude *float64  `yaml:"longitude"`
}

type recipientsFile struct {
	Recipients []recipientEntry `yaml:"recipients"`
}

// LoadRecipientsFile reads the recipients a fresh registry is seeded with.
// A recipient has a home location only when both coordinates are present.
func LoadRecipientsFile(path string) ([]Recipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipients file: %w", err)
	}

	var file recipientsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing recipients file %s: %w", path, err)
	}

	out := make([]Recipient, 0, len(file.Recipients))
	for i, e := range file.Recipients {
		if (e.Latitude == nil) != (e.Longitude == nil) {
			return nil, fmt.Errorf("recipient %d (%s): latitude and longitude must be set together", i, e.Name)
		}
		rec := Recipient{
			Name:      e.Name,
			Email:     e.Email,
			Phone:     e.Phone,
			PushToken: e.PushToken,
			Channels:  e.Channels,
		}
		if e.Latitude != nil {
			rec.HomeLocation = &models.Coordinates{Latitude: *e.Latitude, Longitude: *e.Longitude}
		}
		out = append(out, rec)
	}
	return out, nil
}
