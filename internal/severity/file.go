package severity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a threshold table from a YAML file. Scales missing from
// the file keep their built-in cutoffs, so a file only needs the scales it
// overrides:
//
//	flood:
//	  medium: 0.4
//	  high: 0.6
//	wind:
//	  high: 20
//	  critical: 30
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading threshold file: %w", err)
	}

	var overrides map[Scale]map[string]float64
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing threshold file %s: %w", path, err)
	}

	raw := DefaultCutoffs()
	for scale, cutoffs := range overrides {
		raw[scale] = cutoffs
	}

	table, err := New(raw)
	if err != nil {
		return nil, fmt.Errorf("threshold file %s: %w", path, err)
	}
	return table, nil
}
