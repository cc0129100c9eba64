package binding

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables is the content of a bindings seed file.
//
//	buttons:
//	  - id: 1
//	    name: Hall lights
//	    left:  {target_kind: device, target: light-hall, attribute: onoff, on_text: "On", off_text: "Off"}
//	    right: {target_kind: device, target: light-hall, attribute: dim, dim_change: "+10"}
//	displays:
//	  - id: 10
//	    items:
//	      - {device: sensor-hall, attribute: measure_temperature, label: Hall, unit: "°C"}
type Tables struct {
	Buttons  []ButtonConfig  `yaml:"buttons"`
	Displays []DisplayConfig `yaml:"displays"`
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("reading bindings file: %w", err)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing bindings file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every row and rejects duplicate ids, reporting all problems.
func (t *Tables) Validate() error {
	var errs []error

	seenButtons := make(map[int64]bool, len(t.Buttons))
	for i := range t.Buttons {
		c := &t.Buttons[i]
		if err := ValidateButtonConfig(c); err != nil {
			errs = append(errs, err)
		}
		if seenButtons[c.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate button config id %d", ErrInvalidConfig, c.ID))
		}
		seenButtons[c.ID] = true
	}

	seenDisplays := make(map[int64]bool, len(t.Displays))
	for i := range t.Displays {
		c := &t.Displays[i]
		if err := ValidateDisplayConfig(c); err != nil {
			errs = append(errs, err)
		}
		if seenDisplays[c.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate display config id %d", ErrInvalidConfig, c.ID))
		}
		seenDisplays[c.ID] = true
	}

	return errors.Join(errs...)
}

// Seed writes every row of t into repo, replacing rows with the same id.
func Seed(ctx context.Context, repo Repository, t *Tables) error {
	for i := range t.Buttons {
		if err := repo.SaveButtonConfig(ctx, &t.Buttons[i]); err != nil {
			return err
		}
	}
	for i := range t.Displays {
		if err := repo.SaveDisplayConfig(ctx, &t.Displays[i]); err != nil {
			return err
		}
	}
	return nil
}
