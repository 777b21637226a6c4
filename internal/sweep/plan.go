package sweep

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is a sweep description loaded from a YAML file.
type Plan struct {
	Name      string  `yaml:"name"`
	Parameter string  `yaml:"parameter"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Points    int     `yaml:"points"`
	LogScale  bool    `yaml:"log_scale"`
	Seed      uint64  `yaml:"seed"`
}

// LoadPlan reads and validates a sweep plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep plan: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse sweep plan %s: %w", path, err)
	}

	if plan.Parameter == "" {
		return nil, fmt.Errorf("sweep plan %s: parameter is required", path)
	}
	if plan.Points == 0 {
		plan.Points = 10
	}
	if plan.Points < 2 {
		return nil, fmt.Errorf("sweep plan %s: points must be at least 2, got %d", path, plan.Points)
	}
	if !(plan.Max > plan.Min) {
		return nil, fmt.Errorf("sweep plan %s: range [%g, %g] is empty", path, plan.Min, plan.Max)
	}
	if plan.Name == "" {
		plan.Name = plan.Parameter
	}

	return &plan, nil
}
