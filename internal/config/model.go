package config

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a pipeline
// definition.
type Model struct {
	Steps []*Step
}

// Step is the format-agnostic representation of a `step` block.
type Step struct {
	// Type is the plugin name, e.g. "csv_reader".
	Type string
	// Name identifies the step within the definition. Inputs refer to it.
	Name  string
	Label string
	// Position is the vertex origin; nil lets the editor pick a free spot.
	Position *Position
	// Inputs are the names of upstream steps, in the order their tables are
	// handed to the plugin.
	Inputs []string
	// Detectors are the plugin names selected on a batch-detector step.
	Detectors []string
	Expanded  bool
	Options   map[string]cty.Value
}

// Position is a vertex origin in canvas space.
type Position struct {
	X, Y float64
}

// Step returns the step with the given name.
func (m *Model) Step(name string) (*Step, bool) {
	for _, s := range m.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Validate checks that names are unique and inputs resolve. Every problem is
// reported.
func (m *Model) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(m.Steps))
	for _, s := range m.Steps {
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("step '%s' is defined more than once", s.Name))
		}
		seen[s.Name] = true
	}
	for _, s := range m.Steps {
		for _, in := range s.Inputs {
			if !seen[in] {
				errs = append(errs, fmt.Errorf("step '%s' reads from non-existent step '%s'", s.Name, in))
			}
		}
	}
	return errors.Join(errs...)
}
