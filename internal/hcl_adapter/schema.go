package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Steps  []*Step  `hcl:"step,block"`
	Remain hcl.Body `hcl:",remain"`
}

// Step is the HCL schema of a `step "<type>" "<name>"` block.
type Step struct {
	Type      string         `hcl:"type,label"`
	Name      string         `hcl:"name,label"`
	Label     *string        `hcl:"label,optional"`
	Position  []float64      `hcl:"position,optional"`
	Inputs    []string       `hcl:"inputs,optional"`
	Detectors []string       `hcl:"detectors,optional"`
	Expanded  hcl.Expression `hcl:"expanded,optional"`
	Options   *OptionsBlock  `hcl:"options,block"`
}

// OptionsBlock holds the free-form plugin options of a step.
type OptionsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
