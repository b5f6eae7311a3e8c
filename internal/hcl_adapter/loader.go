// Package hcl_adapter loads pipeline definitions written in HCL into the
// format-agnostic config model.
//
// A definition is a set of step blocks:
//
//	step "csv_reader" "orders" {
//	  label    = "Orders"
//	  position = [50, 50]
//	  options {
//	    path = env("ORDERS_CSV", "orders.csv")
//	  }
//	}
//
//	step "fast_detect" "scan" {
//	  inputs    = ["orders"]
//	  detectors = ["levenshtein"]
//	  expanded  = true
//	}
package hcl_adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/pipecanvas/internal/config"
	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/fsutil"
)

// ErrNoDefinitions is returned when no .hcl file is found under the given
// paths.
var ErrNoDefinitions = errors.New("no .hcl pipeline definitions found")

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their steps, in file
// then block order, into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("%w in %v", ErrNoDefinitions, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext()
	model := &config.Model{}

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, step := range root.Steps {
			s, err := l.translateStep(ctx, step, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Steps = append(model.Steps, s)
		}
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline definition: %w", err)
	}
	logger.Debug("HCL loading complete.", "steps", len(model.Steps))
	return model, nil
}
