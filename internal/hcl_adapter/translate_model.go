// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipecanvas/internal/config"
	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// translateStep converts the HCL-specific step schema into the agnostic model.
func (l *Loader) translateStep(ctx context.Context, s *Step, evalCtx *hcl.EvalContext) (*config.Step, error) {
	logger := ctxlog.FromContext(ctx).With("step_type", s.Type, "step_name", s.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL step to internal config model.")

	out := &config.Step{
		Type:      s.Type,
		Name:      s.Name,
		Inputs:    s.Inputs,
		Detectors: s.Detectors,
	}
	if s.Label != nil {
		out.Label = *s.Label
	}

	switch len(s.Position) {
	case 0:
	case 2:
		out.Position = &config.Position{X: s.Position[0], Y: s.Position[1]}
	default:
		return nil, fmt.Errorf("step '%s': position must be [x, y], got %d values", s.Name, len(s.Position))
	}

	if isExprDefined(ctx, s.Expanded, "expanded") {
		val, diags := s.Expanded.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step '%s': invalid expanded: %w", s.Name, diags)
		}
		if err := gocty.FromCtyValue(val, &out.Expanded); err != nil {
			return nil, fmt.Errorf("step '%s': expanded must be a bool: %w", s.Name, err)
		}
	}

	opts, err := l.extractOptions(ctx, s.Options, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("step '%s': %w", s.Name, err)
	}
	out.Options = opts
	return out, nil
}

// extractOptions evaluates every attribute of an options block.
func (l *Loader) extractOptions(ctx context.Context, block *OptionsBlock, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	if block == nil || block.Body == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid options block: %w", diags)
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]cty.Value, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid value for option '%s': %w", name, diags)
		}
		ctxlog.FromContext(ctx).Debug("Evaluated option.", "option", name, "type", val.Type().FriendlyName())
		out[name] = val
	}
	return out, nil
}
