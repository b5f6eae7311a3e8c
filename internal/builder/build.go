package builder

import (
	"context"
	"fmt"

	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/config"
	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/workflow"
)

// Build adds every step of model to ctrl. It returns the step id assigned to
// each step name.
func Build(ctx context.Context, model *config.Model, ctrl *workflow.Controller) (map[string]pipeline.StepID, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting pipeline construction.")

	if err := model.Validate(); err != nil {
		return nil, err
	}

	ids, err := createSteps(ctx, model, ctrl)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: Step creation complete.", "step_count", len(ids))

	if err := linkSteps(ctx, model, ctrl, ids); err != nil {
		return nil, err
	}
	logger.Debug("Build: Step linking complete.")

	if err := selectDetectors(ctx, model, ctrl, ids); err != nil {
		return nil, err
	}

	if err := ctrl.Pipeline().DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating pipeline graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	logger.Info("Build: Pipeline construction successful.", "step_count", len(ids))
	return ids, nil
}

// createSteps instantiates and places one step per definition.
func createSteps(ctx context.Context, model *config.Model, ctrl *workflow.Controller) (map[string]pipeline.StepID, error) {
	logger := ctxlog.FromContext(ctx)
	ids := make(map[string]pipeline.StepID, len(model.Steps))

	for _, s := range model.Steps {
		p, err := ctrl.Registry().New(s.Type)
		if err != nil {
			return nil, fmt.Errorf("step '%s': %w", s.Name, err)
		}
		opts := p.Options()
		for name, val := range s.Options {
			if err := opts.Set(name, val); err != nil {
				return nil, fmt.Errorf("step '%s': %w", s.Name, err)
			}
		}

		step, err := pipeline.NewStep(ctrl.Pipeline().NextID(), s.Label, p)
		if err != nil {
			return nil, fmt.Errorf("step '%s': %w", s.Name, err)
		}
		if s.Position != nil {
			_, err = ctrl.Place(step, s.Position.X, s.Position.Y)
		} else {
			_, err = ctrl.Add(step)
		}
		if err != nil {
			return nil, fmt.Errorf("step '%s': %w", s.Name, err)
		}
		ids[s.Name] = step.ID()
		logger.Debug("Created step.", "name", s.Name, "type", s.Type, "step_id", step.ID())
	}
	return ids, nil
}

// linkSteps creates one connector per declared input, in declaration order.
func linkSteps(ctx context.Context, model *config.Model, ctrl *workflow.Controller, ids map[string]pipeline.StepID) error {
	for _, s := range model.Steps {
		logger := ctxlog.FromContext(ctx).With("step", s.Name)
		for _, in := range s.Inputs {
			logger.Debug("Linking input.", "from", in)
			if _, err := ctrl.ConnectSteps(ids[in], ids[s.Name]); err != nil {
				return fmt.Errorf("error linking '%s' to '%s': %w", in, s.Name, err)
			}
		}
	}
	return nil
}

// selectDetectors applies detector choices and expansion to batch steps.
func selectDetectors(ctx context.Context, model *config.Model, ctrl *workflow.Controller, ids map[string]pipeline.StepID) error {
	for _, s := range model.Steps {
		id := ids[s.Name]
		if len(s.Detectors) > 0 {
			if err := ctrl.SelectDetectors(id, s.Detectors...); err != nil {
				return fmt.Errorf("step '%s': %w", s.Name, err)
			}
			ctxlog.FromContext(ctx).Debug("Selected detectors.", "step", s.Name, "detectors", s.Detectors)
		}
		if !s.Expanded {
			continue
		}
		shape, _ := ctrl.Shape(id)
		v, ok := shape.(*canvas.Vertex)
		if !ok {
			continue
		}
		if _, err := ctrl.Expand(v); err != nil {
			return fmt.Errorf("step '%s': %w", s.Name, err)
		}
	}
	return nil
}
