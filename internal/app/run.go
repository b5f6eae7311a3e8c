package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/pipecanvas/internal/runner"
	"github.com/vk/pipecanvas/internal/snapshot"
	"github.com/vk/pipecanvas/internal/workflow"
)

// runOnce loads the pipeline, runs it to completion or to the first review
// it cannot approve, and optionally writes the editor snapshot.
func (a *App) runOnce(ctx context.Context) error {
	a.logger.Debug("App.runOnce method started.")
	ctrl, coord, err := a.newEditor(ctx)
	if err != nil {
		return err
	}

	if ctrl.Pipeline().Len() == 0 {
		a.logger.Warn("No steps found in pipeline, execution not required.")
	} else {
		out, err := coord.Run(ctx)
		for err == nil && out == runner.OutcomePaused && a.config.AutoApprove {
			p := coord.Paused()
			a.logger.Info("Auto-approving paused step.", "step_id", p.ID(), "label", p.Label(), "detections", p.Detections().Len())
			out, err = coord.Resume(ctx, nil)
		}
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		if out == runner.OutcomePaused {
			p := coord.Paused()
			a.logger.Warn("Run stopped at a step awaiting review. Use -auto-approve or the editor API to continue.",
				"step_id", p.ID(),
				"label", p.Label(),
				"detections", p.Detections().Len(),
			)
		}
	}

	if a.config.SnapshotOut != "" {
		if err := a.writeSnapshot(ctrl); err != nil {
			return err
		}
	}
	a.logger.Debug("App.runOnce method finished.")
	return nil
}

func (a *App) writeSnapshot(ctrl *workflow.Controller) error {
	path := a.config.SnapshotOut
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if err := snapshot.Encode(f, ctrl.Snapshot(), snapshot.FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	a.logger.Info("💾 Snapshot written.", "path", path)
	return nil
}
