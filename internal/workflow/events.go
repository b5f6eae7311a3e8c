package workflow

import (
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
)

// The methods below let the Controller listen to run lifecycle events and
// mirror them as run-state indicators on the canvas.

func (c *Controller) StepStarted(s *pipeline.Step)    { c.indicate(s, canvas.StateRunning) }
func (c *Controller) StepCompleted(s *pipeline.Step)  { c.indicate(s, canvas.StateCompleted) }
func (c *Controller) StepPaused(s *pipeline.Step)     { c.indicate(s, canvas.StatePaused) }
func (c *Controller) StepRolledBack(s *pipeline.Step) { c.indicate(s, canvas.StateDormant) }

func (c *Controller) StepFailed(s *pipeline.Step, _ error) { c.indicate(s, canvas.StateFailed) }

func (c *Controller) indicate(s *pipeline.Step, st canvas.RunState) {
	shape, ok := c.index[s.ID()]
	if !ok {
		return
	}
	shape.SetRunState(st)
	c.Render()
}
