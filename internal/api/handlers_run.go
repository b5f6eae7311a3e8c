package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/runner"
	"github.com/vk/pipecanvas/internal/table"
)

func (s *Server) run(c *gin.Context) {
	out, err := s.coord.Run(c.Request.Context())
	s.writeOutcome(c, out, err)
}

func (s *Server) next(c *gin.Context) {
	out, err := s.coord.Next(c.Request.Context())
	s.writeOutcome(c, out, err)
}

type resumeRequest struct {
	Changes *table.Table `json:"changes"`
}

func (s *Server) resume(c *gin.Context) {
	var req resumeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
	}
	out, err := s.coord.Resume(c.Request.Context(), req.Changes)
	s.writeOutcome(c, out, err)
}

func (s *Server) reset(c *gin.Context) {
	if err := s.coord.Reset(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) rollback(c *gin.Context) {
	id, ok := stepID(c)
	if !ok {
		return
	}
	if err := s.coord.Rollback(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	s.writeStep(c, id)
}

func (s *Server) stepOutput(c *gin.Context) {
	step, ok := s.step(c)
	if !ok {
		return
	}
	if step.Output() == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": fmt.Sprintf("step %d has no output", step.ID())})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "table": step.Output()})
}

// stepDetections returns the findings a paused step is waiting on, or for a
// batch step the findings of each selected detector keyed by plugin name.
func (s *Server) stepDetections(c *gin.Context) {
	step, ok := s.step(c)
	if !ok {
		return
	}
	if subs := step.Detectors(); len(subs) > 0 {
		found := make(map[string]*table.Table, len(subs))
		for _, sub := range subs {
			if sub.Output() != nil {
				found[sub.Info().Name] = sub.Output()
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "detectors": found})
		return
	}
	if step.Detections() == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": fmt.Sprintf("step %d has no detections", step.ID())})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "table": step.Detections()})
}

func (s *Server) step(c *gin.Context) (*pipeline.Step, bool) {
	id, ok := stepID(c)
	if !ok {
		return nil, false
	}
	step, found := s.ctrl.Pipeline().Step(id)
	if !found {
		fail(c, fmt.Errorf("%w: %d", pipeline.ErrStepNotFound, id))
		return nil, false
	}
	return step, true
}

func (s *Server) writeOutcome(c *gin.Context, out runner.Outcome, err error) {
	v := outcomeView{OK: err == nil, Outcome: out.String(), RunID: s.coord.RunID()}
	if p := s.coord.Paused(); p != nil {
		if sh, ok := s.ctrl.Shape(p.ID()); ok {
			pv := newStepView(sh)
			v.Paused = &pv
		}
	}
	if err == nil {
		c.JSON(http.StatusOK, v)
		return
	}
	v.Error = err.Error()
	status := statusFor(err)
	var stepErr *runner.StepError
	if errors.As(err, &stepErr) {
		s.logger.Warn("Pipeline run stopped on a failed step.", "step_id", stepErr.StepID, "error", stepErr.Err)
	}
	c.JSON(status, v)
}
