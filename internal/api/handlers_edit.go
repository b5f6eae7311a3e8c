package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/snapshot"
	"github.com/vk/pipecanvas/internal/workflow"
)

func (s *Server) listPlugins(c *gin.Context) {
	reg := s.ctrl.Registry()
	out := make([]pluginView, 0)
	for _, name := range reg.Names() {
		info, _ := reg.Info(name)
		out = append(out, newPluginView(info))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "plugins": out})
}

func (s *Server) listSteps(c *gin.Context) {
	shapes := s.ctrl.Shapes()
	out := make([]stepView, 0, len(shapes))
	for _, sh := range shapes {
		out = append(out, newStepView(sh))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "steps": out})
}

type addStepRequest struct {
	Type     string        `json:"type" binding:"required"`
	Label    string        `json:"label"`
	Position *canvas.Point `json:"position"`
}

func (s *Server) addStep(c *gin.Context) {
	var req addStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	v, err := s.ctrl.AddStep(req.Type)
	if err != nil {
		fail(c, err)
		return
	}
	id := v.Step().ID()
	if req.Label != "" {
		_ = s.ctrl.Rename(id, req.Label)
	}
	if req.Position != nil {
		_ = s.ctrl.Move(id, req.Position.X, req.Position.Y)
	}
	s.logger.Info("Step added.", "step_id", id, "type", req.Type)
	c.JSON(http.StatusCreated, gin.H{"ok": true, "step": newStepView(v)})
}

type updateStepRequest struct {
	Label    *string                    `json:"label"`
	Position *canvas.Point              `json:"position"`
	Options  map[string]json.RawMessage `json:"options"`
}

func (s *Server) updateStep(c *gin.Context) {
	id, ok := stepID(c)
	if !ok {
		return
	}
	var req updateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if len(req.Options) > 0 {
		vals, err := optionValues(req.Options)
		if err != nil {
			fail(c, err)
			return
		}
		if err := s.ctrl.SetOptions(id, vals); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Label != nil {
		if err := s.ctrl.Rename(id, strings.TrimSpace(*req.Label)); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Position != nil {
		if err := s.ctrl.Move(id, req.Position.X, req.Position.Y); err != nil {
			fail(c, err)
			return
		}
	}
	s.writeStep(c, id)
}

func (s *Server) removeStep(c *gin.Context) {
	id, ok := stepID(c)
	if !ok {
		return
	}
	if err := s.ctrl.RemoveStep(id); err != nil {
		fail(c, err)
		return
	}
	s.logger.Info("Step removed.", "step_id", id)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) expandStep(c *gin.Context) {
	id, ok := stepID(c)
	if !ok {
		return
	}
	sh, found := s.ctrl.Shape(id)
	if !found {
		fail(c, fmt.Errorf("%w: step %d", workflow.ErrUnknownShape, id))
		return
	}
	v, isVertex := sh.(*canvas.Vertex)
	if !isVertex {
		c.JSON(http.StatusOK, gin.H{"ok": true, "step": newStepView(sh)})
		return
	}
	ev, err := s.ctrl.Expand(v)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "step": newStepView(ev)})
}

func (s *Server) collapseStep(c *gin.Context) {
	id, ok := stepID(c)
	if !ok {
		return
	}
	sh, found := s.ctrl.Shape(id)
	if !found {
		fail(c, fmt.Errorf("%w: step %d", workflow.ErrUnknownShape, id))
		return
	}
	ev, isExpanded := sh.(*canvas.ExpandedVertex)
	if !isExpanded {
		c.JSON(http.StatusOK, gin.H{"ok": true, "step": newStepView(sh)})
		return
	}
	v, err := s.ctrl.Collapse(ev)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "step": newStepView(v)})
}

type detectorsRequest struct {
	Detectors []string `json:"detectors"`
}

func (s *Server) selectDetectors(c *gin.Context) {
	id, ok := stepID(c)
	if !ok {
		return
	}
	var req detectorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := s.ctrl.SelectDetectors(id, req.Detectors...); err != nil {
		fail(c, err)
		return
	}
	s.writeStep(c, id)
}

type connectorRequest struct {
	From pipeline.StepID `json:"from" binding:"required"`
	To   pipeline.StepID `json:"to" binding:"required"`
}

func (s *Server) connect(c *gin.Context) {
	var req connectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	conn, err := s.ctrl.ConnectSteps(req.From, req.To)
	if err != nil {
		fail(c, err)
		return
	}
	e := conn.Edge()
	c.JSON(http.StatusCreated, gin.H{"ok": true, "connector": gin.H{"from": e.From, "to": e.To}})
}

func (s *Server) disconnect(c *gin.Context) {
	var req connectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	for _, conn := range s.ctrl.Connectors() {
		if conn.Edge() != (pipeline.Edge{From: req.From, To: req.To}) {
			continue
		}
		if err := s.ctrl.RemoveConnector(conn); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	fail(c, fmt.Errorf("%w: %d -> %d", pipeline.ErrEdgeNotFound, req.From, req.To))
}

type pointerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// pointer feeds one pointer gesture to the controller and reports the
// resulting mode, selection and notifications.
func (s *Server) pointer(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	switch c.Param("action") {
	case "down":
		s.ctrl.PointerDown(req.X, req.Y)
	case "move":
		s.ctrl.PointerMove(req.X, req.Y)
	case "up":
		s.ctrl.PointerUp(req.X, req.Y)
	case "click":
		s.ctrl.Click(req.X, req.Y)
	case "dblclick":
		s.ctrl.DoubleClick(req.X, req.Y)
	default:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": fmt.Sprintf("unknown pointer action %q", c.Param("action"))})
		return
	}

	resp := gin.H{"ok": true, "mode": s.ctrl.Mode().String()}
	if step := s.ctrl.SelectedStep(); step != nil {
		if sh, ok := s.ctrl.Shape(step.ID()); ok {
			resp["selected"] = newStepView(sh)
		} else {
			resp["selectedDetector"] = gin.H{"id": step.ID(), "type": step.Info().Name, "label": step.Label()}
		}
	}
	if s.notes.rejected != nil {
		resp["rejected"] = s.notes.rejected.Error()
	}
	if s.notes.rewrite != nil {
		resp["rewriteError"] = s.notes.rewrite.Error()
	}
	if s.notes.rename != nil {
		resp["renameRequested"] = s.notes.rename.Step().ID()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) canvas(c *gin.Context) {
	rec, ok := s.ctrl.Surface().(*canvas.Recorder)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"ok": false, "error": "canvas surface does not record drawing operations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "frame": rec.Frames(), "ops": rec.Ops()})
}

func (s *Server) getSnapshot(c *gin.Context) {
	format := snapshotFormat(c)
	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, s.ctrl.Snapshot(), format); err != nil {
		fail(c, err)
		return
	}
	contentType := "application/json"
	if format == snapshot.YAML {
		contentType = "application/yaml"
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) putSnapshot(c *gin.Context) {
	g, err := snapshot.Decode(c.Request.Body, snapshotFormat(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := s.ctrl.Load(g); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "vertices": len(g.Vertices), "connectors": len(g.Connectors)})
}

// snapshotFormat reads ?format= first and falls back to the Content-Type.
func snapshotFormat(c *gin.Context) snapshot.Format {
	if f := c.Query("format"); f != "" {
		if strings.EqualFold(f, string(snapshot.YAML)) || strings.EqualFold(f, "yml") {
			return snapshot.YAML
		}
		return snapshot.JSON
	}
	if strings.Contains(c.ContentType(), "yaml") {
		return snapshot.YAML
	}
	return snapshot.JSON
}

func (s *Server) writeStep(c *gin.Context, id pipeline.StepID) {
	sh, ok := s.ctrl.Shape(id)
	if !ok {
		fail(c, fmt.Errorf("%w: step %d", workflow.ErrUnknownShape, id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "step": newStepView(sh)})
}
