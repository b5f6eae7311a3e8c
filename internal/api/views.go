package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/runner"
	"github.com/vk/pipecanvas/internal/snapshot"
	"github.com/vk/pipecanvas/internal/workflow"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

type pluginView struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Kind       string `json:"kind"`
	Group      string `json:"group,omitempty"`
	MaxInputs  int    `json:"maxInputs"`
	MaxOutputs int    `json:"maxOutputs"`
	Expandable bool   `json:"expandable"`
}

func newPluginView(i plugin.Info) pluginView {
	return pluginView{
		Name:       i.Name,
		Title:      i.Title,
		Kind:       i.Kind.String(),
		Group:      i.Group,
		MaxInputs:  i.MaxInputs,
		MaxOutputs: i.MaxOutputs,
		Expandable: i.Expandable,
	}
}

type stepView struct {
	ID        pipeline.StepID            `json:"id"`
	Type      string                     `json:"type"`
	Label     string                     `json:"label"`
	Kind      string                     `json:"kind"`
	Status    string                     `json:"status"`
	Position  canvas.Point               `json:"position"`
	Expanded  bool                       `json:"expanded"`
	Rows      int                        `json:"rows"`
	Detectors []string                   `json:"detectors,omitempty"`
	Options   map[string]json.RawMessage `json:"options,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

func newStepView(sh canvas.Shape) stepView {
	s := sh.Step()
	v := stepView{
		ID:       s.ID(),
		Type:     s.Info().Name,
		Label:    s.Label(),
		Kind:     s.Kind().String(),
		Status:   s.Status().String(),
		Position: sh.Origin(),
		Rows:     s.Output().Len(),
	}
	_, v.Expanded = sh.(*canvas.ExpandedVertex)
	for _, d := range s.Detectors() {
		v.Detectors = append(v.Detectors, d.Info().Name)
	}
	v.Options = optionsView(s.Plugin().Options())
	if err := s.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}

// optionsView renders the current option values as JSON. Values that cannot
// be marshalled are left out.
func optionsView(opts *plugin.Options) map[string]json.RawMessage {
	if opts == nil || len(opts.Names()) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(opts.Names()))
	for _, name := range opts.Names() {
		val, err := opts.Get(name)
		if err != nil || !val.IsWhollyKnown() {
			continue
		}
		raw, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			continue
		}
		out[name] = raw
	}
	return out
}

// optionValues decodes JSON option values into cty values of their implied
// type. Conversion to each option's declared type happens on assignment.
func optionValues(raw map[string]json.RawMessage) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(raw))
	for name, msg := range raw {
		ty, err := ctyjson.ImpliedType(msg)
		if err != nil {
			return nil, fmt.Errorf("%w: option %q: %v", plugin.ErrInvalidOption, name, err)
		}
		val, err := ctyjson.Unmarshal(msg, ty)
		if err != nil {
			return nil, fmt.Errorf("%w: option %q: %v", plugin.ErrInvalidOption, name, err)
		}
		out[name] = val
	}
	return out, nil
}

type outcomeView struct {
	OK      bool      `json:"ok"`
	Outcome string    `json:"outcome"`
	RunID   string    `json:"runId,omitempty"`
	Paused  *stepView `json:"paused,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// stepID parses the :id path parameter.
func stepID(c *gin.Context) (pipeline.StepID, bool) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid step id"})
		return 0, false
	}
	return pipeline.StepID(n), true
}

// fail writes err with the status that matches its kind.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"ok": false, "error": err.Error()})
}

func statusFor(err error) int {
	var rewrite *workflow.RewriteError
	var stepErr *runner.StepError
	switch {
	case errors.Is(err, workflow.ErrUnknownShape),
		errors.Is(err, pipeline.ErrStepNotFound),
		errors.Is(err, pipeline.ErrEdgeNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidConnection),
		errors.Is(err, pipeline.ErrCycle),
		errors.Is(err, pipeline.ErrDuplicateEdge),
		errors.Is(err, pipeline.ErrSelfEdge),
		errors.Is(err, pipeline.ErrArity),
		errors.Is(err, runner.ErrAwaitingReview),
		errors.Is(err, runner.ErrNotPaused),
		errors.Is(err, workflow.ErrNotExpandable),
		errors.As(err, &rewrite):
		return http.StatusConflict
	case errors.Is(err, plugin.ErrUnknownPlugin),
		errors.Is(err, plugin.ErrUnknownOption),
		errors.Is(err, plugin.ErrInvalidOption),
		errors.Is(err, snapshot.ErrInvalid):
		return http.StatusBadRequest
	case errors.As(err, &stepErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
