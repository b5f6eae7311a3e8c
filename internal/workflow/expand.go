package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
)

// ErrUnclassifiedEndpoint marks a connector that touched the rewritten shape
// through neither its output as source nor its input as target.
var ErrUnclassifiedEndpoint = errors.New("connector endpoint matches neither port of the rewritten shape")

// DroppedConnector is a connector that could not be re-attached.
type DroppedConnector struct {
	Edge pipeline.Edge
	Err  error
}

// RewriteError reports the connectors an expand or collapse had to drop. The
// rewrite itself is kept.
type RewriteError struct {
	StepID  pipeline.StepID
	Dropped []DroppedConnector
}

func (e *RewriteError) Error() string {
	parts := make([]string, len(e.Dropped))
	for i, d := range e.Dropped {
		parts[i] = fmt.Sprintf("%d->%d: %v", d.Edge.From, d.Edge.To, d.Err)
	}
	return fmt.Sprintf("rewriting step %d dropped %d connector(s): %s", e.StepID, len(e.Dropped), strings.Join(parts, "; "))
}

func (e *RewriteError) Unwrap() []error {
	errs := make([]error, len(e.Dropped))
	for i, d := range e.Dropped {
		errs[i] = d.Err
	}
	return errs
}

// Expand replaces a collapsed batch vertex with an expanded vertex at the
// same origin. The returned shape is non-nil whenever the swap happened, even
// if a RewriteError is returned alongside it.
func (c *Controller) Expand(v *canvas.Vertex) (*canvas.ExpandedVertex, error) {
	step := v.Step()
	if c.index[step.ID()] != canvas.Shape(v) {
		return nil, fmt.Errorf("%w: step %d", ErrUnknownShape, step.ID())
	}
	if !step.Info().Expandable {
		return nil, fmt.Errorf("%w: %s", ErrNotExpandable, step.Info().Name)
	}
	e, err := c.entry(step)
	if err != nil {
		return nil, err
	}
	at := v.Origin()
	ev := canvas.NewExpandedVertex(step, at.X, at.Y, e.Groups, e.Selection)
	ev.SetRunState(v.RunState())
	err = c.rewrite(v, ev)
	c.logger.Debug("Expanded step.", "step_id", step.ID(), "group_count", len(e.Groups))
	c.Render()
	return ev, err
}

// Collapse replaces an expanded vertex with a collapsed vertex at the same
// origin. Selection state stays in the cache.
func (c *Controller) Collapse(ev *canvas.ExpandedVertex) (*canvas.Vertex, error) {
	step := ev.Step()
	if c.index[step.ID()] != canvas.Shape(ev) {
		return nil, fmt.Errorf("%w: step %d", ErrUnknownShape, step.ID())
	}
	at := ev.Origin()
	v := canvas.NewVertex(step, at.X, at.Y)
	v.SetRunState(ev.RunState())
	err := c.rewrite(ev, v)
	c.logger.Debug("Collapsed step.", "step_id", step.ID())
	c.Render()
	return v, err
}

// rewrite swaps old for repl and re-attaches every connector that touched
// old: connectors leaving old's output leave repl's output, connectors
// entering old's input enter repl's input.
func (c *Controller) rewrite(old, repl canvas.Shape) error {
	affected := c.touching(old)
	for _, conn := range affected {
		c.unlink(conn)
	}

	for i, s := range c.shapes {
		if s == old {
			c.shapes[i] = repl
			break
		}
	}
	c.index[repl.Step().ID()] = repl
	if owningShape(c.selected) == old {
		c.selected = repl
	}

	var dropped []DroppedConnector
	for _, conn := range affected {
		src, dst := conn.Source(), conn.Target()
		switch {
		case src.Owner() == old && src.Direction() == canvas.Output:
			src = repl.OutputPort()
		case dst.Owner() == old && dst.Direction() == canvas.Input:
			dst = repl.InputPort()
		default:
			dropped = append(dropped, DroppedConnector{Edge: conn.Edge(), Err: ErrUnclassifiedEndpoint})
			continue
		}
		if _, err := c.link(src, dst); err != nil {
			dropped = append(dropped, DroppedConnector{Edge: conn.Edge(), Err: err})
		}
	}
	if len(dropped) == 0 {
		return nil
	}
	err := &RewriteError{StepID: repl.Step().ID(), Dropped: dropped}
	c.logger.Error("Connectors dropped during rewrite.", "step_id", repl.Step().ID(), "dropped_count", len(dropped), "error", err)
	c.notifier.RewriteFailed(err)
	return err
}
