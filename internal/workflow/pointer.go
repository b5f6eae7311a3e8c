package workflow

import (
	"fmt"

	"github.com/vk/pipecanvas/internal/canvas"
)

// PointerDown starts drawing a connector when pressed on an output port, or
// starts dragging when pressed on a shape body.
func (c *Controller) PointerDown(x, y float64) {
	if port := c.portAt(x, y); port != nil && port.Direction() == canvas.Output {
		c.mode = ModeDrawing
		c.anchor = port
		c.preview = canvas.Point{X: x, Y: y}
		c.logger.Debug("Drawing connector.", "step_id", port.Owner().Step().ID())
		c.Render()
		return
	}
	if s := c.bodyAt(x, y); s != nil {
		c.mode = ModeDragging
		c.selected = s
		s.Grab(x, y)
		c.Render()
	}
}

// PointerMove updates the preview line or the dragged shape.
func (c *Controller) PointerMove(x, y float64) {
	switch c.mode {
	case ModeDrawing:
		c.preview = canvas.Point{X: x, Y: y}
	case ModeDragging:
		s, ok := c.selected.(canvas.Shape)
		if !ok {
			return
		}
		s.DragTo(x, y)
	default:
		return
	}
	c.Render()
}

// PointerUp ends the current interaction. While drawing, a connector is
// created only when the release point is on an input port; anything else is
// reported as a rejected connection.
func (c *Controller) PointerUp(x, y float64) {
	mode, anchor := c.mode, c.anchor
	c.mode = ModeIdle
	c.anchor = nil
	if mode == ModeDrawing {
		target := c.portAt(x, y)
		if target == nil {
			err := fmt.Errorf("%w: released outside any port", ErrInvalidConnection)
			c.logger.Warn("Connection rejected.", "error", err)
			c.notifier.ConnectionRejected(err)
		} else {
			_, _ = c.Connect(anchor, target)
		}
	}
	c.Render()
}

// Click selects the topmost primitive under the pointer. Hitting an expand
// toggle expands or collapses its shape; hitting a checkbox toggles it.
func (c *Controller) Click(x, y float64) {
	hit := c.hitTest(x, y)
	c.selected = hit
	switch p := hit.(type) {
	case *canvas.ExpandToggle:
		switch owner := p.Owner().(type) {
		case *canvas.Vertex:
			if e, _ := c.Expand(owner); e != nil {
				c.selected = e
			}
		case *canvas.ExpandedVertex:
			if v, _ := c.Collapse(owner); v != nil {
				c.selected = v
			}
		}
	case *canvas.Checkbox:
		if err := c.ToggleCheckbox(p); err != nil {
			c.logger.Error("Failed to toggle detector selection.", "group", p.Group(), "index", p.Index(), "error", err)
		}
	}
	c.notifier.SelectionChanged(c.SelectedStep())
	c.Render()
}

// DoubleClick resolves the click first and asks for a new label only when a
// plain vertex ended up selected.
func (c *Controller) DoubleClick(x, y float64) {
	c.Click(x, y)
	if v, ok := c.selected.(*canvas.Vertex); ok {
		c.notifier.RenameRequested(v)
	}
}

// hitTest resolves a click in fixed precedence: expand toggles, vertices,
// connectors, checkboxes, small vertices, expanded vertices. Within a class
// the most recently added primitive wins.
func (c *Controller) hitTest(x, y float64) canvas.Primitive {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		if t := c.shapes[i].Toggle(); t != nil && t.Contains(x, y) {
			return t
		}
	}
	for i := len(c.shapes) - 1; i >= 0; i-- {
		if v, ok := c.shapes[i].(*canvas.Vertex); ok && v.Contains(x, y) {
			return v
		}
	}
	for i := len(c.connectors) - 1; i >= 0; i-- {
		if c.connectors[i].Contains(x, y) {
			return c.connectors[i]
		}
	}
	expanded := c.ExpandedVertices()
	for i := len(expanded) - 1; i >= 0; i-- {
		for _, cb := range expanded[i].Checkboxes() {
			if cb.Contains(x, y) {
				return cb
			}
		}
	}
	for i := len(expanded) - 1; i >= 0; i-- {
		for _, sv := range expanded[i].SmallVertices() {
			if sv.Contains(x, y) {
				return sv
			}
		}
	}
	for i := len(expanded) - 1; i >= 0; i-- {
		if expanded[i].Contains(x, y) {
			return expanded[i]
		}
	}
	return nil
}

func (c *Controller) portAt(x, y float64) *canvas.Port {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		s := c.shapes[i]
		for _, p := range []*canvas.Port{s.OutputPort(), s.InputPort()} {
			if p != nil && p.Contains(x, y) {
				return p
			}
		}
	}
	return nil
}

// bodyAt returns the topmost shape under the pointer, collapsed vertices
// first.
func (c *Controller) bodyAt(x, y float64) canvas.Shape {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		if v, ok := c.shapes[i].(*canvas.Vertex); ok && v.Contains(x, y) {
			return v
		}
	}
	for i := len(c.shapes) - 1; i >= 0; i-- {
		if e, ok := c.shapes[i].(*canvas.ExpandedVertex); ok && e.Contains(x, y) {
			return e
		}
	}
	return nil
}
