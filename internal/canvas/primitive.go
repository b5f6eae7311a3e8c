package canvas

import "github.com/vk/pipecanvas/internal/pipeline"

// RunState is the run-state indicator painted on a step's shape.
type RunState string

const (
	StateDormant   RunState = "dormant"
	StateRunning   RunState = "running"
	StatePaused    RunState = "paused"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// Primitive is anything on the canvas that can be hit and painted.
type Primitive interface {
	Bounds() Rect
	Contains(x, y float64) bool
	// Render paints the primitive. selected only affects emphasis.
	Render(s Surface, selected Primitive)
}

// Shape is a primitive that represents a whole pipeline step: either a
// collapsed Vertex or an ExpandedVertex.
type Shape interface {
	Primitive
	Step() *pipeline.Step
	Origin() Point
	Size() (w, h float64)
	MoveTo(x, y float64)
	// Grab records the offset between the pointer and the origin.
	Grab(x, y float64)
	// DragTo moves the shape to the pointer minus the grab offset.
	DragTo(x, y float64)
	// InputPort and OutputPort are nil when the step has no such port.
	InputPort() *Port
	OutputPort() *Port
	// Toggle is nil when the step cannot be expanded.
	Toggle() *ExpandToggle
	RunState() RunState
	SetRunState(RunState)
}

// shape carries the state common to Vertex and ExpandedVertex.
type shape struct {
	step   *pipeline.Step
	origin Point
	grab   Point
	state  RunState
	in     *Port
	out    *Port
	toggle *ExpandToggle
}

func (s *shape) Step() *pipeline.Step    { return s.step }
func (s *shape) Origin() Point           { return s.origin }
func (s *shape) MoveTo(x, y float64)     { s.origin = Point{X: x, Y: y} }
func (s *shape) Grab(x, y float64)       { s.grab = Point{X: x - s.origin.X, Y: y - s.origin.Y} }
func (s *shape) DragTo(x, y float64)     { s.MoveTo(x-s.grab.X, y-s.grab.Y) }
func (s *shape) InputPort() *Port        { return s.in }
func (s *shape) OutputPort() *Port       { return s.out }
func (s *shape) Toggle() *ExpandToggle   { return s.toggle }
func (s *shape) RunState() RunState      { return s.state }
func (s *shape) SetRunState(st RunState) { s.state = st }

// attach creates the ports and toggle the step's plugin calls for.
func (s *shape) attach(owner Shape) {
	info := s.step.Info()
	if info.AcceptsInput() {
		s.in = &Port{owner: owner, dir: Input}
	}
	if info.ProducesOutput() {
		s.out = &Port{owner: owner, dir: Output}
	}
	if info.Expandable {
		s.toggle = &ExpandToggle{owner: owner}
	}
}

// renderChrome paints the parts shared by both step shapes.
func (s *shape) renderChrome(surface Surface, selected Primitive) {
	if s.in != nil {
		s.in.Render(surface, selected)
	}
	if s.out != nil {
		s.out.Render(surface, selected)
	}
	if s.toggle != nil {
		s.toggle.Render(surface, selected)
	}
	surface.Indicator(Point{X: s.origin.X + 8, Y: s.origin.Y + 8}, s.state)
}

func styleFor(p, selected Primitive) Style {
	if selected != nil && p == selected {
		return StyleSelected
	}
	return StyleNormal
}
