package canvas

import "github.com/vk/pipecanvas/internal/pipeline"

// Vertex is the collapsed representation of a step.
type Vertex struct {
	shape
}

// NewVertex creates a vertex for step with its origin at (x, y).
func NewVertex(step *pipeline.Step, x, y float64) *Vertex {
	v := &Vertex{shape: shape{step: step, origin: Point{X: x, Y: y}, state: StateDormant}}
	v.attach(v)
	return v
}

func (v *Vertex) Size() (float64, float64) { return VertexWidth, VertexHeight }

func (v *Vertex) Bounds() Rect {
	return Rect{X: v.origin.X, Y: v.origin.Y, W: VertexWidth, H: VertexHeight}
}

func (v *Vertex) Contains(x, y float64) bool {
	return v.Bounds().ContainsStrict(x, y)
}

func (v *Vertex) Render(s Surface, selected Primitive) {
	s.Box(v.Bounds(), styleFor(v, selected))
	s.Text(Point{X: v.origin.X + 20, Y: v.origin.Y + VertexHeight/2}, v.step.Label())
	v.renderChrome(s, selected)
}

// ExpandToggle is the expand/collapse affordance in a shape's top-right corner.
type ExpandToggle struct {
	owner Shape
}

// Owner returns the shape the toggle belongs to.
func (t *ExpandToggle) Owner() Shape { return t.owner }

func (t *ExpandToggle) Bounds() Rect {
	o := t.owner.Origin()
	w, _ := t.owner.Size()
	return Rect{X: o.X + w - 25, Y: o.Y + 15, W: ToggleSize, H: ToggleSize}
}

func (t *ExpandToggle) Contains(x, y float64) bool {
	return t.Bounds().ContainsInclusive(x, y)
}

func (t *ExpandToggle) Render(s Surface, selected Primitive) {
	b := t.Bounds()
	s.Box(b, styleFor(t, selected))
	glyph := "+"
	if _, expanded := t.owner.(*ExpandedVertex); expanded {
		glyph = "-"
	}
	s.Text(Point{X: b.X + 4, Y: b.Y + b.H - 3}, glyph)
}
