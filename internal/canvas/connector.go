package canvas

import (
	"math"

	"github.com/vk/pipecanvas/internal/pipeline"
)

// Connector is a directed visual edge from an output port to an input port.
type Connector struct {
	source *Port
	target *Port
}

// NewConnector links source to target. Direction checks belong to the caller.
func NewConnector(source, target *Port) *Connector {
	return &Connector{source: source, target: target}
}

func (c *Connector) Source() *Port { return c.source }
func (c *Connector) Target() *Port { return c.target }

// Edge returns the pipeline edge this connector mirrors.
func (c *Connector) Edge() pipeline.Edge {
	return pipeline.Edge{From: c.source.Owner().Step().ID(), To: c.target.Owner().Step().ID()}
}

// Touches reports whether either endpoint belongs to s.
func (c *Connector) Touches(s Shape) bool {
	return c.source.Owner() == s || c.target.Owner() == s
}

// Path returns the points the connector is drawn through.
func (c *Connector) Path() []Point {
	return []Point{c.source.ConnectPoint(), c.target.ConnectPoint()}
}

func (c *Connector) Bounds() Rect {
	a, b := c.source.ConnectPoint(), c.target.ConnectPoint()
	x, y := math.Min(a.X, b.X), math.Min(a.Y, b.Y)
	return Rect{X: x, Y: y, W: math.Abs(a.X - b.X), H: math.Abs(a.Y - b.Y)}
}

func (c *Connector) Contains(x, y float64) bool {
	p := c.Path()
	return distanceToSegment(Point{X: x, Y: y}, p[0], p[1]) <= ConnectorTolerance
}

func (c *Connector) Render(s Surface, selected Primitive) {
	p := c.Path()
	s.Line(p[0], p[1], styleFor(c, selected))
}
