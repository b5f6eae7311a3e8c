package canvas

import "math"

// Direction tells input ports from output ports.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Port is a directional connection point on the edge of a step shape.
type Port struct {
	owner Shape
	dir   Direction
}

// Owner returns the shape the port belongs to.
func (p *Port) Owner() Shape { return p.owner }

// Direction returns whether the port is an input or an output.
func (p *Port) Direction() Direction { return p.dir }

// Center is on the owner's left edge for inputs and right edge for outputs,
// vertically centered.
func (p *Port) Center() Point {
	o := p.owner.Origin()
	w, h := p.owner.Size()
	if p.dir == Output {
		return Point{X: o.X + w, Y: o.Y + h/2}
	}
	return Point{X: o.X, Y: o.Y + h/2}
}

// ConnectPoint is where connectors attach, just outside the owner.
func (p *Port) ConnectPoint() Point {
	c := p.Center()
	if p.dir == Output {
		c.X += PortRadius
	} else {
		c.X -= PortRadius
	}
	return c
}

func (p *Port) Bounds() Rect {
	c := p.Center()
	return Rect{X: c.X - PortRadius, Y: c.Y - PortRadius, W: 2 * PortRadius, H: 2 * PortRadius}
}

func (p *Port) Contains(x, y float64) bool {
	c := p.Center()
	return math.Hypot(x-c.X, y-c.Y) <= PortRadius
}

func (p *Port) Render(s Surface, selected Primitive) {
	s.Circle(p.Center(), PortRadius, styleFor(p, selected))
}
