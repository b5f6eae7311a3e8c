package canvas

import "math"

const (
	VertexWidth  = 150.0
	VertexHeight = 60.0

	ExpandedWidth = 400.0
	// expandedHeader is the space above the first group.
	expandedHeader = 40.0
	// groupRowHeight is the vertical space of one row of mini vertices.
	groupRowHeight = 45.0
	// groupHeader is the space taken by a group's label line.
	groupHeader = 25.0
	// membersPerRow bounds how many mini vertices share a row.
	membersPerRow = 4

	SmallWidth  = 85.0
	SmallHeight = 35.0
	smallGap    = 12.0

	CheckboxSize = 13.0
	PortRadius   = 6.0
	ToggleSize   = 15.0

	// ConnectorTolerance is how far from a connector's segment a click still hits it.
	ConnectorTolerance = 5.0
)

// Point is a position in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ContainsStrict reports whether (x, y) lies strictly inside r.
func (r Rect) ContainsStrict(x, y float64) bool {
	return x > r.X && x < r.X+r.W && y > r.Y && y < r.Y+r.H
}

// ContainsInclusive reports whether (x, y) lies inside r or on its border.
func (r Rect) ContainsInclusive(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Overlaps reports whether two boxes share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// distanceToSegment returns the distance from p to the segment a-b.
func distanceToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
