package canvas

import (
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/selection"
)

// MemberGroup lists the detector sub-steps shown under one group label.
type MemberGroup struct {
	Label string
	Steps []*pipeline.Step
}

// ExpandedVertex is the expanded representation of a batch step: one
// selectable mini vertex per eligible detector, organized in groups with a
// header checkbox each.
type ExpandedVertex struct {
	shape
	sel    *selection.State
	groups []*groupLayout
	height float64
}

type groupLayout struct {
	label    string
	dy       float64
	checkbox *Checkbox
	members  []*SmallVertex
}

// NewExpandedVertex lays out groups under step with its origin at (x, y).
// sel is read for checkbox states and is owned by the caller.
func NewExpandedVertex(step *pipeline.Step, x, y float64, groups []MemberGroup, sel *selection.State) *ExpandedVertex {
	e := &ExpandedVertex{
		shape: shape{step: step, origin: Point{X: x, Y: y}, state: StateDormant},
		sel:   sel,
	}
	e.attach(e)

	cur := expandedHeader
	for _, g := range groups {
		gl := &groupLayout{label: g.Label, dy: cur}
		gl.checkbox = &Checkbox{
			parent: e,
			group:  g.Label,
			index:  0,
			off:    Point{X: ExpandedWidth - 30, Y: cur + 4},
		}
		for i, st := range g.Steps {
			row, col := i/membersPerRow, i%membersPerRow
			off := Point{
				X: 10 + float64(col)*(SmallWidth+smallGap),
				Y: cur + groupHeader + float64(row)*groupRowHeight,
			}
			sv := &SmallVertex{parent: e, group: g.Label, index: i + 1, step: st, off: off}
			sv.checkbox = &Checkbox{
				parent: e,
				group:  g.Label,
				index:  i + 1,
				off:    Point{X: off.X + SmallWidth - 20, Y: off.Y + SmallHeight/2 - CheckboxSize/2 - 1},
			}
			gl.members = append(gl.members, sv)
		}
		rows := (len(g.Steps) + membersPerRow - 1) / membersPerRow
		cur += float64(rows)*groupRowHeight + groupHeader
		e.groups = append(e.groups, gl)
	}
	e.height = cur
	return e
}

// Selection returns the selection state the checkboxes reflect.
func (e *ExpandedVertex) Selection() *selection.State { return e.sel }

// Groups returns the groups and their detector sub-steps.
func (e *ExpandedVertex) Groups() []MemberGroup {
	out := make([]MemberGroup, 0, len(e.groups))
	for _, g := range e.groups {
		mg := MemberGroup{Label: g.label}
		for _, m := range g.members {
			mg.Steps = append(mg.Steps, m.step)
		}
		out = append(out, mg)
	}
	return out
}

// SmallVertices returns every mini vertex in layout order.
func (e *ExpandedVertex) SmallVertices() []*SmallVertex {
	var out []*SmallVertex
	for _, g := range e.groups {
		out = append(out, g.members...)
	}
	return out
}

// Checkboxes returns the group header checkboxes followed by their members'.
func (e *ExpandedVertex) Checkboxes() []*Checkbox {
	var out []*Checkbox
	for _, g := range e.groups {
		out = append(out, g.checkbox)
		for _, m := range g.members {
			out = append(out, m.checkbox)
		}
	}
	return out
}

func (e *ExpandedVertex) Size() (float64, float64) { return ExpandedWidth, e.height }

func (e *ExpandedVertex) Bounds() Rect {
	return Rect{X: e.origin.X, Y: e.origin.Y, W: ExpandedWidth, H: e.height}
}

func (e *ExpandedVertex) Contains(x, y float64) bool {
	return e.Bounds().ContainsStrict(x, y)
}

func (e *ExpandedVertex) Render(s Surface, selected Primitive) {
	s.Box(e.Bounds(), styleFor(e, selected))
	s.Text(Point{X: e.origin.X + 20, Y: e.origin.Y + 25}, e.step.Label())
	for _, g := range e.groups {
		s.Text(Point{X: e.origin.X + 10, Y: e.origin.Y + g.dy + 15}, g.label)
		g.checkbox.Render(s, selected)
		for _, m := range g.members {
			m.Render(s, selected)
		}
	}
	e.renderChrome(s, selected)
}

// SmallVertex is one candidate detector inside an expanded vertex. It has no
// ports and cannot be connected.
type SmallVertex struct {
	parent   *ExpandedVertex
	group    string
	index    int
	step     *pipeline.Step
	off      Point
	checkbox *Checkbox
}

func (v *SmallVertex) Parent() *ExpandedVertex { return v.parent }
func (v *SmallVertex) Group() string           { return v.group }

// Index is the 1-based member index within the group.
func (v *SmallVertex) Index() int { return v.index }

// Step returns the detector sub-step.
func (v *SmallVertex) Step() *pipeline.Step { return v.step }
func (v *SmallVertex) Checkbox() *Checkbox  { return v.checkbox }

func (v *SmallVertex) Bounds() Rect {
	o := v.parent.origin
	return Rect{X: o.X + v.off.X, Y: o.Y + v.off.Y, W: SmallWidth, H: SmallHeight}
}

func (v *SmallVertex) Contains(x, y float64) bool {
	return v.Bounds().ContainsStrict(x, y)
}

func (v *SmallVertex) Render(s Surface, selected Primitive) {
	b := v.Bounds()
	s.Box(b, styleFor(v, selected))
	s.Text(Point{X: b.X + 5, Y: b.Y + b.H/2}, v.step.Label())
	v.checkbox.Render(s, selected)
}

// Checkbox is a tri-state selector: either a group header (index 0) or a
// member of a group.
type Checkbox struct {
	parent *ExpandedVertex
	group  string
	index  int
	off    Point
}

func (c *Checkbox) Parent() *ExpandedVertex { return c.parent }
func (c *Checkbox) Group() string           { return c.group }
func (c *Checkbox) Index() int              { return c.index }

// Checked reads the box's bit from the owning selection state.
func (c *Checkbox) Checked() bool {
	return c.parent.sel.IsSelected(c.group, c.index)
}

func (c *Checkbox) Bounds() Rect {
	o := c.parent.origin
	return Rect{X: o.X + c.off.X, Y: o.Y + c.off.Y, W: CheckboxSize, H: CheckboxSize}
}

func (c *Checkbox) Contains(x, y float64) bool {
	return c.Bounds().ContainsInclusive(x, y)
}

func (c *Checkbox) Render(s Surface, _ Primitive) {
	s.Check(c.Bounds(), c.Checked())
}
