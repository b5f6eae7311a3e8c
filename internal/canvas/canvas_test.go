package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/selection"
	"github.com/vk/pipecanvas/internal/testutil"
)

func newStep(t *testing.T, id pipeline.StepID, f *testutil.Fake) *pipeline.Step {
	t.Helper()
	s, err := pipeline.NewStep(id, "", f)
	require.NoError(t, err)
	return s
}

func TestVertex_PortsFollowArity(t *testing.T) {
	testCases := []struct {
		name       string
		plugin     *testutil.Fake
		wantIn     bool
		wantOut    bool
		wantToggle bool
	}{
		{"reader", testutil.NewReader("r", nil), false, true, false},
		{"action", testutil.NewAction("a", 1), true, true, false},
		{"batch", testutil.NewBatch("b"), true, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := canvas.NewVertex(newStep(t, 1, tc.plugin), 0, 0)
			assert.Equal(t, tc.wantIn, v.InputPort() != nil)
			assert.Equal(t, tc.wantOut, v.OutputPort() != nil)
			assert.Equal(t, tc.wantToggle, v.Toggle() != nil)
		})
	}
}

func TestPort_Geometry(t *testing.T) {
	v := canvas.NewVertex(newStep(t, 1, testutil.NewAction("a", 1)), 100, 200)

	in, out := v.InputPort(), v.OutputPort()
	assert.Equal(t, canvas.Point{X: 100, Y: 230}, in.Center())
	assert.Equal(t, canvas.Point{X: 250, Y: 230}, out.Center())
	assert.Equal(t, canvas.Point{X: 94, Y: 230}, in.ConnectPoint())
	assert.Equal(t, canvas.Point{X: 256, Y: 230}, out.ConnectPoint())

	assert.True(t, out.Contains(255, 233))
	assert.False(t, out.Contains(257, 230+5))

	v.MoveTo(0, 0)
	assert.Equal(t, canvas.Point{X: 150, Y: 30}, out.Center(), "ports follow their owner")
}

func TestVertex_HitTestIsStrict(t *testing.T) {
	v := canvas.NewVertex(newStep(t, 1, testutil.NewAction("a", 1)), 10, 10)

	assert.True(t, v.Contains(11, 11))
	assert.False(t, v.Contains(10, 10), "border is outside")
	assert.False(t, v.Contains(160, 70))
}

func TestVertex_Drag(t *testing.T) {
	v := canvas.NewVertex(newStep(t, 1, testutil.NewAction("a", 1)), 10, 10)

	v.Grab(30, 25)
	v.DragTo(130, 125)
	assert.Equal(t, canvas.Point{X: 110, Y: 110}, v.Origin())
}

func TestExpandToggle_Position(t *testing.T) {
	v := canvas.NewVertex(newStep(t, 1, testutil.NewBatch("b")), 0, 0)

	b := v.Toggle().Bounds()
	assert.Equal(t, canvas.Rect{X: 125, Y: 15, W: 15, H: 15}, b)
	assert.True(t, v.Toggle().Contains(125, 15), "toggle hit test is inclusive")
}

func TestConnector_HitTest(t *testing.T) {
	a := canvas.NewVertex(newStep(t, 1, testutil.NewAction("a", 1)), 0, 0)
	b := canvas.NewVertex(newStep(t, 2, testutil.NewAction("b", 1)), 300, 0)
	c := canvas.NewConnector(a.OutputPort(), b.InputPort())

	// Segment runs from (156,30) to (294,30).
	assert.True(t, c.Contains(200, 33))
	assert.False(t, c.Contains(200, 40))
	assert.Equal(t, pipeline.Edge{From: 1, To: 2}, c.Edge())
	assert.True(t, c.Touches(a))
}

func expanded(t *testing.T) *canvas.ExpandedVertex {
	t.Helper()
	sel := selection.New()
	require.NoError(t, sel.AddGroup("Jaro-Winkler", 5))
	require.NoError(t, sel.AddGroup("Test1", 1))

	var jw []*pipeline.Step
	for i := 0; i < 5; i++ {
		jw = append(jw, newStep(t, pipeline.StepID(10+i), testutil.NewDetector("jw", "Jaro-Winkler")))
	}
	t1 := []*pipeline.Step{newStep(t, 20, testutil.NewDetector("t1", "Test1"))}

	return canvas.NewExpandedVertex(newStep(t, 1, testutil.NewBatch("b")), 0, 0,
		[]canvas.MemberGroup{{Label: "Jaro-Winkler", Steps: jw}, {Label: "Test1", Steps: t1}}, sel)
}

func TestExpandedVertex_Layout(t *testing.T) {
	e := expanded(t)

	w, h := e.Size()
	assert.Equal(t, 400.0, w)
	// 40 + (2 rows * 45 + 25) + (1 row * 45 + 25)
	assert.Equal(t, 225.0, h)

	smalls := e.SmallVertices()
	require.Len(t, smalls, 6)
	assert.Equal(t, canvas.Rect{X: 10, Y: 65, W: 85, H: 35}, smalls[0].Bounds())
	assert.Equal(t, canvas.Rect{X: 10, Y: 110, W: 85, H: 35}, smalls[4].Bounds(), "fifth member wraps")
	assert.Equal(t, "Test1", smalls[5].Group())
	assert.Equal(t, 1, smalls[5].Index())
	assert.Same(t, e, smalls[0].Parent())

	boxes := e.Checkboxes()
	require.Len(t, boxes, 8)
	assert.Equal(t, 0, boxes[0].Index())
	assert.Equal(t, canvas.Rect{X: 75, Y: 75, W: 13, H: 13}, smalls[0].Checkbox().Bounds())
}

func TestCheckbox_ReflectsSelection(t *testing.T) {
	e := expanded(t)
	box := e.Checkboxes()[0]
	assert.False(t, box.Checked())

	require.NoError(t, e.Selection().Toggle("Jaro-Winkler", 0))
	assert.True(t, box.Checked())
	assert.True(t, e.SmallVertices()[3].Checkbox().Checked())
}

func TestRender_IsIdempotent(t *testing.T) {
	e := expanded(t)
	rec := canvas.NewRecorder()

	rec.Clear()
	e.Render(rec, nil)
	first := rec.Ops()
	rec.Clear()
	e.Render(rec, nil)

	assert.Equal(t, first, rec.Ops())
	assert.Equal(t, 2, rec.Frames())
}

func TestRender_SelectedEmphasis(t *testing.T) {
	v := canvas.NewVertex(newStep(t, 1, testutil.NewAction("a", 1)), 0, 0)
	rec := canvas.NewRecorder()

	v.Render(rec, v)
	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, "box", ops[0].Kind)
	assert.Equal(t, "selected", ops[0].Style)
}
