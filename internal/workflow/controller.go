package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/selection"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrInvalidConnection is returned when a connector does not run from an
	// output port to an input port of another step.
	ErrInvalidConnection = errors.New("connectors must run from an output port to an input port of another step")
	// ErrUnknownShape is returned for steps or shapes not on the canvas.
	ErrUnknownShape = errors.New("shape is not on the canvas")
	// ErrNotExpandable is returned when expanding a step that is not a batch
	// detector.
	ErrNotExpandable = errors.New("step cannot be expanded")
	// ErrNothingSelected is returned by RemoveSelected when the selection is
	// not a removable primitive.
	ErrNothingSelected = errors.New("no removable primitive is selected")
)

// Mode is the pointer interaction mode.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeDrawing
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModeDrawing:
		return "drawing"
	default:
		return "idle"
	}
}

// Config holds the collaborators of a Controller. Zero fields get defaults.
type Config struct {
	Pipeline *pipeline.Graph
	Registry *plugin.Registry
	Cache    *VisCache
	Surface  canvas.Surface
	Notifier Notifier
	Logger   *slog.Logger
}

// Controller owns the canvas and keeps it in lockstep with the pipeline.
// It is not safe for concurrent use.
type Controller struct {
	logger   *slog.Logger
	pipeline *pipeline.Graph
	registry *plugin.Registry
	cache    *VisCache
	surface  canvas.Surface
	notifier Notifier

	// shapes is in insertion order, which is also paint order.
	shapes     []canvas.Shape
	index      map[pipeline.StepID]canvas.Shape
	connectors []*canvas.Connector

	mode     Mode
	anchor   *canvas.Port
	preview  canvas.Point
	selected canvas.Primitive
}

// New creates a Controller with an empty canvas.
func New(cfg Config) *Controller {
	c := &Controller{
		logger:   cfg.Logger,
		pipeline: cfg.Pipeline,
		registry: cfg.Registry,
		cache:    cfg.Cache,
		surface:  cfg.Surface,
		notifier: cfg.Notifier,
		index:    make(map[pipeline.StepID]canvas.Shape),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.pipeline == nil {
		c.pipeline = pipeline.New()
	}
	if c.registry == nil {
		c.registry = plugin.NewRegistry()
	}
	if c.cache == nil {
		c.cache = NewVisCache()
	}
	if c.surface == nil {
		c.surface = canvas.NewRecorder()
	}
	if c.notifier == nil {
		c.notifier = NopNotifier{}
	}
	return c
}

func (c *Controller) Pipeline() *pipeline.Graph  { return c.pipeline }
func (c *Controller) Registry() *plugin.Registry { return c.registry }
func (c *Controller) Cache() *VisCache           { return c.cache }
func (c *Controller) Surface() canvas.Surface    { return c.surface }
func (c *Controller) Mode() Mode                 { return c.mode }
func (c *Controller) Selected() canvas.Primitive { return c.selected }
func (c *Controller) SetNotifier(n Notifier)     { c.notifier = n }

// Shapes returns every step shape in paint order.
func (c *Controller) Shapes() []canvas.Shape {
	out := make([]canvas.Shape, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// Shape returns the shape currently representing a step.
func (c *Controller) Shape(id pipeline.StepID) (canvas.Shape, bool) {
	s, ok := c.index[id]
	return s, ok
}

// Vertices returns the collapsed shapes.
func (c *Controller) Vertices() []*canvas.Vertex {
	var out []*canvas.Vertex
	for _, s := range c.shapes {
		if v, ok := s.(*canvas.Vertex); ok {
			out = append(out, v)
		}
	}
	return out
}

// ExpandedVertices returns the expanded shapes.
func (c *Controller) ExpandedVertices() []*canvas.ExpandedVertex {
	var out []*canvas.ExpandedVertex
	for _, s := range c.shapes {
		if e, ok := s.(*canvas.ExpandedVertex); ok {
			out = append(out, e)
		}
	}
	return out
}

// Connectors returns every connector in creation order.
func (c *Controller) Connectors() []*canvas.Connector {
	out := make([]*canvas.Connector, len(c.connectors))
	copy(out, c.connectors)
	return out
}

// SelectedStep resolves the selected primitive to the step that owns it. A
// small vertex resolves to its own detector sub-step. Connectors have no
// single owner and resolve to nil.
func (c *Controller) SelectedStep() *pipeline.Step {
	if sv, ok := c.selected.(*canvas.SmallVertex); ok {
		return sv.Step()
	}
	if s := owningShape(c.selected); s != nil {
		return s.Step()
	}
	return nil
}

// owningShape returns the top-level shape a primitive is drawn as part of.
func owningShape(p canvas.Primitive) canvas.Shape {
	switch p := p.(type) {
	case canvas.Shape:
		return p
	case *canvas.Port:
		return p.Owner()
	case *canvas.ExpandToggle:
		return p.Owner()
	case *canvas.Checkbox:
		return p.Parent()
	case *canvas.SmallVertex:
		return p.Parent()
	default:
		return nil
	}
}

// Select makes the shape of a step the selected primitive.
func (c *Controller) Select(id pipeline.StepID) error {
	s, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: step %d", ErrUnknownShape, id)
	}
	c.selected = s
	c.notifier.SelectionChanged(s.Step())
	c.Render()
	return nil
}

// AddStep instantiates a plugin, adds its step to the pipeline and places a
// vertex at the first free insert point.
func (c *Controller) AddStep(pluginName string) (*canvas.Vertex, error) {
	p, err := c.registry.New(pluginName)
	if err != nil {
		return nil, err
	}
	step, err := pipeline.NewStep(c.pipeline.NextID(), "", p)
	if err != nil {
		return nil, err
	}
	return c.Add(step)
}

// Add places a vertex for step at the first free insert point.
func (c *Controller) Add(step *pipeline.Step) (*canvas.Vertex, error) {
	at := c.insertPoint()
	v, err := c.Place(step, at.X, at.Y)
	if err != nil {
		return nil, err
	}
	c.Render()
	return v, nil
}

// Place puts a vertex for step at (x, y), adding the step to the pipeline
// when it is not there yet.
func (c *Controller) Place(step *pipeline.Step, x, y float64) (*canvas.Vertex, error) {
	if _, ok := c.index[step.ID()]; ok {
		return nil, fmt.Errorf("step %d already has a shape", step.ID())
	}
	if _, ok := c.pipeline.Step(step.ID()); !ok {
		if err := c.pipeline.Add(step); err != nil {
			return nil, err
		}
	}
	v := canvas.NewVertex(step, x, y)
	c.addShape(v)
	c.logger.Debug("Placed step on canvas.", "step_id", step.ID(), "type", step.Info().Name, "x", x, "y", y)
	return v, nil
}

func (c *Controller) addShape(s canvas.Shape) {
	c.shapes = append(c.shapes, s)
	c.index[s.Step().ID()] = s
}

// insertPoint scans right from (50, 50) for a vertex-sized spot that
// overlaps no shape.
func (c *Controller) insertPoint() canvas.Point {
	at := canvas.Point{X: 50, Y: 50}
	for {
		candidate := canvas.Rect{X: at.X, Y: at.Y, W: canvas.VertexWidth, H: canvas.VertexHeight}
		free := true
		for _, s := range c.shapes {
			if s.Bounds().Overlaps(candidate) {
				free = false
				break
			}
		}
		if free {
			return at
		}
		at.X += canvas.VertexWidth + 100
	}
}

// Connect creates a connector between two ports and mirrors it into the
// pipeline. Rejections are reported to the notifier and returned.
func (c *Controller) Connect(from, to *canvas.Port) (*canvas.Connector, error) {
	conn, err := c.link(from, to)
	if err != nil {
		c.logger.Warn("Connection rejected.", "error", err)
		c.notifier.ConnectionRejected(err)
		return nil, err
	}
	c.logger.Debug("Connected steps.", "from", conn.Edge().From, "to", conn.Edge().To)
	return conn, nil
}

// ConnectSteps connects the output of one step to the input of another.
func (c *Controller) ConnectSteps(from, to pipeline.StepID) (*canvas.Connector, error) {
	src, ok := c.index[from]
	if !ok {
		return nil, fmt.Errorf("%w: step %d", ErrUnknownShape, from)
	}
	dst, ok := c.index[to]
	if !ok {
		return nil, fmt.Errorf("%w: step %d", ErrUnknownShape, to)
	}
	return c.Connect(src.OutputPort(), dst.InputPort())
}

// link validates and creates a connector without notifying.
func (c *Controller) link(from, to *canvas.Port) (*canvas.Connector, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("%w: missing port", ErrInvalidConnection)
	}
	if from.Direction() != canvas.Output || to.Direction() != canvas.Input {
		return nil, fmt.Errorf("%w: got %s to %s", ErrInvalidConnection, from.Direction(), to.Direction())
	}
	if from.Owner() == to.Owner() {
		return nil, fmt.Errorf("%w: both ports belong to step %d", ErrInvalidConnection, from.Owner().Step().ID())
	}
	for _, p := range []*canvas.Port{from, to} {
		if c.index[p.Owner().Step().ID()] != p.Owner() {
			return nil, fmt.Errorf("%w: port of step %d", ErrUnknownShape, p.Owner().Step().ID())
		}
	}
	conn := canvas.NewConnector(from, to)
	e := conn.Edge()
	if err := c.pipeline.Connect(e.From, e.To); err != nil {
		return nil, err
	}
	c.connectors = append(c.connectors, conn)
	return conn, nil
}

// unlink removes a connector from the canvas and its edge from the pipeline.
func (c *Controller) unlink(conn *canvas.Connector) {
	for i, existing := range c.connectors {
		if existing == conn {
			c.connectors = append(c.connectors[:i], c.connectors[i+1:]...)
			break
		}
	}
	e := conn.Edge()
	if err := c.pipeline.Disconnect(e.From, e.To); err != nil {
		c.logger.Warn("Connector had no pipeline edge.", "from", e.From, "to", e.To, "error", err)
	}
	if c.selected == conn {
		c.selected = nil
	}
}

func (c *Controller) touching(s canvas.Shape) []*canvas.Connector {
	var out []*canvas.Connector
	for _, conn := range c.connectors {
		if conn.Touches(s) {
			out = append(out, conn)
		}
	}
	return out
}

// RemoveConnector deletes a connector and its pipeline edge.
func (c *Controller) RemoveConnector(conn *canvas.Connector) error {
	found := false
	for _, existing := range c.connectors {
		if existing == conn {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: connector", ErrUnknownShape)
	}
	c.unlink(conn)
	c.Render()
	return nil
}

// RemoveStep deletes a step's shape, every connector touching it, the step
// itself and its cached expansion state.
func (c *Controller) RemoveStep(id pipeline.StepID) error {
	s, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: step %d", ErrUnknownShape, id)
	}
	if _, ok := c.pipeline.Step(id); !ok {
		return fmt.Errorf("%w: step %d", pipeline.ErrStepNotFound, id)
	}
	for _, conn := range c.touching(s) {
		c.unlink(conn)
	}
	c.dropShape(s)
	if _, err := c.pipeline.Remove(id); err != nil {
		return err
	}
	c.cache.Forget(id)
	c.logger.Debug("Removed step.", "step_id", id)
	c.Render()
	return nil
}

func (c *Controller) dropShape(s canvas.Shape) {
	for i, existing := range c.shapes {
		if existing == s {
			c.shapes = append(c.shapes[:i], c.shapes[i+1:]...)
			break
		}
	}
	delete(c.index, s.Step().ID())
	if owningShape(c.selected) == s {
		c.selected = nil
	}
}

// RemoveSelected removes the selected connector, vertex or expanded vertex.
func (c *Controller) RemoveSelected() error {
	switch p := c.selected.(type) {
	case *canvas.Connector:
		return c.RemoveConnector(p)
	case canvas.Shape:
		return c.RemoveStep(p.Step().ID())
	default:
		return ErrNothingSelected
	}
}

// Rename changes the label of a step.
func (c *Controller) Rename(id pipeline.StepID, label string) error {
	s, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: step %d", ErrUnknownShape, id)
	}
	s.Step().SetLabel(label)
	c.Render()
	return nil
}

// Move places the shape of a step at a new origin.
func (c *Controller) Move(id pipeline.StepID, x, y float64) error {
	s, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: step %d", ErrUnknownShape, id)
	}
	s.MoveTo(x, y)
	c.Render()
	return nil
}

// SetOptions assigns plugin options of a step. Either every value is applied
// or none is.
func (c *Controller) SetOptions(id pipeline.StepID, vals map[string]cty.Value) error {
	s, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: step %d", ErrUnknownShape, id)
	}
	if err := s.Step().Plugin().Options().SetAll(vals); err != nil {
		return err
	}
	c.logger.Debug("Step options changed.", "step_id", id, "count", len(vals))
	return nil
}

// entry returns the cached expansion state of a batch step, building it from
// the registry's detector groups on first use.
func (c *Controller) entry(step *pipeline.Step) (*Entry, error) {
	if e, ok := c.cache.Get(step.ID()); ok {
		return e, nil
	}
	e := &Entry{Selection: selection.New()}
	for _, g := range c.registry.DetectorGroups() {
		group := canvas.MemberGroup{Label: g.Label}
		for _, info := range g.Members {
			p, err := c.registry.New(info.Name)
			if err != nil {
				return nil, err
			}
			sub, err := pipeline.NewStep(c.pipeline.NextID(), info.Title, p)
			if err != nil {
				return nil, err
			}
			group.Steps = append(group.Steps, sub)
		}
		if err := e.Selection.AddGroup(g.Label, len(group.Steps)); err != nil {
			return nil, err
		}
		e.Groups = append(e.Groups, group)
	}
	c.cache.Put(step.ID(), e)
	return e, nil
}

// ToggleCheckbox applies the tri-state law to a checkbox and pushes the new
// detector choice into the batch step.
func (c *Controller) ToggleCheckbox(cb *canvas.Checkbox) error {
	step := cb.Parent().Step()
	e, err := c.entry(step)
	if err != nil {
		return err
	}
	if err := e.Selection.Toggle(cb.Group(), cb.Index()); err != nil {
		return err
	}
	return c.syncDetectors(step, e)
}

// SelectDetectors sets the chosen detectors of a batch step by plugin name.
// Every other candidate is cleared.
func (c *Controller) SelectDetectors(id pipeline.StepID, names ...string) error {
	s, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: step %d", ErrUnknownShape, id)
	}
	step := s.Step()
	if step.Kind() != plugin.KindBatch {
		return fmt.Errorf("%w: step %d is %s", ErrNotExpandable, id, step.Kind())
	}
	e, err := c.entry(step)
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for _, g := range e.Groups {
		for i, sub := range g.Steps {
			name := sub.Info().Name
			if err := e.Selection.Set(g.Label, i+1, want[name]); err != nil {
				return err
			}
			delete(want, name)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for n := range want {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return fmt.Errorf("step %d: no candidate detectors named %v", id, missing)
	}
	if err := c.syncDetectors(step, e); err != nil {
		return err
	}
	c.Render()
	return nil
}

func (c *Controller) syncDetectors(step *pipeline.Step, e *Entry) error {
	chosen := e.SelectedSteps()
	if err := step.SetDetectors(chosen); err != nil {
		return err
	}
	c.logger.Debug("Updated batch detectors.", "step_id", step.ID(), "detector_count", len(chosen))
	return nil
}

// Render clears the surface and repaints every primitive.
func (c *Controller) Render() {
	c.surface.Clear()
	for _, s := range c.shapes {
		s.Render(c.surface, c.selected)
	}
	for _, conn := range c.connectors {
		conn.Render(c.surface, c.selected)
	}
	if c.mode == ModeDrawing && c.anchor != nil {
		c.surface.Line(c.anchor.ConnectPoint(), c.preview, canvas.StylePreview)
	}
}
