package canvas

// Style is the visual emphasis of a painted element.
type Style int

const (
	StyleNormal Style = iota
	StyleSelected
	// StylePreview is used for the live line while drawing a connector.
	StylePreview
)

func (s Style) String() string {
	switch s {
	case StyleSelected:
		return "selected"
	case StylePreview:
		return "preview"
	default:
		return "normal"
	}
}

// Surface is the rendering target. Implementations paint; they never call
// back into the primitives.
type Surface interface {
	Clear()
	Box(r Rect, style Style)
	Circle(center Point, radius float64, style Style)
	Line(from, to Point, style Style)
	Text(at Point, text string)
	Check(r Rect, checked bool)
	Indicator(at Point, state RunState)
}

// Op is one recorded drawing operation.
type Op struct {
	Kind    string   `json:"kind"`
	Rect    *Rect    `json:"rect,omitempty"`
	Points  []Point  `json:"points,omitempty"`
	Radius  float64  `json:"radius,omitempty"`
	Text    string   `json:"text,omitempty"`
	Style   string   `json:"style,omitempty"`
	Checked *bool    `json:"checked,omitempty"`
	State   RunState `json:"state,omitempty"`
}

// Recorder is a Surface that keeps the display list of the last frame.
type Recorder struct {
	ops    []Op
	frames int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Ops returns a copy of the current display list.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Frames returns how many times the surface was cleared.
func (r *Recorder) Frames() int { return r.frames }

func (r *Recorder) Clear() {
	r.ops = r.ops[:0]
	r.frames++
}

func (r *Recorder) Box(rect Rect, style Style) {
	r.ops = append(r.ops, Op{Kind: "box", Rect: &rect, Style: style.String()})
}

func (r *Recorder) Circle(center Point, radius float64, style Style) {
	r.ops = append(r.ops, Op{Kind: "circle", Points: []Point{center}, Radius: radius, Style: style.String()})
}

func (r *Recorder) Line(from, to Point, style Style) {
	r.ops = append(r.ops, Op{Kind: "line", Points: []Point{from, to}, Style: style.String()})
}

func (r *Recorder) Text(at Point, text string) {
	r.ops = append(r.ops, Op{Kind: "text", Points: []Point{at}, Text: text})
}

func (r *Recorder) Check(rect Rect, checked bool) {
	r.ops = append(r.ops, Op{Kind: "check", Rect: &rect, Checked: &checked})
}

func (r *Recorder) Indicator(at Point, state RunState) {
	r.ops = append(r.ops, Op{Kind: "indicator", Points: []Point{at}, State: state})
}
