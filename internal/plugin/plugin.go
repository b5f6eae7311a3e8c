package plugin

import (
	"context"

	"github.com/vk/pipecanvas/internal/table"
)

// Kind tags a plugin with the step role it plays in a pipeline.
type Kind int

const (
	// KindReader produces a table from nothing.
	KindReader Kind = iota
	// KindWriter consumes a table and passes it through.
	KindWriter
	// KindAction transforms its inputs into one output table.
	KindAction
	// KindPattern detects imperfections and may require a human review
	// before its repaired output is trusted.
	KindPattern
	// KindBatch fans out over a user-selected set of detectors.
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindReader:
		return "reader"
	case KindWriter:
		return "writer"
	case KindAction:
		return "action"
	case KindPattern:
		return "pattern"
	case KindBatch:
		return "batch-detector"
	default:
		return "unknown"
	}
}

// Unbounded marks an arity without an upper limit.
const Unbounded = -1

// Info is the static description of a plugin.
type Info struct {
	// Name is the registry key, e.g. "csv_reader".
	Name string
	// Title is the human-readable label used for new vertices.
	Title string
	// Group is the detector group label. Only pattern plugins set it.
	Group string
	Kind  Kind
	// MaxInputs and MaxOutputs bound the step's arity. Unbounded lifts the limit.
	MaxInputs  int
	MaxOutputs int
	// Expandable steps can be shown as an expanded vertex.
	Expandable bool
}

// AcceptsInput reports whether steps of this plugin have an input port.
func (i Info) AcceptsInput() bool { return i.MaxInputs != 0 }

// ProducesOutput reports whether steps of this plugin have an output port.
func (i Info) ProducesOutput() bool { return i.MaxOutputs != 0 }

// Plugin is the capability shared by every step implementation.
type Plugin interface {
	Info() Info
	Options() *Options
}

// Reader is implemented by KindReader plugins.
type Reader interface {
	Plugin
	Read(ctx context.Context) (*table.Table, error)
}

// Writer is implemented by KindWriter plugins.
type Writer interface {
	Plugin
	Write(ctx context.Context, t *table.Table) error
}

// Action is implemented by KindAction plugins.
type Action interface {
	Plugin
	Run(ctx context.Context, inputs []*table.Table) (*table.Table, error)
}

// Detector is implemented by KindPattern plugins and by every plugin that can
// be selected as a member of a batch step.
type Detector interface {
	Plugin
	// Detect returns a table describing the imperfections found in t.
	Detect(ctx context.Context, t *table.Table) (*table.Table, error)
	// Repair applies reviewer-approved changes to master. A nil changes table
	// means no repairs were requested.
	Repair(ctx context.Context, master, changes *table.Table) (*table.Table, error)
	CanDetect() bool
	CanRepair() bool
	// ImperfectionsDetected is the count found by the last Detect call.
	ImperfectionsDetected() int
	// ExpectedDetections is the ratio of rows the detector expects to flag.
	ExpectedDetections() float64
}
