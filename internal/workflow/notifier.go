package workflow

import (
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
)

// Notifier receives the user-facing outcomes of controller operations.
type Notifier interface {
	// SelectionChanged is called after every click with the step owning the
	// selected primitive, or nil. A mini vertex reports its detector sub-step.
	SelectionChanged(step *pipeline.Step)
	// ConnectionRejected is called when a connector could not be created.
	ConnectionRejected(err error)
	// RenameRequested is called when a double click leaves a plain vertex
	// selected.
	RenameRequested(v *canvas.Vertex)
	// RewriteFailed is called when expand or collapse dropped connectors.
	RewriteFailed(err error)
}

// NopNotifier ignores every notification.
type NopNotifier struct{}

func (NopNotifier) SelectionChanged(*pipeline.Step) {}
func (NopNotifier) ConnectionRejected(error)        {}
func (NopNotifier) RenameRequested(*canvas.Vertex)  {}
func (NopNotifier) RewriteFailed(error)             {}
