package api

import (
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/workflow"
)

// notes is the controller notifier for the API. It keeps what happened
// during the current request so the handler can report it.
type notes struct {
	rejected  error
	rewrite   error
	rename    *canvas.Vertex
	selection *pipeline.Step
}

var _ workflow.Notifier = (*notes)(nil)

func (n *notes) reset() { *n = notes{} }

func (n *notes) SelectionChanged(s *pipeline.Step) { n.selection = s }
func (n *notes) ConnectionRejected(err error)      { n.rejected = err }
func (n *notes) RenameRequested(v *canvas.Vertex)  { n.rename = v }
func (n *notes) RewriteFailed(err error)           { n.rewrite = err }
