package workflow

import (
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/selection"
)

// Entry is the cached expansion state of one batch step.
type Entry struct {
	Selection *selection.State
	Groups    []canvas.MemberGroup
}

// SelectedSteps returns the detector sub-steps whose member bit is set, in
// group then member order.
func (e *Entry) SelectedSteps() []*pipeline.Step {
	var out []*pipeline.Step
	for _, g := range e.Groups {
		for _, idx := range e.Selection.Selected(g.Label) {
			out = append(out, g.Steps[idx-1])
		}
	}
	return out
}

// VisCache keeps expansion state keyed by step across collapse/expand
// cycles. Its lifetime is that of the pipeline it belongs to.
type VisCache struct {
	entries map[pipeline.StepID]*Entry
}

// NewVisCache returns an empty cache.
func NewVisCache() *VisCache {
	return &VisCache{entries: make(map[pipeline.StepID]*Entry)}
}

// Get returns the cached entry for a step.
func (c *VisCache) Get(id pipeline.StepID) (*Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Put stores the entry for a step.
func (c *VisCache) Put(id pipeline.StepID, e *Entry) {
	c.entries[id] = e
}

// Forget drops the entry of a step removed from the pipeline.
func (c *VisCache) Forget(id pipeline.StepID) {
	delete(c.entries, id)
}

// Len returns the number of cached steps.
func (c *VisCache) Len() int { return len(c.entries) }

// Replace takes over the entries of other.
func (c *VisCache) Replace(other *VisCache) {
	c.entries = other.entries
	other.entries = make(map[pipeline.StepID]*Entry)
}
