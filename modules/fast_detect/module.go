// Package fast_detect provides the fast_detect batch step. It has no
// behaviour of its own: the coordinator runs the detectors selected on the
// step's expanded vertex against its single input.
package fast_detect

import (
	"github.com/vk/pipecanvas/internal/plugin"
)

// Module implements the plugin.Module interface for this package.
type Module struct{}

// Register registers fast_detect with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return New() })
}

// Batch is the fast_detect plugin.
type Batch struct {
	opts *plugin.Options
}

// New returns a fast_detect plugin.
func New() *Batch {
	return &Batch{opts: plugin.NewOptions()}
}

// Info implements plugin.Plugin.
func (b *Batch) Info() plugin.Info {
	return plugin.Info{
		Name:       "fast_detect",
		Title:      "Fast Detect",
		Kind:       plugin.KindBatch,
		MaxInputs:  1,
		MaxOutputs: 1,
		Expandable: true,
	}
}

// Options implements plugin.Plugin.
func (b *Batch) Options() *plugin.Options { return b.opts }
