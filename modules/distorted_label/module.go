// Package distorted_label provides detectors for distorted labels: distinct
// values in one column that most likely name the same thing.
//
// Both detectors report findings as a table with from, to and score columns,
// where to is the more frequent spelling. The same table, possibly edited by
// a reviewer, is accepted by Repair as its changes.
package distorted_label

import (
	"github.com/vk/pipecanvas/internal/plugin"
)

// Group is the detector group label shared by this package's plugins.
const Group = "Distorted Label"

// Module implements the plugin.Module interface for this package.
type Module struct{}

// Register registers the distorted label detectors with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return NewLevenshtein() })
	r.Register(func() plugin.Plugin { return NewCaseVariant() })
}
