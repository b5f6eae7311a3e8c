// Package csv_io provides the csv_reader, csv_writer and fixed_width_reader
// plugins.
package csv_io

import (
	"github.com/vk/pipecanvas/internal/plugin"
)

// Module implements the plugin.Module interface for this package.
type Module struct{}

// Register registers the file plugins with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return NewReader() })
	r.Register(func() plugin.Plugin { return NewWriter() })
	r.Register(func() plugin.Plugin { return NewFixedWidthReader() })
}
