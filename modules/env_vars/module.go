// Package env_vars provides the env_reader plugin, which turns the process
// environment into a two-column table.
package env_vars

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the plugin.Module interface for this package.
type Module struct{}

// Register registers env_reader with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return NewReader() })
}

// Reader is the env_reader plugin.
type Reader struct {
	opts    *plugin.Options
	environ func() []string
}

var _ plugin.Reader = (*Reader)(nil)

// NewReader returns an env_reader with default options.
func NewReader() *Reader {
	return &Reader{
		opts:    plugin.NewOptions().Declare("prefix", cty.StringVal("")),
		environ: os.Environ,
	}
}

// Info implements plugin.Plugin.
func (r *Reader) Info() plugin.Info {
	return plugin.Info{Name: "env_reader", Title: "Environment", Kind: plugin.KindReader, MaxInputs: 0, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (r *Reader) Options() *plugin.Options { return r.opts }

// Read implements plugin.Reader. Rows are sorted by name and limited to
// names starting with the prefix option.
func (r *Reader) Read(ctx context.Context) (*table.Table, error) {
	prefix, err := r.opts.String("prefix")
	if err != nil {
		return nil, err
	}

	envMap := make(map[string]string)
	for _, e := range r.environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], prefix) {
			envMap[pair[0]] = pair[1]
		}
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.New("env", "name", "value")
	for _, k := range keys {
		if err := t.Append(k, envMap[k]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
