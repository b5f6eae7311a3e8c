package csv_io

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// Reader loads a CSV file into a table.
type Reader struct {
	opts *plugin.Options
}

var _ plugin.Reader = (*Reader)(nil)

// NewReader returns a csv_reader with default options.
func NewReader() *Reader {
	return &Reader{opts: plugin.NewOptions().
		Declare("path", cty.StringVal("")).
		Declare("delimiter", cty.StringVal(",")).
		Declare("header", cty.True)}
}

// Info implements plugin.Plugin.
func (r *Reader) Info() plugin.Info {
	return plugin.Info{Name: "csv_reader", Title: "CSV Reader", Kind: plugin.KindReader, MaxInputs: 0, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (r *Reader) Options() *plugin.Options { return r.opts }

// Read implements plugin.Reader. The table is named after the file.
func (r *Reader) Read(ctx context.Context) (*table.Table, error) {
	path, err := r.opts.String("path")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("csv_reader: option %q is required", "path")
	}
	delimOpt, err := r.opts.String("delimiter")
	if err != nil {
		return nil, err
	}
	delim, err := Delimiter(delimOpt)
	if err != nil {
		return nil, err
	}
	header, err := r.opts.Bool("header")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := Decode(name, f, delim, header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Read CSV file.", "path", path, "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}
