package csv_io

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// Writer saves its input table as a CSV file.
type Writer struct {
	opts *plugin.Options
}

var _ plugin.Writer = (*Writer)(nil)

// NewWriter returns a csv_writer with default options.
func NewWriter() *Writer {
	return &Writer{opts: plugin.NewOptions().
		Declare("path", cty.StringVal("")).
		Declare("delimiter", cty.StringVal(","))}
}

// Info implements plugin.Plugin.
func (w *Writer) Info() plugin.Info {
	return plugin.Info{Name: "csv_writer", Title: "CSV Writer", Kind: plugin.KindWriter, MaxInputs: 1, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (w *Writer) Options() *plugin.Options { return w.opts }

// Write implements plugin.Writer. An existing file is truncated.
func (w *Writer) Write(ctx context.Context, t *table.Table) error {
	path, err := w.opts.String("path")
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("csv_writer: option %q is required", "path")
	}
	delimOpt, err := w.opts.String("delimiter")
	if err != nil {
		return err
	}
	delim, err := Delimiter(delimOpt)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, t, delim); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Wrote CSV file.", "path", path, "rows", t.Len())
	return nil
}
