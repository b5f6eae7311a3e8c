// Package print provides the print writer, which renders a table as aligned
// text.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the plugin.Module interface for this package.
type Module struct {
	// Out receives the printed tables. Defaults to os.Stdout.
	Out io.Writer
}

// Register registers the print writer with the registry.
func (m *Module) Register(r *plugin.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.Register(func() plugin.Plugin { return NewWriter(out) })
}

// Writer prints its input table.
type Writer struct {
	out  io.Writer
	opts *plugin.Options
}

var _ plugin.Writer = (*Writer)(nil)

// NewWriter returns a print writer that writes to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:  out,
		opts: plugin.NewOptions().Declare("limit", cty.NumberIntVal(0)),
	}
}

// Info implements plugin.Plugin.
func (w *Writer) Info() plugin.Info {
	return plugin.Info{Name: "print", Title: "Print", Kind: plugin.KindWriter, MaxInputs: 1, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (w *Writer) Options() *plugin.Options { return w.opts }

// Write implements plugin.Writer. A positive limit caps the printed rows.
func (w *Writer) Write(ctx context.Context, t *table.Table) error {
	limit, err := w.opts.Float("limit")
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Printing table.", "table", t.Name, "rows", t.Len())

	rows := t.Rows
	if limit > 0 && int(limit) < len(rows) {
		rows = rows[:int(limit)]
	}

	fmt.Fprintf(w.out, "%s (%d rows)\n", t.Name, t.Len())
	if len(t.Columns) == 0 {
		fmt.Fprintln(w.out, "      (no columns)")
		return nil
	}
	tw := tabwriter.NewWriter(w.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	if len(rows) < len(t.Rows) {
		fmt.Fprintf(tw, "... %d more\n", len(t.Rows)-len(rows))
	}
	return tw.Flush()
}
