package distorted_label

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
)

// Finding columns. Repair reads only from and to.
const (
	ColFrom  = "from"
	ColTo    = "to"
	ColScore = "score"
)

// label is one distinct value of the inspected column.
type label struct {
	value string
	count int
	first int
}

// base holds what both detectors share: the column option, the detection
// counter and the repair.
type base struct {
	info plugin.Info
	opts *plugin.Options

	mu       sync.Mutex
	detected int
}

func (b *base) Info() plugin.Info        { return b.info }
func (b *base) Options() *plugin.Options { return b.opts }
func (b *base) CanDetect() bool          { return true }
func (b *base) CanRepair() bool          { return true }

func (b *base) ImperfectionsDetected() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detected
}

// column resolves the configured column, defaulting to the first one.
func (b *base) column(t *table.Table) (string, error) {
	name, err := b.opts.String("column")
	if err != nil {
		return "", err
	}
	if name == "" {
		if len(t.Columns) == 0 {
			return "", fmt.Errorf("%s: table %q has no columns", b.info.Name, t.Name)
		}
		return t.Columns[0], nil
	}
	if _, ok := t.Column(name); !ok {
		return "", fmt.Errorf("%s: table %q has no column %q", b.info.Name, t.Name, name)
	}
	return name, nil
}

// labels returns the distinct values of column in first-seen order.
func (b *base) labels(t *table.Table, column string) ([]*label, error) {
	values, err := t.Values(column)
	if err != nil {
		return nil, err
	}
	byValue := make(map[string]*label)
	var out []*label
	for i, v := range values {
		l, ok := byValue[v]
		if !ok {
			l = &label{value: v, first: i}
			byValue[v] = l
			out = append(out, l)
		}
		l.count++
	}
	return out, nil
}

// finding orders a pair so that the more frequent, then earlier, label is
// the replacement.
func finding(a, b *label) (from, to *label) {
	if b.count > a.count || (b.count == a.count && b.first < a.first) {
		return a, b
	}
	return b, a
}

func (b *base) record(ctx context.Context, found *table.Table) {
	b.mu.Lock()
	b.detected = found.Len()
	b.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Detection finished.", "detector", b.info.Name, "detections", found.Len())
}

func newFindings(name string) *table.Table {
	return table.New(name, ColFrom, ColTo, ColScore)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// Repair replaces every from value in the inspected column with its to
// value. A nil changes table leaves master untouched.
func (b *base) Repair(ctx context.Context, master, changes *table.Table) (*table.Table, error) {
	out := master.Clone()
	if changes == nil || changes.Len() == 0 {
		return out, nil
	}
	column, err := b.column(master)
	if err != nil {
		return nil, err
	}
	from, err := changes.Values(ColFrom)
	if err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}
	to, err := changes.Values(ColTo)
	if err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}
	replace := make(map[string]string, len(from))
	for i := range from {
		replace[from[i]] = to[i]
	}

	idx, _ := out.Column(column)
	repaired := 0
	for _, row := range out.Rows {
		if r, ok := replace[row[idx]]; ok {
			row[idx] = r
			repaired++
		}
	}
	ctxlog.FromContext(ctx).Info("Applied label repairs.", "detector", b.info.Name, "column", column, "repaired_rows", repaired)
	return out, nil
}
