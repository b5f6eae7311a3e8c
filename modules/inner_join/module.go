// Package inner_join provides the inner_join action, which joins two tables
// on one key column each.
package inner_join

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// ErrNeedsTwoInputs is returned when the action does not get exactly two
// tables.
var ErrNeedsTwoInputs = errors.New("inner_join requires exactly two input tables")

// Module implements the plugin.Module interface for this package.
type Module struct{}

// Register registers the inner_join action with the registry.
func (m *Module) Register(r *plugin.Registry) {
	r.Register(func() plugin.Plugin { return New() })
}

// Join is the inner_join action.
type Join struct {
	opts *plugin.Options
}

var _ plugin.Action = (*Join)(nil)

// New returns an inner_join action with default options.
func New() *Join {
	return &Join{opts: plugin.NewOptions().
		Declare("left_on", cty.StringVal("")).
		Declare("right_on", cty.StringVal(""))}
}

// Info implements plugin.Plugin.
func (j *Join) Info() plugin.Info {
	return plugin.Info{Name: "inner_join", Title: "Inner Join", Kind: plugin.KindAction, MaxInputs: 2, MaxOutputs: 1}
}

// Options implements plugin.Plugin.
func (j *Join) Options() *plugin.Options { return j.opts }

// Run implements plugin.Action. The output keeps every left column followed
// by the right columns minus the right key. A right column whose name is
// already taken is suffixed with the right table's name.
func (j *Join) Run(ctx context.Context, inputs []*table.Table) (*table.Table, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("%w, got %d", ErrNeedsTwoInputs, len(inputs))
	}
	left, right := inputs[0], inputs[1]

	leftOn, err := j.opts.String("left_on")
	if err != nil {
		return nil, err
	}
	if leftOn == "" {
		return nil, fmt.Errorf("inner_join: option %q is required", "left_on")
	}
	rightOn, err := j.opts.String("right_on")
	if err != nil {
		return nil, err
	}
	if rightOn == "" {
		rightOn = leftOn
	}

	li, ok := left.Column(leftOn)
	if !ok {
		return nil, fmt.Errorf("left table %q has no column %q", left.Name, leftOn)
	}
	ri, ok := right.Column(rightOn)
	if !ok {
		return nil, fmt.Errorf("right table %q has no column %q", right.Name, rightOn)
	}

	taken := make(map[string]bool, len(left.Columns))
	cols := append([]string(nil), left.Columns...)
	for _, c := range cols {
		taken[c] = true
	}
	var keep []int
	for i, c := range right.Columns {
		if i == ri {
			continue
		}
		keep = append(keep, i)
		if taken[c] {
			c = c + "_" + right.Name
		}
		taken[c] = true
		cols = append(cols, c)
	}

	index := make(map[string][]int)
	for i, row := range right.Rows {
		index[row[ri]] = append(index[row[ri]], i)
	}

	out := table.New(left.Name+"_"+right.Name, cols...)
	for _, lrow := range left.Rows {
		for _, idx := range index[lrow[li]] {
			row := append([]string(nil), lrow...)
			for _, k := range keep {
				row = append(row, right.Rows[idx][k])
			}
			if err := out.Append(row...); err != nil {
				return nil, err
			}
		}
	}
	ctxlog.FromContext(ctx).Debug("Joined tables.", "left_rows", left.Len(), "right_rows", right.Len(), "rows", out.Len())
	return out, nil
}
