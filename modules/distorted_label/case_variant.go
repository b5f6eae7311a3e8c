package distorted_label

import (
	"context"
	"strings"

	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// CaseVariant flags labels that differ from another label only in case.
type CaseVariant struct {
	base
}

var _ plugin.Detector = (*CaseVariant)(nil)

// NewCaseVariant returns a case_variant detector with default options.
func NewCaseVariant() *CaseVariant {
	return &CaseVariant{base{
		info: plugin.Info{
			Name:       "case_variant",
			Title:      "Case Variant",
			Group:      Group,
			Kind:       plugin.KindPattern,
			MaxInputs:  1,
			MaxOutputs: 1,
		},
		opts: plugin.NewOptions().Declare("column", cty.StringVal("")),
	}}
}

// ExpectedDetections implements plugin.Detector.
func (d *CaseVariant) ExpectedDetections() float64 { return 0 }

// Detect implements plugin.Detector. Each variant is paired with the most
// frequent spelling of its case-folded group.
func (d *CaseVariant) Detect(ctx context.Context, t *table.Table) (*table.Table, error) {
	column, err := d.column(t)
	if err != nil {
		return nil, err
	}
	labels, err := d.labels(t, column)
	if err != nil {
		return nil, err
	}

	canonical := make(map[string]*label)
	for _, l := range labels {
		key := strings.ToLower(l.value)
		c, ok := canonical[key]
		if !ok {
			canonical[key] = l
			continue
		}
		if _, to := finding(c, l); to == l {
			canonical[key] = l
		}
	}

	found := newFindings(d.info.Name)
	for _, l := range labels {
		c := canonical[strings.ToLower(l.value)]
		if c == l {
			continue
		}
		if err := found.Append(l.value, c.value, formatScore(1)); err != nil {
			return nil, err
		}
	}
	d.record(ctx, found)
	return found, nil
}
