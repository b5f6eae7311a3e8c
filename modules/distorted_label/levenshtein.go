package distorted_label

import (
	"context"
	"fmt"

	"github.com/agext/levenshtein"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// DefaultThreshold is the minimum similarity reported by the levenshtein
// detector.
const DefaultThreshold = 0.7

// Levenshtein flags pairs of distinct labels whose normalised edit-distance
// similarity is at least the threshold.
type Levenshtein struct {
	base
}

var _ plugin.Detector = (*Levenshtein)(nil)

// NewLevenshtein returns a levenshtein detector with default options.
func NewLevenshtein() *Levenshtein {
	return &Levenshtein{base{
		info: plugin.Info{
			Name:       "levenshtein",
			Title:      "Levenshtein",
			Group:      Group,
			Kind:       plugin.KindPattern,
			MaxInputs:  1,
			MaxOutputs: 1,
		},
		opts: plugin.NewOptions().
			Declare("column", cty.StringVal("")).
			Declare("threshold", cty.NumberFloatVal(DefaultThreshold)),
	}}
}

// ExpectedDetections implements plugin.Detector.
func (d *Levenshtein) ExpectedDetections() float64 { return 0.1 }

// Detect implements plugin.Detector.
func (d *Levenshtein) Detect(ctx context.Context, t *table.Table) (*table.Table, error) {
	threshold, err := d.opts.Float("threshold")
	if err != nil {
		return nil, err
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("levenshtein: threshold must be in (0, 1], got %v", threshold)
	}
	column, err := d.column(t)
	if err != nil {
		return nil, err
	}
	labels, err := d.labels(t, column)
	if err != nil {
		return nil, err
	}

	found := newFindings(d.info.Name)
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			score := levenshtein.Similarity(labels[i].value, labels[j].value, nil)
			if score < threshold || score >= 1 {
				continue
			}
			from, to := finding(labels[i], labels[j])
			if err := found.Append(from.value, to.value, formatScore(score)); err != nil {
				return nil, err
			}
		}
	}
	d.record(ctx, found)
	return found, nil
}
