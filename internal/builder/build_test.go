package builder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipecanvas/internal/builder"
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/config"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/testutil"
	"github.com/vk/pipecanvas/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

func newController() *workflow.Controller {
	r := plugin.NewRegistry()
	r.Register(func() plugin.Plugin {
		f := testutil.NewReader("csv_reader", nil)
		f.Opts = plugin.NewOptions().Declare("path", cty.StringVal(""))
		return f
	})
	r.Register(func() plugin.Plugin { return testutil.NewBatch("fast_detect") })
	r.Register(func() plugin.Plugin { return testutil.NewWriter("print") })
	r.Register(func() plugin.Plugin { return testutil.NewDetector("levenshtein", "Distorted Label") })
	r.Register(func() plugin.Plugin { return testutil.NewDetector("case_variant", "Distorted Label") })
	return workflow.New(workflow.Config{Registry: r})
}

func TestBuild(t *testing.T) {
	ctrl := newController()
	model := &config.Model{Steps: []*config.Step{
		{
			Type:     "csv_reader",
			Name:     "orders",
			Label:    "Orders",
			Position: &config.Position{X: 10, Y: 20},
			Options:  map[string]cty.Value{"path": cty.StringVal("orders.csv")},
		},
		{Type: "fast_detect", Name: "scan", Inputs: []string{"orders"}, Detectors: []string{"case_variant"}, Expanded: true},
		{Type: "print", Name: "out", Inputs: []string{"scan"}},
	}}

	ids, err := builder.Build(context.Background(), model, ctrl)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	g := ctrl.Pipeline()
	assert.Equal(t, []pipeline.Edge{
		{From: ids["orders"], To: ids["scan"]},
		{From: ids["scan"], To: ids["out"]},
	}, g.Edges())

	orders, _ := g.Step(ids["orders"])
	assert.Equal(t, "Orders", orders.Label())
	path, err := orders.Plugin().Options().String("path")
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", path)
	shape, _ := ctrl.Shape(ids["orders"])
	assert.Equal(t, canvas.Point{X: 10, Y: 20}, shape.Origin())

	scan, _ := g.Step(ids["scan"])
	require.Len(t, scan.Detectors(), 1)
	assert.Equal(t, "case_variant", scan.Detectors()[0].Info().Name)
	shape, _ = ctrl.Shape(ids["scan"])
	_, expanded := shape.(*canvas.ExpandedVertex)
	assert.True(t, expanded)
	assert.Len(t, ctrl.Connectors(), 2)

	out, _ := g.Step(ids["out"])
	assert.Equal(t, "print", out.Label(), "label defaults to the plugin title")
}

func TestBuild_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		steps   []*config.Step
		wantErr string
	}{
		{
			name:    "unknown plugin",
			steps:   []*config.Step{{Type: "ghost", Name: "a"}},
			wantErr: "unknown plugin",
		},
		{
			name: "unknown option",
			steps: []*config.Step{{Type: "csv_reader", Name: "a", Options: map[string]cty.Value{
				"colour": cty.StringVal("red"),
			}}},
			wantErr: "colour",
		},
		{
			name: "input into a reader",
			steps: []*config.Step{
				{Type: "csv_reader", Name: "a"},
				{Type: "csv_reader", Name: "b", Inputs: []string{"a"}},
			},
			wantErr: "error linking 'a' to 'b'",
		},
		{
			name: "cycle",
			steps: []*config.Step{
				{Type: "print", Name: "a", Inputs: []string{"b"}},
				{Type: "fast_detect", Name: "b", Inputs: []string{"a"}},
			},
			wantErr: "would close a loop",
		},
		{
			name:    "unknown detector",
			steps:   []*config.Step{{Type: "fast_detect", Name: "a", Detectors: []string{"jaro"}}},
			wantErr: "jaro",
		},
		{
			name:    "dangling input",
			steps:   []*config.Step{{Type: "print", Name: "a", Inputs: []string{"nope"}}},
			wantErr: "non-existent step 'nope'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.Build(context.Background(), &config.Model{Steps: tc.steps}, newController())
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
