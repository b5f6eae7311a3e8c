package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		steps   []*Step
		wantErr []string
	}{
		{
			name: "valid",
			steps: []*Step{
				{Type: "csv_reader", Name: "orders"},
				{Type: "print", Name: "out", Inputs: []string{"orders"}},
			},
		},
		{
			name: "duplicate and dangling",
			steps: []*Step{
				{Type: "csv_reader", Name: "orders"},
				{Type: "csv_reader", Name: "orders"},
				{Type: "print", Name: "out", Inputs: []string{"customers"}},
			},
			wantErr: []string{"defined more than once", "non-existent step 'customers'"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := (&Model{Steps: tc.steps}).Validate()
			if len(tc.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestModel_Step(t *testing.T) {
	m := &Model{Steps: []*Step{{Type: "print", Name: "out"}}}
	s, ok := m.Step("out")
	require.True(t, ok)
	assert.Equal(t, "print", s.Type)
	_, ok = m.Step("missing")
	assert.False(t, ok)
}
