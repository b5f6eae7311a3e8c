package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Graph {
	return &Graph{
		Vertices: []Vertex{
			{ID: 1, Type: "csv_reader", Position: Position{X: 50, Y: 50}, Label: "Orders"},
			{ID: 2, Type: "fast_detect", Position: Position{X: 300, Y: 50}, Label: "Scan", Expanded: true},
		},
		Connectors: []Connector{{SourceID: 1, TargetID: 2}},
	}
}

func TestEncodeDecode_JSONWireFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample(), JSON))

	out := buf.String()
	assert.Contains(t, out, `"sourceId": 1`)
	assert.Contains(t, out, `"targetId": 2`)
	assert.Contains(t, out, `"position": {`)

	g, err := Decode(strings.NewReader(out), JSON)
	require.NoError(t, err)
	assert.Equal(t, sample(), g)
}

func TestEncodeDecode_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample(), YAML))
	assert.Contains(t, buf.String(), "sourceId: 1")

	g, err := Decode(&buf, YAML)
	require.NoError(t, err)
	assert.Equal(t, sample(), g)
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"malformed json", `{"vertices": [`, "failed to parse json snapshot"},
		{"unknown field", `{"vertices": [], "connectors": [], "extra": 1}`, "unknown field"},
		{"dangling connector", `{"vertices": [{"id": 1, "type": "x"}], "connectors": [{"sourceId": 1, "targetId": 9}]}`, "unknown target"},
		{"duplicate id", `{"vertices": [{"id": 1, "type": "x"}, {"id": 1, "type": "y"}], "connectors": []}`, "duplicate id"},
		{"missing type", `{"vertices": [{"id": 3}], "connectors": []}`, "type is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.input), JSON)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, YAML, FormatFor("graph.yml"))
	assert.Equal(t, YAML, FormatFor("graph.YAML"))
	assert.Equal(t, JSON, FormatFor("graph.json"))
	assert.Equal(t, JSON, FormatFor("graph"))
}
