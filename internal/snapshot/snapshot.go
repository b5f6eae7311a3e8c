// Package snapshot defines the persisted form of an editor graph: the
// vertices with their position and label, and the connectors between them.
// Replaying the connectors is enough to rebuild the pipeline graph.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every structural problem found by Validate.
var ErrInvalid = errors.New("invalid snapshot")

// Format selects the encoding of a snapshot.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFor picks the format from a file extension; anything that is not
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Graph is a minimal snapshot of the editor graph.
type Graph struct {
	Vertices   []Vertex    `json:"vertices" yaml:"vertices"`
	Connectors []Connector `json:"connectors" yaml:"connectors"`
}

// Vertex is one step's visual representation.
type Vertex struct {
	ID       int      `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
	Label    string   `json:"label" yaml:"label"`
	Expanded bool     `json:"expanded,omitempty" yaml:"expanded,omitempty"`
}

// Position is a vertex origin in canvas space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Connector references its endpoints by vertex ID.
type Connector struct {
	SourceID int `json:"sourceId" yaml:"sourceId"`
	TargetID int `json:"targetId" yaml:"targetId"`
}

// Validate checks identity and referential integrity. It reports every
// problem it finds, joined.
func (g *Graph) Validate() error {
	var errs []error
	ids := make(map[int]bool, len(g.Vertices))
	for i, v := range g.Vertices {
		if v.ID <= 0 {
			errs = append(errs, fmt.Errorf("vertex %d: id must be positive, got %d", i, v.ID))
		}
		if v.Type == "" {
			errs = append(errs, fmt.Errorf("vertex %d: type is required", v.ID))
		}
		if ids[v.ID] {
			errs = append(errs, fmt.Errorf("vertex %d: duplicate id", v.ID))
		}
		ids[v.ID] = true
	}
	seen := make(map[Connector]bool, len(g.Connectors))
	for _, c := range g.Connectors {
		if !ids[c.SourceID] {
			errs = append(errs, fmt.Errorf("connector %d->%d: unknown source", c.SourceID, c.TargetID))
		}
		if !ids[c.TargetID] {
			errs = append(errs, fmt.Errorf("connector %d->%d: unknown target", c.SourceID, c.TargetID))
		}
		if seen[c] {
			errs = append(errs, fmt.Errorf("connector %d->%d: duplicate", c.SourceID, c.TargetID))
		}
		seen[c] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Decode reads and validates a snapshot. Unknown JSON fields are rejected.
func Decode(r io.Reader, format Format) (*Graph, error) {
	var g Graph
	switch format {
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&g); err != nil {
			return nil, fmt.Errorf("failed to parse yaml snapshot: %w", err)
		}
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&g); err != nil {
			return nil, fmt.Errorf("failed to parse json snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Encode writes a snapshot in the given format.
func Encode(w io.Writer, g *Graph, format Format) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("failed to encode yaml snapshot: %w", err)
		}
		return enc.Close()
	case JSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("failed to encode json snapshot: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unsupported snapshot format %q", format)
	}
}
