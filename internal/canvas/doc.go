// Package canvas holds the visual graph primitives of the pipeline editor:
// vertices, expanded vertices, ports, connectors, mini vertices, checkboxes
// and the expand toggle.
//
// Primitives are positioned, hit-testable shapes and nothing more. They hold
// no interaction logic; the workflow controller arbitrates every pointer
// event. Child positions (ports, toggles, mini vertices, checkboxes) are
// derived from their owner's origin on demand, so moving a shape never needs
// a layout pass and rendering never mutates state.
//
// Painting goes through the Surface interface. Recorder is an in-memory
// Surface producing a display list, used by the HTTP API and by tests.
package canvas
