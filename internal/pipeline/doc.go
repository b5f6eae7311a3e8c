// Package pipeline is the abstract graph the execution coordinator walks.
//
// A Graph holds Steps and the directed edges between them. The visual editor
// mirrors every connector it creates or removes into this graph, so the
// pipeline is always the authoritative description of what will run and in
// which order. Structural rules live here: no self edges, no duplicate edges,
// no cycles, and no more inputs than a step's plugin accepts.
//
// A Step owns its run state. The status transitions (Start, Complete, Pause,
// Resume, Fail, Rollback) are methods on Step so that the state machine is
// enforced in one place, whichever component drives it.
//
// Neither type is safe for concurrent use. The editor runs on a single logical
// thread of control and whoever owns the graph serializes access to it.
package pipeline
