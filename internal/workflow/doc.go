// Package workflow is the interactive controller of the pipeline editor.
//
// The Controller owns every shape and connector on the canvas, a StepID to
// shape index, the current interaction mode and the selected primitive. It
// turns raw pointer events into graph edits and mirrors every connector it
// creates or removes into the abstract pipeline graph, so the two never drift.
//
// All mutations follow a two-phase contract: mutate, then Render. Render
// clears the surface and repaints from scratch; it has no side effects and
// may be called any number of times.
//
// # Expand and collapse
//
// A batch step can be shown either as a collapsed Vertex or as an
// ExpandedVertex listing its candidate detectors. Switching between the two
// is a graph rewrite: the connectors touching the old shape are detached,
// the shape is swapped, and each connector is re-attached to the matching
// port of the new shape. The pipeline edge set is the same before and after.
// A connector that cannot be re-attached is reported through a RewriteError
// rather than dropped silently.
//
// Detector sub-steps and their selection state live in a VisCache owned by
// the pipeline's editor session, so collapsing and re-expanding a step keeps
// the user's choices.
package workflow
