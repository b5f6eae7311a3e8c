package pipeline

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrStepNotFound  = errors.New("step not found")
	ErrDuplicateStep = errors.New("duplicate step")
	ErrSelfEdge      = errors.New("self-referential edge not allowed")
	ErrDuplicateEdge = errors.New("edge already exists")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrCycle         = errors.New("cycle detected")
	ErrArity         = errors.New("arity exceeded")
)

// Edge is a directed connection: To consumes the output of From.
type Edge struct {
	From StepID
	To   StepID
}

// Graph is the abstract pipeline: steps plus the edges between them.
type Graph struct {
	// nodes stores all steps in the graph, keyed by their unique ID.
	nodes  map[StepID]*node
	nextID StepID
}

// node keeps edge order, since the order of a step's inputs is the order its
// plugin receives the upstream tables in.
type node struct {
	step    *Step
	inputs  []StepID
	outputs []StepID
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[StepID]*node), nextID: 1}
}

// NextID allocates an identifier that no step in this graph uses yet. It is
// also used for detector sub-steps, which never join the graph itself.
func (g *Graph) NextID() StepID {
	id := g.nextID
	g.nextID++
	return id
}

// Add inserts a step. Its ID must be unique in the graph.
func (g *Graph) Add(s *Step) error {
	if _, ok := g.nodes[s.id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateStep, s.id)
	}
	g.nodes[s.id] = &node{step: s}
	if s.id >= g.nextID {
		g.nextID = s.id + 1
	}
	return nil
}

// Remove deletes a step together with every edge touching it. The removed
// edges are returned.
func (g *Graph) Remove(id StepID) ([]Edge, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStepNotFound, id)
	}
	var removed []Edge
	for _, from := range append([]StepID(nil), n.inputs...) {
		g.unlink(from, id)
		removed = append(removed, Edge{From: from, To: id})
	}
	for _, to := range append([]StepID(nil), n.outputs...) {
		g.unlink(id, to)
		removed = append(removed, Edge{From: id, To: to})
	}
	delete(g.nodes, id)
	return removed, nil
}

// Step returns the step with the given ID.
func (g *Graph) Step(id StepID) (*Step, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.step, true
}

// Steps returns all steps ordered by ID.
func (g *Graph) Steps() []*Step {
	out := make([]*Step, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.step)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Len returns the number of steps.
func (g *Graph) Len() int { return len(g.nodes) }

// Connect adds the edge from -> to. It rejects self edges, duplicates, edges
// whose endpoints lack the needed port, edges past the target's input arity,
// and edges that would close a cycle. On error the graph is unchanged.
func (g *Graph) Connect(from, to StepID) error {
	if from == to {
		return fmt.Errorf("%w: %d -> %d", ErrSelfEdge, from, to)
	}
	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("source %w: %d", ErrStepNotFound, from)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("destination %w: %d", ErrStepNotFound, to)
	}
	if g.HasEdge(from, to) {
		return fmt.Errorf("%w: %d -> %d", ErrDuplicateEdge, from, to)
	}
	if !src.step.info.ProducesOutput() {
		return fmt.Errorf("%w: step %d has no output", ErrArity, from)
	}
	if limit := dst.step.info.MaxInputs; limit >= 0 && len(dst.inputs) >= limit {
		return fmt.Errorf("%w: step %d accepts at most %d input(s)", ErrArity, to, limit)
	}
	if g.reaches(to, from) {
		return fmt.Errorf("%w: %d -> %d would close a loop", ErrCycle, from, to)
	}

	src.outputs = append(src.outputs, to)
	dst.inputs = append(dst.inputs, from)
	return nil
}

// Disconnect removes the edge from -> to.
func (g *Graph) Disconnect(from, to StepID) error {
	if !g.HasEdge(from, to) {
		return fmt.Errorf("%w: %d -> %d", ErrEdgeNotFound, from, to)
	}
	g.unlink(from, to)
	return nil
}

func (g *Graph) unlink(from, to StepID) {
	if src, ok := g.nodes[from]; ok {
		src.outputs = without(src.outputs, to)
	}
	if dst, ok := g.nodes[to]; ok {
		dst.inputs = without(dst.inputs, from)
	}
}

func without(ids []StepID, id StepID) []StepID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to StepID) bool {
	src, ok := g.nodes[from]
	if !ok {
		return false
	}
	for _, x := range src.outputs {
		if x == to {
			return true
		}
	}
	return false
}

// Inputs returns the upstream steps of id in connection order.
func (g *Graph) Inputs(id StepID) []StepID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return append([]StepID(nil), n.inputs...)
}

// Outputs returns the downstream steps of id in connection order.
func (g *Graph) Outputs(id StepID) []StepID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return append([]StepID(nil), n.outputs...)
}

// Edges returns every edge, ordered by source then target.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for id, n := range g.nodes {
		for _, to := range n.outputs {
			out = append(out, Edge{From: id, To: to})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// reaches reports whether target is reachable from start.
func (g *Graph) reaches(start, target StepID) bool {
	seen := map[StepID]bool{}
	stack := []StepID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := g.nodes[id]; ok {
			stack = append(stack, n.outputs...)
		}
	}
	return false
}

// Descendants returns every step reachable downstream of id, in topological
// order. id itself is not included.
func (g *Graph) Descendants(id StepID) []StepID {
	reach := map[StepID]bool{}
	var visit func(StepID)
	visit = func(cur StepID) {
		n, ok := g.nodes[cur]
		if !ok {
			return
		}
		for _, next := range n.outputs {
			if !reach[next] {
				reach[next] = true
				visit(next)
			}
		}
	}
	visit(id)

	order, err := g.TopologicalOrder()
	if err != nil {
		// Cycles cannot be built through Connect; fall back to ID order.
		out := make([]StepID, 0, len(reach))
		for x := range reach {
			out = append(out, x)
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	out := make([]StepID, 0, len(reach))
	for _, s := range order {
		if reach[s.id] {
			out = append(out, s.id)
		}
	}
	return out
}

// TopologicalOrder returns the steps so that every step follows all of its
// inputs. Among steps that are ready at the same time the lower ID goes first.
func (g *Graph) TopologicalOrder() ([]*Step, error) {
	indegree := make(map[StepID]int, len(g.nodes))
	var ready []StepID
	for id, n := range g.nodes {
		indegree[id] = len(n.inputs)
		if len(n.inputs) == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]*Step, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		n := g.nodes[id]
		out = append(out, n.step)
		for _, next := range n.outputs {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(out) != len(g.nodes) {
		return nil, g.DetectCycles()
	}
	return out, nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first step involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	// permanent: fully visited and not part of a cycle.
	// temporary: on the current recursion stack.
	permanent := make(map[StepID]bool)
	temporary := make(map[StepID]bool)

	var visit func(id StepID) error
	visit = func(id StepID) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("%w involving step %d", ErrCycle, id)
		}
		temporary[id] = true
		for _, next := range g.nodes[id].outputs {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, s := range g.Steps() {
		if err := visit(s.id); err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the contents of g for those of other. Components holding g
// keep a valid pointer while the pipeline behind it changes wholesale.
func (g *Graph) Replace(other *Graph) {
	g.nodes = other.nodes
	g.nextID = other.nextID
	other.nodes = make(map[StepID]*node)
}
