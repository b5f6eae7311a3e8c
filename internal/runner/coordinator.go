// Package runner executes a pipeline graph one step at a time.
//
// The Coordinator walks the graph in topological order and dispatches each
// step on its kind tag. A detector step that finds repairable imperfections
// pauses the run until a reviewer resumes it with a changes table. Rolling
// back a step invalidates everything downstream of it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
)

var (
	// ErrAwaitingReview is returned when advancing a run that has a paused
	// step.
	ErrAwaitingReview = errors.New("a step is paused awaiting review")
	// ErrNotPaused is returned by Resume when no step is paused.
	ErrNotPaused = errors.New("no step is paused")
)

// Outcome describes where a call to Run, Next or Resume left the pipeline.
type Outcome int

const (
	// OutcomeCompleted means every step has completed.
	OutcomeCompleted Outcome = iota
	// OutcomePaused means a step is waiting for review.
	OutcomePaused
	// OutcomeStepped means Next ran one step and more remain.
	OutcomeStepped
	// OutcomeFailed means a step failed; the error says which.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomePaused:
		return "paused"
	case OutcomeStepped:
		return "stepped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// StepError reports a plugin failure.
type StepError struct {
	StepID pipeline.StepID
	Label  string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.StepID, e.Label, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Coordinator runs a pipeline graph. It is not safe for concurrent use.
type Coordinator struct {
	logger    *slog.Logger
	graph     *pipeline.Graph
	listeners []Listener
	runID     string
}

// New creates a Coordinator for g.
func New(g *pipeline.Graph, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{logger: logger, graph: g}
}

// RunID returns the id of the current run, or "" before the first run.
func (c *Coordinator) RunID() string { return c.runID }

// Paused returns the step awaiting review, if any.
func (c *Coordinator) Paused() *pipeline.Step {
	for _, s := range c.graph.Steps() {
		if s.Status() == pipeline.Paused {
			return s
		}
	}
	return nil
}

// Run starts a new run and executes every step that has not completed yet.
// It stops at the first paused or failed step.
func (c *Coordinator) Run(ctx context.Context) (Outcome, error) {
	if p := c.Paused(); p != nil {
		return OutcomePaused, fmt.Errorf("%w: step %d (%s)", ErrAwaitingReview, p.ID(), p.Label())
	}
	c.runID = uuid.New().String()
	ctx = c.runContext(ctx)
	ctxlog.FromContext(ctx).Info("🚀 Starting pipeline run.", "step_count", c.graph.Len())
	return c.advance(ctx, 0)
}

// Next executes the next pending step only.
func (c *Coordinator) Next(ctx context.Context) (Outcome, error) {
	if p := c.Paused(); p != nil {
		return OutcomePaused, fmt.Errorf("%w: step %d (%s)", ErrAwaitingReview, p.ID(), p.Label())
	}
	if c.runID == "" {
		c.runID = uuid.New().String()
	}
	return c.advance(c.runContext(ctx), 1)
}

// Resume applies the reviewer's changes to the paused step, completes it and
// continues the run.
func (c *Coordinator) Resume(ctx context.Context, changes *table.Table) (Outcome, error) {
	s := c.Paused()
	if s == nil {
		return OutcomeCompleted, ErrNotPaused
	}
	ctx = c.runContext(ctx)
	logger := ctxlog.FromContext(ctx).With("step_id", s.ID())

	if err := s.Resume(); err != nil {
		return OutcomeFailed, err
	}
	s.SetRepair(changes)
	master, err := c.singleInput(s)
	if err == nil {
		master, err = s.Detector().Repair(ctxlog.WithLogger(ctx, logger), master, changes)
	}
	if err != nil {
		return OutcomeFailed, c.fail(ctx, s, err)
	}
	if err := s.Complete(master); err != nil {
		return OutcomeFailed, err
	}
	logger.Info("✅ Step repaired and completed.", "label", s.Label(), "rows", master.Len())
	c.emitCompleted(s)
	return c.advance(ctx, 0)
}

// Rollback returns a step and every non-dormant descendant to dormant,
// discarding their results.
func (c *Coordinator) Rollback(ctx context.Context, id pipeline.StepID) error {
	root, ok := c.graph.Step(id)
	if !ok {
		return fmt.Errorf("%w: %d", pipeline.ErrStepNotFound, id)
	}
	logger := ctxlog.FromContext(c.runContext(ctx))
	c.rollback(root)
	count := 1
	for _, did := range c.graph.Descendants(id) {
		d, _ := c.graph.Step(did)
		if d.Status() == pipeline.Dormant {
			continue
		}
		c.rollback(d)
		count++
	}
	logger.Info("↩️ Rolled back step.", "step_id", id, "rolled_back_count", count)
	return nil
}

// Reset rolls back every step that is not dormant.
func (c *Coordinator) Reset(ctx context.Context) error {
	order, err := c.graph.TopologicalOrder()
	if err != nil {
		return err
	}
	for _, s := range order {
		if s.Status() != pipeline.Dormant {
			c.rollback(s)
		}
	}
	ctxlog.FromContext(c.runContext(ctx)).Info("Pipeline reset.")
	c.runID = ""
	return nil
}

func (c *Coordinator) rollback(s *pipeline.Step) {
	s.Rollback()
	for _, sub := range s.Detectors() {
		sub.Rollback()
	}
	c.emitRolledBack(s)
}

func (c *Coordinator) runContext(ctx context.Context) context.Context {
	logger := c.logger
	if c.runID != "" {
		logger = logger.With("run_id", c.runID)
	}
	return ctxlog.WithLogger(ctx, logger)
}

// advance executes pending steps in topological order. limit > 0 caps the
// number of steps executed.
func (c *Coordinator) advance(ctx context.Context, limit int) (Outcome, error) {
	order, err := c.graph.TopologicalOrder()
	if err != nil {
		return OutcomeFailed, err
	}
	executed := 0
	for _, s := range order {
		if s.Completed() {
			continue
		}
		if limit > 0 && executed >= limit {
			return OutcomeStepped, nil
		}
		if err := ctx.Err(); err != nil {
			return OutcomeFailed, err
		}
		paused, err := c.execute(ctx, s)
		if err != nil {
			return OutcomeFailed, err
		}
		if paused {
			return OutcomePaused, nil
		}
		executed++
	}
	ctxlog.FromContext(ctx).Info("🏁 Pipeline completed.", "step_count", len(order))
	return OutcomeCompleted, nil
}

// execute runs one step. It reports whether the step paused.
func (c *Coordinator) execute(ctx context.Context, s *pipeline.Step) (bool, error) {
	ctx = ctxlog.With(ctx, "step_id", s.ID())
	logger := ctxlog.FromContext(ctx)

	if err := s.Start(); err != nil {
		return false, err
	}
	logger.Info("▶️ Step started.", "label", s.Label(), "kind", s.Kind())
	c.emitStarted(s)

	inputs := c.inputs(s)
	var out *table.Table
	var err error
	switch s.Kind() {
	case plugin.KindReader:
		out, err = s.Reader().Read(ctx)
	case plugin.KindAction:
		out, err = s.Action().Run(ctx, inputs)
	case plugin.KindWriter:
		out, err = c.singleInput(s)
		if err == nil {
			err = s.Writer().Write(ctx, out)
		}
	case plugin.KindBatch:
		return false, c.runBatch(ctx, s)
	case plugin.KindPattern:
		return c.runPattern(ctx, s)
	default:
		err = fmt.Errorf("unsupported step kind %s", s.Kind())
	}
	if err != nil {
		return false, c.fail(ctx, s, err)
	}
	if out == nil {
		out = table.New(s.Label())
	}
	return false, c.complete(ctx, s, out)
}

func (c *Coordinator) complete(ctx context.Context, s *pipeline.Step, out *table.Table) error {
	if err := s.Complete(out); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("✅ Step completed.", "rows", out.Len())
	c.emitCompleted(s)
	return nil
}

// runPattern runs a review-required detector. Repairable findings pause the
// step; otherwise the input passes through.
func (c *Coordinator) runPattern(ctx context.Context, s *pipeline.Step) (bool, error) {
	in, err := c.singleInput(s)
	if err != nil {
		return false, c.fail(ctx, s, err)
	}
	d := s.Detector()
	found, err := d.Detect(ctx, in)
	if err != nil {
		return false, c.fail(ctx, s, err)
	}
	if d.CanRepair() && found.Len() > 0 {
		if err := s.Pause(found); err != nil {
			return false, err
		}
		ctxlog.FromContext(ctx).Info("⏸️ Step paused for review.", "detections", found.Len())
		c.emitPaused(s)
		return true, nil
	}
	return false, c.complete(ctx, s, in)
}

// runBatch runs every selected detector against the single input. The input
// is passed through as the primary output.
func (c *Coordinator) runBatch(ctx context.Context, s *pipeline.Step) error {
	in, err := c.singleInput(s)
	if err != nil {
		return c.fail(ctx, s, err)
	}
	logger := ctxlog.FromContext(ctx)
	results := make(map[pipeline.StepID]*table.Table)
	for _, sub := range s.Detectors() {
		sub.Rollback()
		if err := sub.Start(); err != nil {
			return err
		}
		found, err := sub.Detector().Detect(ctxlog.With(ctx, "detector", sub.Info().Name), in)
		if err != nil {
			_ = sub.Fail(err)
			return c.fail(ctx, s, fmt.Errorf("detector %s: %w", sub.Info().Name, err))
		}
		if err := sub.Complete(found); err != nil {
			return err
		}
		results[sub.ID()] = found
		logger.Debug("Detector finished.", "detector", sub.Info().Name, "detections", found.Len())
	}
	if err := s.CompleteBatch(in, results); err != nil {
		return err
	}
	logger.Info("✅ Step completed.", "rows", in.Len(), "detector_count", len(results))
	c.emitCompleted(s)
	return nil
}

func (c *Coordinator) fail(ctx context.Context, s *pipeline.Step, cause error) error {
	if err := s.Fail(cause); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Error("Step failed.", "label", s.Label(), "error", cause)
	c.emitFailed(s, cause)
	return &StepError{StepID: s.ID(), Label: s.Label(), Err: cause}
}

// inputs returns the upstream outputs in edge order.
func (c *Coordinator) inputs(s *pipeline.Step) []*table.Table {
	ids := c.graph.Inputs(s.ID())
	out := make([]*table.Table, 0, len(ids))
	for _, id := range ids {
		up, _ := c.graph.Step(id)
		out = append(out, up.Output())
	}
	return out
}

func (c *Coordinator) singleInput(s *pipeline.Step) (*table.Table, error) {
	in := c.inputs(s)
	if len(in) != 1 {
		return nil, fmt.Errorf("%s step needs exactly one input, has %d", s.Kind(), len(in))
	}
	return in[0], nil
}
