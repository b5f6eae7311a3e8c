package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the step's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// StepID uniquely identifies a step within a pipeline.
type StepID int

// Status is the run state of a step.
type Status int

const (
	Dormant Status = iota
	Running
	Paused
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Dormant:
		return "dormant"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is one unit of pipeline work backed by exactly one plugin.
type Step struct {
	id     StepID
	label  string
	plugin plugin.Plugin
	info   plugin.Info

	// Capability resolved from the kind tag at creation.
	reader   plugin.Reader
	writer   plugin.Writer
	action   plugin.Action
	detector plugin.Detector

	status     Status
	err        error
	output     *table.Table
	outputs    map[StepID]*table.Table
	detections *table.Table
	repair     *table.Table
	detectors  []*Step
}

// NewStep wraps p in a dormant step. It fails when p does not implement the
// capability its kind requires.
func NewStep(id StepID, label string, p plugin.Plugin) (*Step, error) {
	if err := plugin.CheckKind(p); err != nil {
		return nil, err
	}
	info := p.Info()
	if label == "" {
		label = info.Title
	}
	s := &Step{id: id, label: label, plugin: p, info: info}
	switch info.Kind {
	case plugin.KindReader:
		s.reader = p.(plugin.Reader)
	case plugin.KindWriter:
		s.writer = p.(plugin.Writer)
	case plugin.KindAction:
		s.action = p.(plugin.Action)
	case plugin.KindPattern:
		s.detector = p.(plugin.Detector)
	}
	return s, nil
}

func (s *Step) ID() StepID               { return s.id }
func (s *Step) Label() string            { return s.label }
func (s *Step) SetLabel(l string)        { s.label = l }
func (s *Step) Kind() plugin.Kind        { return s.info.Kind }
func (s *Step) Info() plugin.Info        { return s.info }
func (s *Step) Plugin() plugin.Plugin    { return s.plugin }
func (s *Step) Status() Status           { return s.status }
func (s *Step) Completed() bool          { return s.status == Completed }
func (s *Step) Err() error               { return s.err }
func (s *Step) Output() *table.Table     { return s.output }
func (s *Step) Detections() *table.Table { return s.detections }

// Reader returns the reader capability of a KindReader step.
func (s *Step) Reader() plugin.Reader { return s.reader }

// Writer returns the writer capability of a KindWriter step.
func (s *Step) Writer() plugin.Writer { return s.writer }

// Action returns the action capability of a KindAction step.
func (s *Step) Action() plugin.Action { return s.action }

// Detector returns the detector capability of a KindPattern step.
func (s *Step) Detector() plugin.Detector { return s.detector }

// Outputs returns a copy of the batch result map keyed by detector sub-step.
func (s *Step) Outputs() map[StepID]*table.Table {
	if s.outputs == nil {
		return nil
	}
	out := make(map[StepID]*table.Table, len(s.outputs))
	for k, v := range s.outputs {
		out[k] = v
	}
	return out
}

// Repair returns the pending repair payload, if any.
func (s *Step) Repair() *table.Table { return s.repair }

// SetRepair attaches the reviewer's repair payload to a paused step.
func (s *Step) SetRepair(changes *table.Table) { s.repair = changes }

// Detectors returns the selected detector sub-steps of a batch step.
func (s *Step) Detectors() []*Step {
	out := make([]*Step, len(s.detectors))
	copy(out, s.detectors)
	return out
}

// SetDetectors replaces the selected detector sub-steps of a batch step. Each
// must wrap a detector plugin.
func (s *Step) SetDetectors(ds []*Step) error {
	if s.info.Kind != plugin.KindBatch {
		return fmt.Errorf("step %d: only batch-detector steps take detectors", s.id)
	}
	for _, d := range ds {
		if d.detector == nil {
			return fmt.Errorf("step %d: sub-step %d is not a detector", s.id, d.id)
		}
	}
	sorted := make([]*Step, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })
	s.detectors = sorted
	return nil
}

func (s *Step) transition(to Status, from ...Status) error {
	for _, f := range from {
		if s.status == f {
			s.status = to
			return nil
		}
	}
	return fmt.Errorf("step %d (%s): %w: %s -> %s", s.id, s.label, ErrInvalidTransition, s.status, to)
}

// Start moves a dormant or failed step to running.
func (s *Step) Start() error {
	if err := s.transition(Running, Dormant, Failed); err != nil {
		return err
	}
	s.err = nil
	return nil
}

// Complete stores out as the primary output and marks the step completed.
func (s *Step) Complete(out *table.Table) error {
	if err := s.transition(Completed, Running); err != nil {
		return err
	}
	s.output = out
	return nil
}

// CompleteBatch stores the pass-through output and the per-detector results.
func (s *Step) CompleteBatch(out *table.Table, results map[StepID]*table.Table) error {
	if err := s.transition(Completed, Running); err != nil {
		return err
	}
	s.output = out
	s.outputs = results
	return nil
}

// Pause suspends a running step with its detection result awaiting review.
func (s *Step) Pause(detections *table.Table) error {
	if err := s.transition(Paused, Running); err != nil {
		return err
	}
	s.detections = detections
	return nil
}

// Resume moves a paused step back to running.
func (s *Step) Resume() error {
	return s.transition(Running, Paused)
}

// Fail marks a running step as failed with the underlying cause.
func (s *Step) Fail(err error) error {
	if terr := s.transition(Failed, Running); terr != nil {
		return terr
	}
	s.err = err
	return nil
}

// Rollback discards every result and returns the step to dormant.
func (s *Step) Rollback() {
	s.status = Dormant
	s.err = nil
	s.output = nil
	s.outputs = nil
	s.detections = nil
	s.repair = nil
}
