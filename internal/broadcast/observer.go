// Package broadcast mirrors pipeline lifecycle events onto socket.io.
//
// The Observer turns coordinator callbacks into named events with a JSON
// payload, the Server fans them out to every connected editor, and Watch
// tails them from another process.
package broadcast

import (
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/runner"
)

// Lifecycle event names.
const (
	EventStarted   = "step:started"
	EventCompleted = "step:completed"
	EventPaused    = "step:paused"
	EventRollback  = "step:rollback"
	EventFailed    = "step:failed"
)

// Events lists every lifecycle event name.
var Events = []string{EventStarted, EventCompleted, EventPaused, EventRollback, EventFailed}

// Payload is the body of every lifecycle event.
type Payload struct {
	RunID  string          `json:"runId"`
	StepID pipeline.StepID `json:"stepId"`
	Label  string          `json:"label"`
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
}

// EmitFunc publishes one event.
type EmitFunc func(event string, p Payload)

// Observer is a runner.Listener that publishes every event through emit.
type Observer struct {
	emit  EmitFunc
	runID func() string
}

var (
	_ runner.Listener        = (*Observer)(nil)
	_ runner.FailureListener = (*Observer)(nil)
)

// NewObserver returns an Observer. runID is called per event and may be nil.
func NewObserver(emit EmitFunc, runID func() string) *Observer {
	if runID == nil {
		runID = func() string { return "" }
	}
	return &Observer{emit: emit, runID: runID}
}

func (o *Observer) publish(event string, s *pipeline.Step, err error) {
	p := Payload{
		RunID:  o.runID(),
		StepID: s.ID(),
		Label:  s.Label(),
		Status: s.Status().String(),
	}
	if err != nil {
		p.Error = err.Error()
	}
	o.emit(event, p)
}

func (o *Observer) StepStarted(s *pipeline.Step)           { o.publish(EventStarted, s, nil) }
func (o *Observer) StepCompleted(s *pipeline.Step)         { o.publish(EventCompleted, s, nil) }
func (o *Observer) StepPaused(s *pipeline.Step)            { o.publish(EventPaused, s, nil) }
func (o *Observer) StepRolledBack(s *pipeline.Step)        { o.publish(EventRollback, s, nil) }
func (o *Observer) StepFailed(s *pipeline.Step, err error) { o.publish(EventFailed, s, err) }
