package runner

import "github.com/vk/pipecanvas/internal/pipeline"

// Listener receives step lifecycle events. Calls are synchronous and made in
// registration order.
type Listener interface {
	StepStarted(s *pipeline.Step)
	StepCompleted(s *pipeline.Step)
	StepPaused(s *pipeline.Step)
	StepRolledBack(s *pipeline.Step)
}

// FailureListener is implemented by listeners that also want failures.
type FailureListener interface {
	StepFailed(s *pipeline.Step, err error)
}

// AddListener registers l for every subsequent event.
func (c *Coordinator) AddListener(l Listener) {
	c.listeners = append(c.listeners, l)
}

func (c *Coordinator) emitStarted(s *pipeline.Step) {
	for _, l := range c.listeners {
		l.StepStarted(s)
	}
}

func (c *Coordinator) emitCompleted(s *pipeline.Step) {
	for _, l := range c.listeners {
		l.StepCompleted(s)
	}
}

func (c *Coordinator) emitPaused(s *pipeline.Step) {
	for _, l := range c.listeners {
		l.StepPaused(s)
	}
}

func (c *Coordinator) emitRolledBack(s *pipeline.Step) {
	for _, l := range c.listeners {
		l.StepRolledBack(s)
	}
}

func (c *Coordinator) emitFailed(s *pipeline.Step, err error) {
	for _, l := range c.listeners {
		if fl, ok := l.(FailureListener); ok {
			fl.StepFailed(s, err)
		}
	}
}
