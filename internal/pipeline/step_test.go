package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/table"
)

func TestNewStep_KindMismatch(t *testing.T) {
	_, err := NewStep(1, "", stubPlugin{info: plugin.Info{Name: "bad", Kind: plugin.KindReader}})
	assert.ErrorContains(t, err, "does not implement its interface")
}

func TestStep_Transitions(t *testing.T) {
	g := New()
	s := newTestStep(t, g, 1)
	out := table.New("out", "a")

	assert.Equal(t, Dormant, s.Status())
	assert.Equal(t, "Stub", s.Label(), "label defaults to the plugin title")

	require.NoError(t, s.Start())
	require.NoError(t, s.Pause(out))
	assert.Equal(t, Paused, s.Status())
	assert.Same(t, out, s.Detections())

	err := s.Complete(out)
	assert.ErrorIs(t, err, ErrInvalidTransition, "a paused step must be resumed first")

	require.NoError(t, s.Resume())
	require.NoError(t, s.Complete(out))
	assert.True(t, s.Completed())
	assert.Same(t, out, s.Output())

	s.Rollback()
	assert.Equal(t, Dormant, s.Status())
	assert.Nil(t, s.Output())
	assert.Nil(t, s.Detections())
}

func TestStep_FailAndRetry(t *testing.T) {
	g := New()
	s := newTestStep(t, g, 1)
	cause := errors.New("boom")

	require.NoError(t, s.Start())
	require.NoError(t, s.Fail(cause))
	assert.Equal(t, Failed, s.Status())
	assert.ErrorIs(t, s.Err(), cause)

	require.NoError(t, s.Start(), "failed steps can be retried")
	assert.NoError(t, s.Err())
}

func TestStep_SetDetectors(t *testing.T) {
	g := New()
	action := newTestStep(t, g, 1)

	err := action.SetDetectors(nil)
	assert.ErrorContains(t, err, "only batch-detector steps")
}
