package broadcast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/runner"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/vk/pipecanvas/internal/testutil"
	"github.com/vk/pipecanvas/internal/workflow"
)

type sent struct {
	event string
	p     Payload
}

func TestObserver_MirrorsCoordinatorEvents(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register(testutil.Shared(testutil.NewReader("src", table.New("t", "a"))))
	bad := testutil.NewWriter("sink")
	bad.WriteFn = func(context.Context, *table.Table) error { return errors.New("disk full") }
	r.Register(testutil.Shared(bad))

	ctrl := workflow.New(workflow.Config{Registry: r})
	src, err := ctrl.AddStep("src")
	require.NoError(t, err)
	sink, err := ctrl.AddStep("sink")
	require.NoError(t, err)
	require.NoError(t, ctrl.Rename(sink.Step().ID(), "Archive"))
	_, err = ctrl.ConnectSteps(src.Step().ID(), sink.Step().ID())
	require.NoError(t, err)

	coord := runner.New(ctrl.Pipeline(), nil)
	var log []sent
	coord.AddListener(NewObserver(func(event string, p Payload) {
		log = append(log, sent{event, p})
	}, coord.RunID))

	_, err = coord.Run(context.Background())
	require.Error(t, err)
	require.NoError(t, coord.Rollback(context.Background(), src.Step().ID()))

	var events []string
	for _, s := range log {
		events = append(events, s.event)
	}
	assert.Equal(t, []string{
		EventStarted, EventCompleted,
		EventStarted, EventFailed,
		EventRollback, EventRollback,
	}, events)

	failed := log[3].p
	assert.Equal(t, sink.Step().ID(), failed.StepID)
	assert.Equal(t, "Archive", failed.Label)
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "disk full", failed.Error)
	assert.NotEmpty(t, failed.RunID)
	assert.Equal(t, coord.RunID(), failed.RunID)
	assert.Empty(t, log[0].p.Error)
}

func TestDecodePayload(t *testing.T) {
	p, err := decodePayload(map[string]any{
		"runId":  "r1",
		"stepId": float64(7),
		"label":  "Orders",
		"status": "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, Payload{RunID: "r1", StepID: 7, Label: "Orders", Status: "completed"}, p)

	_, err = decodePayload(map[string]any{"stepId": "seven"})
	assert.Error(t, err)
}
