package runner_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipecanvas/internal/pipeline"
	"github.com/vk/pipecanvas/internal/runner"
	"github.com/vk/pipecanvas/internal/table"
	"github.com/vk/pipecanvas/internal/testutil"
)

type eventLog struct {
	events []string
}

func (l *eventLog) add(kind string, s *pipeline.Step) {
	l.events = append(l.events, fmt.Sprintf("%s:%s", kind, s.Label()))
}

func (l *eventLog) StepStarted(s *pipeline.Step)         { l.add("started", s) }
func (l *eventLog) StepCompleted(s *pipeline.Step)       { l.add("completed", s) }
func (l *eventLog) StepPaused(s *pipeline.Step)          { l.add("paused", s) }
func (l *eventLog) StepRolledBack(s *pipeline.Step)      { l.add("rollback", s) }
func (l *eventLog) StepFailed(s *pipeline.Step, _ error) { l.add("failed", s) }

func (l *eventLog) reset() { l.events = nil }

type fixture struct {
	graph *pipeline.Graph
	coord *runner.Coordinator
	log   *eventLog
}

func newFixture() *fixture {
	g := pipeline.New()
	c := runner.New(g, nil)
	l := &eventLog{}
	c.AddListener(l)
	return &fixture{graph: g, coord: c, log: l}
}

func (f *fixture) add(t *testing.T, label string, p *testutil.Fake) *pipeline.Step {
	t.Helper()
	s, err := pipeline.NewStep(f.graph.NextID(), label, p)
	require.NoError(t, err)
	require.NoError(t, f.graph.Add(s))
	return s
}

func (f *fixture) connect(t *testing.T, steps ...*pipeline.Step) {
	t.Helper()
	for i := 1; i < len(steps); i++ {
		require.NoError(t, f.graph.Connect(steps[i-1].ID(), steps[i].ID()))
	}
}

func names() *table.Table {
	t := table.New("names", "name")
	for _, n := range []string{"Anna", "anna", "Bob"} {
		_ = t.Append(n)
	}
	return t
}

func TestRun_LinearPipeline(t *testing.T) {
	f := newFixture()
	sink := testutil.NewWriter("sink")
	var written *table.Table
	sink.WriteFn = func(_ context.Context, in *table.Table) error {
		written = in
		return nil
	}
	read := f.add(t, "read", testutil.NewReader("read", names()))
	act := f.add(t, "act", testutil.NewAction("act", 1))
	write := f.add(t, "write", sink)
	f.connect(t, read, act, write)

	outcome, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeCompleted, outcome)
	assert.NotEmpty(t, f.coord.RunID())

	assert.Equal(t, []string{
		"started:read", "completed:read",
		"started:act", "completed:act",
		"started:write", "completed:write",
	}, f.log.events)
	require.NotNil(t, written)
	assert.Equal(t, 3, written.Len())
	assert.Equal(t, written, write.Output(), "writers pass their input through")
}

func TestRun_BatchDetectorScenario(t *testing.T) {
	f := newFixture()
	read := f.add(t, "read", testutil.NewReader("read", names()))
	batch := f.add(t, "scan", testutil.NewBatch("fast_detect"))
	f.connect(t, read, batch)

	jaro, err := pipeline.NewStep(f.graph.NextID(), "Jaro-Winkler", testutil.NewDetector("jaro", "Distorted Label", "Anna~anna"))
	require.NoError(t, err)
	test1, err := pipeline.NewStep(f.graph.NextID(), "Test1", testutil.NewDetector("test1", "Distorted Label"))
	require.NoError(t, err)
	require.NoError(t, batch.SetDetectors([]*pipeline.Step{test1, jaro}))

	outcome, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeCompleted, outcome)

	outputs := batch.Outputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, 1, outputs[jaro.ID()].Len())
	assert.Equal(t, 0, outputs[test1.ID()].Len())
	assert.Equal(t, read.Output(), batch.Output(), "primary output is the input unchanged")
	assert.True(t, jaro.Completed())
	assert.Equal(t, 2, f.graph.Len(), "detector sub-steps never join the graph")
}

func TestRun_BatchNeedsExactlyOneInput(t *testing.T) {
	f := newFixture()
	batch := f.add(t, "scan", testutil.NewBatch("fast_detect"))

	outcome, err := f.coord.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, runner.OutcomeFailed, outcome)
	var se *runner.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.ID(), se.StepID)
	assert.Equal(t, pipeline.Failed, batch.Status())
}

func TestPauseResume(t *testing.T) {
	f := newFixture()
	det := testutil.NewDetector("levenshtein", "Distorted Label", "Anna~anna")
	det.Repairable = true
	var gotChanges *table.Table
	det.RepairFn = func(_ context.Context, master, changes *table.Table) (*table.Table, error) {
		gotChanges = changes
		out := table.New(master.Name, master.Columns...)
		_ = out.Append("Anna")
		_ = out.Append("Anna")
		_ = out.Append("Bob")
		return out, nil
	}
	sink := testutil.NewWriter("sink")

	read := f.add(t, "read", testutil.NewReader("read", names()))
	review := f.add(t, "review", det)
	write := f.add(t, "write", sink)
	f.connect(t, read, review, write)

	ctx := context.Background()
	outcome, err := f.coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomePaused, outcome)
	assert.Equal(t, pipeline.Paused, review.Status())
	assert.Equal(t, 1, review.Detections().Len())
	assert.Empty(t, sink.Calls(), "nothing downstream of a paused step runs")
	assert.Same(t, review, f.coord.Paused())
	assert.Contains(t, f.log.events, "paused:review")

	_, err = f.coord.Run(ctx)
	require.ErrorIs(t, err, runner.ErrAwaitingReview)
	_, err = f.coord.Next(ctx)
	require.ErrorIs(t, err, runner.ErrAwaitingReview)

	changes := table.New("changes", "from", "to")
	require.NoError(t, changes.Append("anna", "Anna"))
	outcome, err = f.coord.Resume(ctx, changes)
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeCompleted, outcome)

	assert.Same(t, changes, gotChanges)
	assert.Same(t, changes, review.Repair())
	assert.True(t, review.Completed())
	vals, err := write.Output().Values("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Anna", "Bob"}, vals)

	_, err = f.coord.Resume(ctx, nil)
	require.ErrorIs(t, err, runner.ErrNotPaused)
}

func TestPattern_WithoutRepairPassesThrough(t *testing.T) {
	f := newFixture()
	read := f.add(t, "read", testutil.NewReader("read", names()))
	review := f.add(t, "review", testutil.NewDetector("case_variant", "Distorted Label", "anna"))
	f.connect(t, read, review)

	outcome, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeCompleted, outcome)
	assert.Equal(t, read.Output(), review.Output())
}

func TestRollback_CascadesDownstream(t *testing.T) {
	testCases := []struct {
		name          string
		rollback      int
		wantDormant   []string
		wantCompleted []string
		wantReads     int
	}{
		{"from the source", 0, []string{"read", "act", "write"}, nil, 2},
		{"from the middle", 1, []string{"act", "write"}, []string{"read"}, 1},
		{"the sink only", 2, []string{"write"}, []string{"read", "act"}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			reader := testutil.NewReader("read", names())
			steps := []*pipeline.Step{
				f.add(t, "read", reader),
				f.add(t, "act", testutil.NewAction("act", 1)),
				f.add(t, "write", testutil.NewWriter("write")),
			}
			f.connect(t, steps...)
			ctx := context.Background()
			_, err := f.coord.Run(ctx)
			require.NoError(t, err)
			f.log.reset()

			require.NoError(t, f.coord.Rollback(ctx, steps[tc.rollback].ID()))

			var rolled []string
			for _, s := range steps {
				switch s.Status() {
				case pipeline.Dormant:
					rolled = append(rolled, s.Label())
					assert.Nil(t, s.Output())
				case pipeline.Completed:
					assert.Contains(t, tc.wantCompleted, s.Label())
				}
			}
			assert.Equal(t, tc.wantDormant, rolled)
			assert.Len(t, f.log.events, len(tc.wantDormant))

			outcome, err := f.coord.Run(ctx)
			require.NoError(t, err)
			assert.Equal(t, runner.OutcomeCompleted, outcome)
			assert.Len(t, reader.Calls(), tc.wantReads)
		})
	}
}

func TestRollback_UnknownStep(t *testing.T) {
	f := newFixture()
	require.ErrorIs(t, f.coord.Rollback(context.Background(), 42), pipeline.ErrStepNotFound)
}

func TestRun_FailureStopsDownstreamAndRetries(t *testing.T) {
	f := newFixture()
	boom := errors.New("boom")
	flaky := testutil.NewAction("flaky", 1)
	flaky.RunFn = func(context.Context, []*table.Table) (*table.Table, error) { return nil, boom }
	sink := testutil.NewWriter("sink")

	read := f.add(t, "read", testutil.NewReader("read", names()))
	act := f.add(t, "flaky", flaky)
	write := f.add(t, "write", sink)
	f.connect(t, read, act, write)

	ctx := context.Background()
	outcome, err := f.coord.Run(ctx)
	assert.Equal(t, runner.OutcomeFailed, outcome)
	require.ErrorIs(t, err, boom)
	var se *runner.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "flaky", se.Label)
	assert.Equal(t, pipeline.Failed, act.Status())
	assert.Equal(t, boom, act.Err())
	assert.Equal(t, pipeline.Dormant, write.Status())
	assert.Empty(t, sink.Calls())
	assert.Contains(t, f.log.events, "failed:flaky")

	flaky.RunFn = nil
	outcome, err = f.coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeCompleted, outcome)
	assert.Nil(t, act.Err())
}

func TestNext_RunsOneStepAtATime(t *testing.T) {
	f := newFixture()
	read := f.add(t, "read", testutil.NewReader("read", names()))
	write := f.add(t, "write", testutil.NewWriter("write"))
	f.connect(t, read, write)
	ctx := context.Background()

	outcome, err := f.coord.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeStepped, outcome)
	assert.True(t, read.Completed())
	assert.Equal(t, pipeline.Dormant, write.Status())

	outcome, err = f.coord.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeCompleted, outcome, "the last pending step completes the run")
	assert.True(t, write.Completed())

	outcome, err = f.coord.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeCompleted, outcome)
}

func TestReset_RollsBackEverything(t *testing.T) {
	f := newFixture()
	read := f.add(t, "read", testutil.NewReader("read", names()))
	write := f.add(t, "write", testutil.NewWriter("write"))
	f.connect(t, read, write)
	ctx := context.Background()
	_, err := f.coord.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, f.coord.Reset(ctx))
	assert.Equal(t, pipeline.Dormant, read.Status())
	assert.Equal(t, pipeline.Dormant, write.Status())
	assert.Empty(t, f.coord.RunID())

	// Reset of a clean pipeline emits nothing.
	f.log.reset()
	require.NoError(t, f.coord.Reset(ctx))
	assert.Empty(t, f.log.events)
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture()
	f.add(t, "read", testutil.NewReader("read", names()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := f.coord.Run(ctx)
	assert.Equal(t, runner.OutcomeFailed, outcome)
	require.ErrorIs(t, err, context.Canceled)
}

// taggedListener appends to a log shared with other listeners, recording the
// step status seen at call time.
type taggedListener struct {
	tag string
	log *[]string
}

func (l taggedListener) add(kind string, s *pipeline.Step) {
	*l.log = append(*l.log, fmt.Sprintf("%s %s:%s(%s)", l.tag, kind, s.Label(), s.Status()))
}

func (l taggedListener) StepStarted(s *pipeline.Step)    { l.add("started", s) }
func (l taggedListener) StepCompleted(s *pipeline.Step)  { l.add("completed", s) }
func (l taggedListener) StepPaused(s *pipeline.Step)     { l.add("paused", s) }
func (l taggedListener) StepRolledBack(s *pipeline.Step) { l.add("rollback", s) }

func TestListeners_CalledInRegistrationOrder(t *testing.T) {
	g := pipeline.New()
	coord := runner.New(g, nil)
	var log []string
	coord.AddListener(taggedListener{tag: "a", log: &log})
	coord.AddListener(taggedListener{tag: "b", log: &log})
	f := &fixture{graph: g, coord: coord}

	det := testutil.NewDetector("levenshtein", "Distorted Label", "Anna~anna")
	det.Repairable = true
	read := f.add(t, "read", testutil.NewReader("read", names()))
	review := f.add(t, "review", det)
	f.connect(t, read, review)

	ctx := context.Background()
	outcome, err := coord.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, runner.OutcomePaused, outcome)
	assert.Equal(t, []string{
		"a started:read(running)", "b started:read(running)",
		"a completed:read(completed)", "b completed:read(completed)",
		"a started:review(running)", "b started:review(running)",
		"a paused:review(paused)", "b paused:review(paused)",
	}, log)

	log = nil
	require.NoError(t, coord.Rollback(ctx, read.ID()))
	assert.Equal(t, []string{
		"a rollback:read(dormant)", "b rollback:read(dormant)",
		"a rollback:review(dormant)", "b rollback:review(dormant)",
	}, log)
}
