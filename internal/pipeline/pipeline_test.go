package pipeline

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressbot/pressbot/pkg/config"
	"github.com/pressbot/pressbot/pkg/errors"
)

type sinkRecorder struct {
	reports []*Report
	err     error
}

func (s *sinkRecorder) Persist(_ context.Context, report *Report) error {
	s.reports = append(s.reports, report)
	return s.err
}

func toggles(names ...string) []config.StageToggle {
	out := make([]config.StageToggle, len(names))
	for i, name := range names {
		out[i] = config.StageToggle{Name: name, Enabled: true}
	}
	return out
}

func noop(context.Context) error { return nil }

func TestRun_AllStagesSucceed(t *testing.T) {
	sink := &sinkRecorder{}
	var order []string

	handlers := map[string]Handler{
		"generate": func(context.Context) error { order = append(order, "generate"); return nil },
		"deploy":   func(context.Context) error { order = append(order, "deploy"); return nil },
		"social":   func(context.Context) error { order = append(order, "social"); return nil },
	}

	p := New(toggles("generate", "deploy", "social"), handlers, Options{Sink: sink})
	report, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"generate", "deploy", "social"}, order)
	assert.Equal(t, StateCompleted, report.Outcome)
	assert.Equal(t, StateCompleted, p.State())
	require.Len(t, report.Stages, 3)
	for _, stage := range report.Stages {
		assert.Equal(t, StageSuccess, stage.Status)
	}
	require.Len(t, sink.reports, 1)
	assert.Same(t, report, sink.reports[0])
	assert.NotEmpty(t, report.RunID)
}

func TestRun_FailFast(t *testing.T) {
	sink := &sinkRecorder{}
	cRan := false

	handlers := map[string]Handler{
		"a": noop,
		"b": func(context.Context) error { return errors.NewAPIError("provider exploded") },
		"c": func(context.Context) error { cRan = true; return nil },
	}

	p := New(toggles("a", "b", "c"), handlers, Options{Sink: sink})
	report, err := p.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAPI))
	assert.False(t, cRan, "stages after a failure must not run")

	assert.Equal(t, StateAborted, report.Outcome)
	require.Len(t, report.Stages, 3)
	assert.Equal(t, StageSuccess, report.Stages[0].Status)
	assert.Equal(t, StageFailed, report.Stages[1].Status)
	assert.Contains(t, report.Stages[1].Error, "provider exploded")
	assert.Equal(t, StageSkipped, report.Stages[2].Status)

	failed, ok := report.FailedStage()
	require.True(t, ok)
	assert.Equal(t, "b", failed)

	// The report reaches the sink even on abort.
	require.Len(t, sink.reports, 1)
}

func TestRun_DisabledStageSkippedWithZeroDuration(t *testing.T) {
	handlers := map[string]Handler{
		"a": func(context.Context) error { time.Sleep(5 * time.Millisecond); return nil },
		"b": func(context.Context) error { t.Fatal("disabled handler must not run"); return nil },
		"c": noop,
	}

	stageToggles := []config.StageToggle{
		{Name: "a", Enabled: true},
		{Name: "b", Enabled: false},
		{Name: "c", Enabled: true},
	}

	p := New(stageToggles, handlers, Options{})
	report, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, report.Outcome)
	assert.Equal(t, StageSuccess, report.Stages[0].Status)
	assert.Equal(t, StageSkipped, report.Stages[1].Status)
	assert.Zero(t, report.Stages[1].DurationMS)
	assert.Equal(t, StageSuccess, report.Stages[2].Status)
}

func TestRun_UnregisteredStageIsDisabled(t *testing.T) {
	handlers := map[string]Handler{"a": noop}

	p := New(toggles("a", "ghost"), handlers, Options{})
	report, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StageSuccess, report.Stages[0].Status)
	assert.Equal(t, StageSkipped, report.Stages[1].Status)
}

func TestRun_ClassifiesRawHandlerErrors(t *testing.T) {
	handlers := map[string]Handler{
		"a": func(context.Context) error { return stderrors.New("dial tcp: connection refused") },
	}

	p := New(toggles("a"), handlers, Options{})
	report, err := p.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	assert.Equal(t, StateAborted, report.Outcome)
}

func TestRun_HandlerPanicBecomesFailedStage(t *testing.T) {
	sink := &sinkRecorder{}
	handlers := map[string]Handler{
		"a": func(context.Context) error { panic("handler bug") },
		"b": noop,
	}

	p := New(toggles("a", "b"), handlers, Options{Sink: sink})
	report, err := p.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryInternal))
	assert.Equal(t, StageFailed, report.Stages[0].Status)
	assert.Contains(t, report.Stages[0].Error, "handler bug")
	assert.Equal(t, StageSkipped, report.Stages[1].Status)
	require.Len(t, sink.reports, 1)
}

func TestRun_SecondRunRejected(t *testing.T) {
	p := New(toggles("a"), map[string]Handler{"a": noop}, Options{})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryInternal))
}

func TestRun_SinkFailureSurfacesOnCompletion(t *testing.T) {
	sink := &sinkRecorder{err: stderrors.New("disk full")}
	p := New(toggles("a"), map[string]Handler{"a": noop}, Options{Sink: sink})

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateCompleted, report.Outcome)
}

func TestRun_StageFailureWinsOverSinkFailure(t *testing.T) {
	sink := &sinkRecorder{err: stderrors.New("disk full")}
	handlers := map[string]Handler{
		"a": func(context.Context) error { return errors.NewTimeoutError("deploy") },
	}

	p := New(toggles("a"), handlers, Options{Sink: sink})
	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTimeout))
	require.Len(t, sink.reports, 1, "sink still receives the report")
}

func TestRun_EmbedsConfigSnapshot(t *testing.T) {
	snapshot := map[string]interface{}{"site": "example"}
	p := New(toggles("a"), map[string]Handler{"a": noop}, Options{ConfigSnapshot: snapshot})

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot, report.ConfigSnapshot)
}

func TestStageTransitionTable(t *testing.T) {
	allowed := []struct{ from, to StageStatus }{
		{StagePending, StageRunning},
		{StagePending, StageSkipped},
		{StageRunning, StageSuccess},
		{StageRunning, StageFailed},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	denied := []struct{ from, to StageStatus }{
		{StagePending, StageSuccess},
		{StagePending, StageFailed},
		{StageRunning, StageSkipped},
		{StageSuccess, StageRunning},
		{StageFailed, StageRunning},
		{StageSkipped, StageRunning},
		{StageSuccess, StageFailed},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestPipelineStateTransitionTable(t *testing.T) {
	assert.True(t, CanTransitionState(StateIdle, StateRunning))
	assert.True(t, CanTransitionState(StateRunning, StateCompleted))
	assert.True(t, CanTransitionState(StateRunning, StateAborted))

	assert.False(t, CanTransitionState(StateIdle, StateCompleted))
	assert.False(t, CanTransitionState(StateCompleted, StateRunning))
	assert.False(t, CanTransitionState(StateAborted, StateRunning))
	assert.False(t, CanTransitionState(StateRunning, StateIdle))
}
