package pipeline

import (
	"context"
	"time"
)

// StageStatus is the state of a single stage in the per-stage state machine
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// State is the state of the whole pipeline run
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// stageTransitions is the per-stage transition table. A skip is legal
// straight from pending (disabled stage, or fail-fast after an earlier
// failure); success and failure require the stage to have run.
var stageTransitions = map[StageStatus][]StageStatus{
	StagePending: {StageRunning, StageSkipped},
	StageRunning: {StageSuccess, StageFailed},
	StageSuccess: {},
	StageFailed:  {},
	StageSkipped: {},
}

// stateTransitions is the whole-pipeline transition table
var stateTransitions = map[State][]State{
	StateIdle:      {StateRunning},
	StateRunning:   {StateCompleted, StateAborted},
	StateCompleted: {},
	StateAborted:   {},
}

// CanTransition reports whether a stage may move from one status to another
func CanTransition(from, to StageStatus) bool {
	for _, allowed := range stageTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionState reports whether the pipeline may move between states
func CanTransitionState(from, to State) bool {
	for _, allowed := range stateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Handler is one stage's unit of work. It returns nil on success and an
// error (ideally a *errors.PipelineError, otherwise classifiable) on
// failure.
type Handler func(ctx context.Context) error

// Stage is one named, independently failing unit of the pipeline
type Stage struct {
	Name    string
	Enabled bool
	Handler Handler
}

// StageResult records how one stage finished. Appended to the run's result
// list when the stage reaches a terminal status and never mutated afterward.
type StageResult struct {
	StageName  string      `json:"stage_name"`
	Status     StageStatus `json:"status"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// Report is the complete record of one pipeline run, built exactly once
// after the run finishes or aborts.
type Report struct {
	RunID           string                 `json:"run_id"`
	Timestamp       time.Time              `json:"timestamp"`
	TotalDurationMS int64                  `json:"total_duration_ms"`
	Outcome         State                  `json:"outcome"`
	Stages          []StageResult          `json:"stages"`
	ConfigSnapshot  map[string]interface{} `json:"config_snapshot,omitempty"`
}

// FailedStage returns the name of the failed stage, if any
func (r *Report) FailedStage() (string, bool) {
	for _, stage := range r.Stages {
		if stage.Status == StageFailed {
			return stage.StageName, true
		}
	}
	return "", false
}

// Sink persists a finalized report. The orchestrator does not dictate the
// storage format.
type Sink interface {
	Persist(ctx context.Context, report *Report) error
}
