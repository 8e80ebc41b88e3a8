// Package pipeline runs the ordered content-publishing stages with
// fail-fast semantics and produces a timed per-stage report for every run,
// aborted or not.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pressbot/pressbot/pkg/config"
	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/logging"
	"github.com/pressbot/pressbot/pkg/metrics"
)

// Options configures a pipeline
type Options struct {
	// Sink receives the finalized report; nil means reports are only logged
	Sink Sink
	// Metrics, when set, records stage and run outcomes
	Metrics *metrics.Metrics
	// ConfigSnapshot is embedded verbatim in every report
	ConfigSnapshot map[string]interface{}
}

// Pipeline executes registered stages strictly in the configured order.
// One Pipeline value runs at most once; it exclusively owns its result
// list and report.
type Pipeline struct {
	stages   []Stage
	statuses []StageStatus
	sink     Sink
	metrics  *metrics.Metrics
	snapshot map[string]interface{}
	logger   *logging.Logger

	mu    sync.Mutex
	state State
}

// New builds a pipeline from registered handlers and the ordered stage
// toggles from configuration. Toggle entries without a registered handler
// and handlers without a toggle entry are both disabled.
func New(toggles []config.StageToggle, handlers map[string]Handler, opts Options) *Pipeline {
	stages := make([]Stage, 0, len(toggles))
	for _, toggle := range toggles {
		handler, registered := handlers[toggle.Name]
		stages = append(stages, Stage{
			Name:    toggle.Name,
			Enabled: toggle.Enabled && registered,
			Handler: handler,
		})
	}

	statuses := make([]StageStatus, len(stages))
	for i := range statuses {
		statuses[i] = StagePending
	}

	return &Pipeline{
		stages:   stages,
		statuses: statuses,
		sink:     opts.Sink,
		metrics:  opts.Metrics,
		snapshot: opts.ConfigSnapshot,
		logger:   logging.GetLogger(),
		state:    StateIdle,
	}
}

// Stages returns the ordered stage list the pipeline will run
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// State returns the current pipeline state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run executes all stages in order. The report is always built and handed
// to the sink, whether the run completes or aborts; on abort the failed
// stage's error is returned after the report has been finalized.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if err := p.transitionState(StateRunning); err != nil {
		return nil, err
	}

	runID := logging.NewRunID()
	start := time.Now()
	results := make([]StageResult, 0, len(p.stages))

	p.logger.Info("Pipeline run started",
		"run_id", runID,
		"stages", len(p.stages),
	)

	var failure *errors.PipelineError

	for i, stage := range p.stages {
		if !stage.Enabled {
			if err := p.transitionStage(i, StageSkipped); err != nil {
				return nil, err
			}
			results = append(results, StageResult{
				StageName: stage.Name,
				Status:    StageSkipped,
			})
			p.recordStage(stage.Name, StageSkipped, 0)
			p.logger.LogStageEvent("stage_skipped", runID, stage.Name, nil)
			continue
		}

		if err := p.transitionStage(i, StageRunning); err != nil {
			return nil, err
		}
		p.logger.LogStageEvent("stage_started", runID, stage.Name, nil)

		stageStart := time.Now()
		err := p.runStage(ctx, stage)
		elapsed := time.Since(stageStart)

		if err == nil {
			if err := p.transitionStage(i, StageSuccess); err != nil {
				return nil, err
			}
			results = append(results, StageResult{
				StageName:  stage.Name,
				Status:     StageSuccess,
				DurationMS: elapsed.Milliseconds(),
			})
			p.recordStage(stage.Name, StageSuccess, elapsed)
			p.logger.LogStageEvent("stage_completed", runID, stage.Name, map[string]interface{}{
				"duration_ms": elapsed.Milliseconds(),
			})
			continue
		}

		failure = errors.FromError(err)
		if err := p.transitionStage(i, StageFailed); err != nil {
			return nil, err
		}
		results = append(results, StageResult{
			StageName:  stage.Name,
			Status:     StageFailed,
			DurationMS: elapsed.Milliseconds(),
			Error:      failure.Error(),
		})
		p.recordStage(stage.Name, StageFailed, elapsed)
		if p.metrics != nil {
			p.metrics.RecordError(string(failure.Category), string(failure.Severity))
		}
		p.logger.Error("Pipeline stage failed",
			"run_id", runID,
			"stage", stage.Name,
			"error", failure.Error(),
			"category", failure.Category,
			"severity", failure.Severity,
			"duration_ms", elapsed.Milliseconds(),
		)

		// Fail fast: everything not yet run is skipped.
		for j := i + 1; j < len(p.stages); j++ {
			if err := p.transitionStage(j, StageSkipped); err != nil {
				return nil, err
			}
			results = append(results, StageResult{
				StageName: p.stages[j].Name,
				Status:    StageSkipped,
			})
			p.recordStage(p.stages[j].Name, StageSkipped, 0)
		}
		break
	}

	outcome := StateCompleted
	if failure != nil {
		outcome = StateAborted
	}
	if err := p.transitionState(outcome); err != nil {
		return nil, err
	}

	total := time.Since(start)
	report := &Report{
		RunID:           runID,
		Timestamp:       start,
		TotalDurationMS: total.Milliseconds(),
		Outcome:         outcome,
		Stages:          results,
		ConfigSnapshot:  p.snapshot,
	}

	if p.metrics != nil {
		p.metrics.RecordPipelineRun(string(outcome), total)
	}

	persistErr := p.persist(ctx, report)

	p.logger.Info("Pipeline run finished",
		"run_id", runID,
		"outcome", outcome,
		"total_duration_ms", report.TotalDurationMS,
	)

	if failure != nil {
		return report, failure
	}
	if persistErr != nil {
		return report, persistErr
	}
	return report, nil
}

// runStage invokes the handler, converting a panicking handler into a
// failed stage instead of tearing down the whole process.
func (p *Pipeline) runStage(ctx context.Context, stage Stage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewInternalError(fmt.Sprintf("stage %s panicked: %v", stage.Name, r)).
				WithMetadata("stage", stage.Name)
		}
	}()
	return stage.Handler(ctx)
}

func (p *Pipeline) persist(ctx context.Context, report *Report) error {
	if p.sink == nil {
		return nil
	}
	if err := p.sink.Persist(ctx, report); err != nil {
		pipeErr := errors.FromError(err)
		p.logger.Error("Failed to persist pipeline report",
			"run_id", report.RunID,
			"error", pipeErr.Error(),
			"category", pipeErr.Category,
		)
		return pipeErr
	}
	return nil
}

func (p *Pipeline) transitionStage(i int, to StageStatus) error {
	from := p.statuses[i]
	if !CanTransition(from, to) {
		return errors.NewInternalError(
			fmt.Sprintf("illegal stage transition for %s: %s -> %s", p.stages[i].Name, from, to))
	}
	p.statuses[i] = to
	return nil
}

func (p *Pipeline) transitionState(to State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !CanTransitionState(p.state, to) {
		return errors.NewInternalError(
			fmt.Sprintf("illegal pipeline transition: %s -> %s", p.state, to))
	}
	p.state = to
	return nil
}

func (p *Pipeline) recordStage(name string, status StageStatus, elapsed time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordStage(name, string(status), elapsed)
	}
}
