// Package pipeline orchestrates the fetch, preprocess, and cluster stages.
//
// Each stage consumes the prior tier's artifacts and persists its own tier
// only when it has something complete to write; every failure inside a stage
// is caught at the stage boundary and converted into a tagged StageResult.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrMissingPrerequisite is returned when a stage's required input artifact
// is absent. The wrapped message names the command to run first.
var ErrMissingPrerequisite = errors.New("missing prerequisite artifact")

// Stage is one run-to-completion step of the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context) StageResult
}

// Runner executes stages in order, logging each result. It continues past
// degraded stages and halts on the first failure.
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log.With().Str("component", "pipeline").Logger()}
}

// Run executes the given stages. The returned results cover every stage that
// ran; the error is non-nil when a stage failed and the pipeline halted.
func (r *Runner) Run(ctx context.Context, stages ...Stage) ([]StageResult, error) {
	var results []StageResult

	for _, stage := range stages {
		r.log.Info().Str("stage", stage.Name()).Msg("stage starting")
		res := r.runStage(ctx, stage)
		results = append(results, res)

		switch res.Status {
		case StatusSuccess:
			r.log.Info().Str("stage", res.Stage).Msg("stage complete")
		case StatusDegraded:
			r.log.Warn().Str("stage", res.Stage).Str("reason", res.Reason).Msg("stage complete with reduced data")
		case StatusFailed:
			r.log.Error().Str("stage", res.Stage).Str("reason", res.Reason).Msg("stage failed, halting pipeline")
			return results, fmt.Errorf("stage %s failed: %w", res.Stage, res.Err)
		}
	}

	return results, nil
}

// runStage calls the stage inside a recover boundary: a panicking stage
// yields a failed result instead of taking down the process, and the runner
// halts on it like any other failure.
func (r *Runner) runStage(ctx context.Context, stage Stage) (res StageResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("stage", stage.Name()).Interface("panic", rec).Msg("stage panicked")
			res = failed(stage.Name(), fmt.Errorf("stage panicked: %v", rec))
		}
	}()
	return stage.Run(ctx)
}
