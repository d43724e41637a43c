package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"idxlens/internal/infrastructure"
)

// Listener receives progress events during a run. The websocket hub
// satisfies this; tests use a recording stub.
type Listener interface {
	Publish(event Event)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(Event)

// Publish calls the wrapped function
func (f ListenerFunc) Publish(event Event) { f(event) }

// Runner executes stages sequentially, fail-fast, publishing progress as it
// goes.
type Runner struct {
	stages   []Stage
	logger   *slog.Logger
	listener Listener
	metrics  *infrastructure.PipelineMetrics
}

// Option configures a Runner
type Option func(*Runner)

// WithListener attaches a progress listener
func WithListener(l Listener) Option {
	return func(r *Runner) { r.listener = l }
}

// WithMetrics attaches the pipeline instruments
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner over the given stages, executed in order
func NewRunner(logger *slog.Logger, stages []Stage, opts ...Option) *Runner {
	r := &Runner{
		stages: stages,
		logger: logger.With(slog.String("component", "pipeline")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prepare allocates the run state with every stage pending. Callers that
// execute asynchronously can hand the state out before starting the run.
func (r *Runner) Prepare() *RunState {
	state := NewRunState(uuid.NewString())

	for _, stage := range r.stages {
		state.setStage(stage.ID(), func(st *StageState) {
			st.Name = stage.Name()
			st.Status = StageStatusPending
		})
	}

	return state
}

// Run executes all stages. The returned state is complete even on failure:
// the failed stage carries its error and the remaining stages are marked
// skipped.
func (r *Runner) Run(ctx context.Context) (*RunState, error) {
	return r.RunPrepared(ctx, r.Prepare())
}

// RunPrepared executes all stages against a state from Prepare
func (r *Runner) RunPrepared(ctx context.Context, state *RunState) (*RunState, error) {
	runID := state.ID

	state.start()
	r.publish(Event{RunID: runID, RunStatus: RunStatusRunning, Timestamp: time.Now()})
	r.logger.InfoContext(ctx, "Pipeline run started",
		slog.String("run_id", runID),
		slog.Int("stages", len(r.stages)))

	for i, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			r.skipFrom(state, i)
			state.finish(RunStatusCancelled, err)
			r.publish(Event{RunID: runID, RunStatus: RunStatusCancelled, Timestamp: time.Now()})
			return state, fmt.Errorf("pipeline cancelled before stage %s: %w", stage.ID(), err)
		}

		if err := r.executeStage(ctx, state, stage); err != nil {
			r.skipFrom(state, i+1)
			state.finish(RunStatusFailed, err)
			r.publish(Event{RunID: runID, RunStatus: RunStatusFailed, Message: err.Error(), Timestamp: time.Now()})
			return state, fmt.Errorf("stage %s failed: %w", stage.ID(), err)
		}
	}

	state.finish(RunStatusCompleted, nil)
	r.publish(Event{RunID: runID, RunStatus: RunStatusCompleted, Timestamp: time.Now()})
	r.logger.InfoContext(ctx, "Pipeline run completed", slog.String("run_id", runID))

	return state, nil
}

func (r *Runner) executeStage(ctx context.Context, state *RunState, stage Stage) error {
	start := time.Now()

	if err := stage.Validate(state); err != nil {
		state.setStage(stage.ID(), func(st *StageState) {
			st.Status = StageStatusFailed
			st.Error = err.Error()
		})
		return fmt.Errorf("validation: %w", err)
	}

	state.setStage(stage.ID(), func(st *StageState) {
		st.Status = StageStatusActive
		st.StartTime = &start
	})
	r.publish(Event{
		RunID: state.ID, StageID: stage.ID(), StageName: stage.Name(),
		Status: StageStatusActive, Timestamp: start,
	})
	r.logger.InfoContext(ctx, "Stage started",
		slog.String("run_id", state.ID),
		slog.String("stage", stage.ID()))

	err := stage.Execute(ctx, state)
	end := time.Now()
	duration := end.Sub(start)

	if r.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("stage", stage.ID()),
			attribute.Bool("success", err == nil),
		)
		r.metrics.StageExecutionsTotal.Add(ctx, 1, attrs)
		r.metrics.StageExecutionDuration.Record(ctx, duration.Seconds(), attrs)
	}

	if err != nil {
		state.setStage(stage.ID(), func(st *StageState) {
			st.Status = StageStatusFailed
			st.EndTime = &end
			st.Error = err.Error()
		})
		r.publish(Event{
			RunID: state.ID, StageID: stage.ID(), StageName: stage.Name(),
			Status: StageStatusFailed, Message: err.Error(), Timestamp: end,
		})
		r.logger.ErrorContext(ctx, "Stage failed",
			slog.String("run_id", state.ID),
			slog.String("stage", stage.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return err
	}

	state.setStage(stage.ID(), func(st *StageState) {
		st.Status = StageStatusCompleted
		st.EndTime = &end
	})
	r.publish(Event{
		RunID: state.ID, StageID: stage.ID(), StageName: stage.Name(),
		Status: StageStatusCompleted, Timestamp: end,
	})
	r.logger.InfoContext(ctx, "Stage completed",
		slog.String("run_id", state.ID),
		slog.String("stage", stage.ID()),
		slog.Duration("duration", duration))

	return nil
}

func (r *Runner) skipFrom(state *RunState, index int) {
	for _, stage := range r.stages[index:] {
		state.setStage(stage.ID(), func(st *StageState) {
			if st.Status == StageStatusPending {
				st.Status = StageStatusSkipped
			}
		})
	}
}

func (r *Runner) publish(event Event) {
	if r.listener != nil {
		r.listener.Publish(event)
	}
}
