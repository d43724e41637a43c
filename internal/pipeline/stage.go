// Package pipeline runs the scrape → reconstruct → analyze rebuild as a
// sequence of stages with observable per-stage state.
package pipeline

import (
	"context"
	"sync"
	"time"
)

// Stage is a single unit of the rebuild
type Stage interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Name returns the human-readable name for this stage
	Name() string

	// Validate checks whether the stage can run against the current state
	Validate(state *RunState) error

	// Execute runs the stage
	Execute(ctx context.Context, state *RunState) error
}

// StageStatus represents the current status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// StageState is the runtime state of one stage within a run
type StageState struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    StageStatus `json:"status"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// RunState is the complete state of one pipeline run. Stages communicate
// through the values map; access is guarded because the websocket hub reads
// state concurrently with execution.
type RunState struct {
	mu sync.RWMutex

	ID        string                 `json:"id"`
	Status    RunStatus              `json:"status"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Stages    map[string]*StageState `json:"stages"`
	Error     string                 `json:"error,omitempty"`

	values map[string]any
}

// NewRunState creates a pending run state
func NewRunState(id string) *RunState {
	return &RunState{
		ID:     id,
		Status: RunStatusPending,
		Stages: make(map[string]*StageState),
		values: make(map[string]any),
	}
}

// Set stores a value for later stages
func (s *RunState) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get retrieves a value stored by an earlier stage
func (s *RunState) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// RunView is an immutable copy of a run's state, safe to marshal while
// the run is still executing.
type RunView struct {
	ID        string                `json:"id"`
	Status    RunStatus             `json:"status"`
	StartTime time.Time             `json:"start_time"`
	EndTime   *time.Time            `json:"end_time,omitempty"`
	Stages    map[string]StageState `json:"stages"`
	Error     string                `json:"error,omitempty"`
}

// View returns a point-in-time copy for rendering
func (s *RunState) View() RunView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stages := make(map[string]StageState, len(s.Stages))
	for id, st := range s.Stages {
		stages[id] = *st
	}

	var end *time.Time
	if s.EndTime != nil {
		e := *s.EndTime
		end = &e
	}

	return RunView{
		ID:        s.ID,
		Status:    s.Status,
		StartTime: s.StartTime,
		EndTime:   end,
		Stages:    stages,
		Error:     s.Error,
	}
}

// Snapshot returns a copy of the run's stage states for safe publication
func (s *RunState) Snapshot() map[string]StageState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]StageState, len(s.Stages))
	for id, st := range s.Stages {
		out[id] = *st
	}
	return out
}

func (s *RunState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = RunStatusRunning
	s.StartTime = time.Now()
}

func (s *RunState) finish(status RunStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = status
	if err != nil {
		s.Error = err.Error()
	}
}

func (s *RunState) setStage(id string, update func(*StageState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.Stages[id]
	if !ok {
		st = &StageState{ID: id}
		s.Stages[id] = st
	}
	update(st)
}

// Event is one progress notification published during a run
type Event struct {
	RunID     string      `json:"run_id"`
	StageID   string      `json:"stage_id,omitempty"`
	StageName string      `json:"stage_name,omitempty"`
	Status    StageStatus `json:"status,omitempty"`
	RunStatus RunStatus   `json:"run_status,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
