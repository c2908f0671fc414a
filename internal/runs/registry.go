package runs

import (
	"context"
	"errors"
	"sync"
	"time"

	"futurewallet.org/internal/engine"
	"futurewallet.org/internal/ids"
	"futurewallet.org/internal/obs"
)

var (
	ErrNotFound       = errors.New("simulation not found")
	ErrInvalidForkDay = errors.New("invalid fork day")
)

// Run is one stored simulation: the input snapshot it can branch from and
// the result it produced.
type Run struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"created_at"`
	Input     *engine.UserState        `json:"-"`
	Result    *engine.SimulationResult `json:"result"`
}

// BranchReport is a Comparison plus the day the timelines diverged.
type BranchReport struct {
	engine.Comparison
	BranchDay int `json:"branch_day"`
}

// Registry owns every simulation run keyed by ID. Each run's state is an
// isolated clone, so concurrent callers never share a mutable aggregate;
// this replaces the one-process-wide "most recent run" slot the tool
// started with.
type Registry struct {
	mu   sync.RWMutex
	sim  *engine.Simulator
	runs map[string]*Run
}

// NewRegistry wraps a simulator in an empty run store.
func NewRegistry(sim *engine.Simulator) *Registry {
	return &Registry{
		sim:  sim,
		runs: make(map[string]*Run),
	}
}

// Create snapshots the input, runs the full horizon and stores both under
// a fresh ID. The caller's state is not mutated.
func (r *Registry) Create(ctx context.Context, state *engine.UserState) (*Run, error) {
	input := state.Clone()
	input.Normalize()

	start := time.Now()
	working := input.Clone()
	result := r.sim.Run(working, 0)
	obs.ObserveRun(time.Since(start), input.HorizonDays)

	run := &Run{
		ID:        ids.New(),
		CreatedAt: time.Now().UTC(),
		Input:     input,
		Result:    result,
	}

	r.mu.Lock()
	r.runs[run.ID] = run
	r.mu.Unlock()

	obs.LogEvent("simulation_run", map[string]any{
		"run_id":       run.ID,
		"horizon_days": input.HorizonDays,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return run, nil
}

// Get returns the stored run for id.
func (r *Registry) Get(ctx context.Context, id string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return run, nil
}

// Branch forks the stored run at branchDay: it replays the original input
// up to the fork day to materialize the exact state there, applies the
// patch to a clone, then runs both continuations over the remaining days
// and diffs them.
//
// Both continuations re-seed from the same integer, so their stochastic
// draws are fully correlated; the report isolates the patch's effect, not
// the randomness. Patch a new seed to decorrelate.
func (r *Registry) Branch(ctx context.Context, id string, branchDay int, patch engine.Patch) (*BranchReport, error) {
	r.mu.RLock()
	run, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if branchDay < 0 || branchDay >= run.Input.HorizonDays {
		return nil, ErrInvalidForkDay
	}

	// Replay the prefix; forkState ends up positioned at the fork day.
	forkState := run.Input.Clone()
	forkState.HorizonDays = branchDay
	r.sim.Run(forkState, 0)

	remaining := run.Input.HorizonDays - branchDay
	forkState.HorizonDays = remaining

	branched := engine.Branch(forkState, patch)
	branched.HorizonDays = remaining

	original := forkState.Clone()
	originalResult := r.sim.Run(original, branchDay)
	branchedResult := r.sim.Run(branched, branchDay)
	obs.ObserveBranch()
	obs.LogEvent("simulation_branch", map[string]any{
		"run_id":     id,
		"branch_day": branchDay,
	})

	return &BranchReport{
		Comparison: engine.Compare(originalResult, branchedResult),
		BranchDay:  branchDay,
	}, nil
}
