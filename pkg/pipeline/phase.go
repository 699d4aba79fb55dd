// Package pipeline runs an ordered list of build phases, stopping at the first failure.
package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Phase is one discrete build step
type Phase struct {
	Name string
	// Message is logged when the phase starts, e.g. "Building CSS..."
	Message string
	// Requires names phases whose outputs this phase consumes.
	// Every required phase must be declared earlier in the list.
	Requires []string
	Run      func(ctx context.Context) error
}

// Outcome is the final state of a phase in one run
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// PhaseResult records how one phase went
type PhaseResult struct {
	Name     string        `json:"name"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result records a whole run
type Result struct {
	Phases   []PhaseResult `json:"phases"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether every phase ran and passed
func (r *Result) Succeeded() bool {
	if r == nil || len(r.Phases) == 0 {
		return false
	}
	for _, p := range r.Phases {
		if p.Outcome != OutcomeOK {
			return false
		}
	}
	return true
}

// Phase returns the result for the named phase
func (r *Result) Phase(name string) (PhaseResult, bool) {
	if r == nil {
		return PhaseResult{}, false
	}
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// PhaseError wraps the error that stopped a run
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
