package pipeline

import (
	"context"
	"time"

	"github.com/ritzau/webbuild/pkg/logging"
)

// Observer is notified as a run progresses
type Observer interface {
	OnPhaseStart(name string, index, total int)
	OnPhaseComplete(result PhaseResult, index, total int)
	OnBuildComplete(result *Result)
}

// Runner executes phases in declaration order and stops on the first failure
type Runner struct {
	Observer Observer
}

// NewRunner creates a runner; observer may be nil
func NewRunner(observer Observer) *Runner {
	return &Runner{Observer: observer}
}

// Run validates the phase list, then runs each phase to completion before the
// next one starts. The first failing phase ends the run; later phases are
// recorded as skipped. The returned error is a *PhaseError, or a plan error
// when validation fails (in which case no phase runs).
func (r *Runner) Run(ctx context.Context, phases []Phase) (*Result, error) {
	if err := Validate(phases); err != nil {
		return nil, err
	}

	result := &Result{
		Phases:  make([]PhaseResult, 0, len(phases)),
		Started: time.Now(),
	}
	total := len(phases)

	var runErr error
	for i, ph := range phases {
		if runErr != nil {
			result.Phases = append(result.Phases, PhaseResult{Name: ph.Name, Outcome: OutcomeSkipped})
			continue
		}
		if r.Observer != nil {
			r.Observer.OnPhaseStart(ph.Name, i, total)
		}
		if err := ctx.Err(); err != nil {
			runErr = &PhaseError{Phase: ph.Name, Err: err}
			pr := PhaseResult{Name: ph.Name, Outcome: OutcomeFailed, Error: err.Error()}
			result.Phases = append(result.Phases, pr)
			logging.ErrorContext(ctx, "Build canceled", "phase", ph.Name)
			r.complete(pr, i, total)
			continue
		}

		logging.InfoContext(ctx, ph.Message, "phase", ph.Name)

		start := time.Now()
		err := ph.Run(ctx)
		pr := PhaseResult{Name: ph.Name, Outcome: OutcomeOK, Duration: time.Since(start)}

		if err != nil {
			pr.Outcome = OutcomeFailed
			pr.Error = err.Error()
			runErr = &PhaseError{Phase: ph.Name, Err: err}
			logging.ErrorContext(ctx, "Build failed", "phase", ph.Name, "error", err)
		} else {
			logging.DebugContext(ctx, "phase completed", "phase", ph.Name, "durationMs", pr.Duration.Milliseconds())
		}

		result.Phases = append(result.Phases, pr)
		r.complete(pr, i, total)
	}

	result.Duration = time.Since(result.Started)
	if r.Observer != nil {
		r.Observer.OnBuildComplete(result)
	}
	return result, runErr
}

func (r *Runner) complete(pr PhaseResult, index, total int) {
	if r.Observer != nil {
		r.Observer.OnPhaseComplete(pr, index, total)
	}
}
