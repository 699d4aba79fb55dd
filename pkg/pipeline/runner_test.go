package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingObserver struct {
	started   []string
	completed []PhaseResult
	final     *Result
}

func (o *recordingObserver) OnPhaseStart(name string, index, total int) {
	o.started = append(o.started, name)
}

func (o *recordingObserver) OnPhaseComplete(result PhaseResult, index, total int) {
	o.completed = append(o.completed, result)
}

func (o *recordingObserver) OnBuildComplete(result *Result) {
	o.final = result
}

func recordPhase(name string, ran *[]string, err error, requires ...string) Phase {
	return Phase{
		Name:     name,
		Message:  "Running " + name + "...",
		Requires: requires,
		Run: func(ctx context.Context) error {
			*ran = append(*ran, name)
			return err
		},
	}
}

func TestRunnerRunsPhasesInOrder(t *testing.T) {
	var ran []string
	phases := []Phase{
		recordPhase("dirs", &ran, nil),
		recordPhase("assets", &ran, nil, "dirs"),
		recordPhase("styles", &ran, nil, "dirs"),
	}
	obs := &recordingObserver{}

	result, err := NewRunner(obs).Run(context.Background(), phases)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Join(ran, ","); got != "dirs,assets,styles" {
		t.Errorf("ran %q, want dirs,assets,styles", got)
	}
	if !result.Succeeded() {
		t.Errorf("expected success, got %+v", result.Phases)
	}
	if len(obs.started) != 3 || len(obs.completed) != 3 || obs.final != result {
		t.Errorf("observer not notified correctly: %+v", obs)
	}
}

func TestRunnerStopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("exit status 2")
	phases := []Phase{
		recordPhase("dirs", &ran, nil),
		recordPhase("styles", &ran, boom, "dirs"),
		recordPhase("client", &ran, nil, "dirs"),
		recordPhase("server", &ran, nil),
	}

	result, err := NewRunner(nil).Run(context.Background(), phases)

	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) || phaseErr.Phase != "styles" {
		t.Fatalf("expected PhaseError for styles, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("PhaseError should unwrap to the cause")
	}
	if got := strings.Join(ran, ","); got != "dirs,styles" {
		t.Errorf("ran %q, want dirs,styles", got)
	}

	wantOutcomes := map[string]Outcome{
		"dirs":   OutcomeOK,
		"styles": OutcomeFailed,
		"client": OutcomeSkipped,
		"server": OutcomeSkipped,
	}
	for name, want := range wantOutcomes {
		pr, ok := result.Phase(name)
		if !ok || pr.Outcome != want {
			t.Errorf("phase %s outcome = %v, want %v", name, pr.Outcome, want)
		}
	}
	if result.Succeeded() {
		t.Error("failed run reported success")
	}
}

func TestRunnerHonoursCancellation(t *testing.T) {
	var ran []string
	ctx, cancel := context.WithCancel(context.Background())
	phases := []Phase{
		{Name: "dirs", Run: func(context.Context) error {
			ran = append(ran, "dirs")
			cancel()
			return nil
		}},
		recordPhase("assets", &ran, nil),
	}

	obs := &recordingObserver{}
	result, err := NewRunner(obs).Run(ctx, phases)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(ran) != 1 {
		t.Errorf("phases after cancellation ran: %v", ran)
	}
	if pr, _ := result.Phase("assets"); pr.Outcome != OutcomeFailed {
		t.Errorf("canceled phase outcome = %v, want failed", pr.Outcome)
	}
	// Every completion is preceded by a start, including the canceled phase
	if got := strings.Join(obs.started, ","); got != "dirs,assets" {
		t.Errorf("started %q, want dirs,assets", got)
	}
	if len(obs.completed) != 2 || obs.completed[1].Name != "assets" {
		t.Errorf("completed %+v, want dirs then assets", obs.completed)
	}
}

func TestRunnerRejectsInvalidPlan(t *testing.T) {
	var ran []string
	phases := []Phase{
		recordPhase("server", &ran, nil, "client"),
		recordPhase("client", &ran, nil),
	}

	_, err := NewRunner(nil).Run(context.Background(), phases)
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("no phase should run for an invalid plan, ran %v", ran)
	}
}
