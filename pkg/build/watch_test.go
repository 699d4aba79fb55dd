package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ritzau/webbuild/pkg/executor"
	"github.com/ritzau/webbuild/pkg/pipeline"
	"github.com/ritzau/webbuild/pkg/watcher"
)

type recordingListener struct {
	reasons []string
	errs    []error
}

func (l *recordingListener) BuildStarted(reason string) {
	l.reasons = append(l.reasons, reason)
}

func (l *recordingListener) BuildFinished(_ *pipeline.Result, err error) {
	l.errs = append(l.errs, err)
}

func TestWatchRebuildsPerBatchAndSurvivesFailures(t *testing.T) {
	p := newFakeProject(t)

	styleRuns := 0
	okStyles := p.exec.Effects["pnpm"]
	p.exec.Effects["pnpm"] = func(c executor.Command) error {
		styleRuns++
		if styleRuns == 2 {
			return errors.New("postcss: syntax error")
		}
		return okStyles(c)
	}

	o, err := New(p.cfg, WithExecutor(p.exec), WithBundler(p.bundler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	batches := make(chan watcher.ChangeBatch, 4)
	batches <- watcher.ChangeBatch{Paths: map[watcher.ChangeType][]string{}}
	batches <- watcher.ChangeBatch{Paths: map[watcher.ChangeType][]string{
		watcher.ChangeTypeScript: {"src/client/app.ts", "src/client/app.ts"},
	}}
	batches <- watcher.ChangeBatch{Paths: map[watcher.ChangeType][]string{
		watcher.ChangeTypeStyle: {"src/client/styles.css"},
	}}
	batches <- watcher.ChangeBatch{Paths: map[watcher.ChangeType][]string{
		watcher.ChangeTypeScript: {"src/server/server.ts"},
	}}
	close(batches)

	listener := &recordingListener{}
	done := make(chan struct{})
	go func() {
		o.Watch(context.Background(), batches, listener)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after batches closed")
	}

	want := []string{"1 script file(s) changed", "1 style file(s) changed", "1 script file(s) changed"}
	if len(listener.reasons) != len(want) {
		t.Fatalf("rebuild reasons = %q, want %q", listener.reasons, want)
	}
	for i := range want {
		if listener.reasons[i] != want[i] {
			t.Errorf("reason[%d] = %q, want %q", i, listener.reasons[i], want[i])
		}
	}
	if listener.errs[0] != nil || listener.errs[1] == nil || listener.errs[2] != nil {
		t.Errorf("build errors = %v, want only the second to fail", listener.errs)
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	p := newFakeProject(t)
	o, err := New(p.cfg, WithExecutor(p.exec), WithBundler(p.bundler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Watch(ctx, make(chan watcher.ChangeBatch))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	if len(p.exec.Calls()) != 0 {
		t.Errorf("unexpected build without changes: %v", p.programs())
	}
}
