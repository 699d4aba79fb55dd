package build

import (
	"context"

	"github.com/ritzau/webbuild/pkg/logging"
	"github.com/ritzau/webbuild/pkg/pipeline"
	"github.com/ritzau/webbuild/pkg/watcher"
)

// Listener is told about every build run in watch mode
type Listener interface {
	BuildStarted(reason string)
	BuildFinished(result *pipeline.Result, err error)
}

// Rebuild runs one full build and notifies listeners before and after
func (o *Orchestrator) Rebuild(ctx context.Context, reason string, listeners ...Listener) (*pipeline.Result, error) {
	for _, l := range listeners {
		l.BuildStarted(reason)
	}

	result, err := o.Run(ctx)

	for _, l := range listeners {
		l.BuildFinished(result, err)
	}
	return result, err
}

// Watch rebuilds once per batch of source changes until ctx is canceled or
// batches is closed. A failed build is logged and the loop keeps going.
func (o *Orchestrator) Watch(ctx context.Context, batches <-chan watcher.ChangeBatch, listeners ...Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			analysis := watcher.AnalyzeChanges(batch)
			if !analysis.NeedsRebuild() {
				continue
			}

			reason := analysis.Reason()
			logging.Info("Rebuilding", "reason", reason)
			logging.Debug("changed files", "files", analysis.ChangedFiles)

			if _, err := o.Rebuild(ctx, reason, listeners...); err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.Warn("Rebuild failed, waiting for further changes", "error", err)
			}
		}
	}
}
