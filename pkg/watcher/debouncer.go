package watcher

import (
	"context"
	"time"

	"github.com/ritzau/webbuild/pkg/logging"
)

// ChangeBatch groups the changes seen during one debounce window
type ChangeBatch struct {
	Paths     map[ChangeType][]string
	Timestamp time.Time
}

// Debouncer batches rapid file system events so a burst of saves triggers one rebuild
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeBatch
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. A batch is emitted once no event
// has arrived for quietPeriod, or maxWait after the first event of the batch.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeBatch, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet   *time.Timer
		maxWait *time.Timer
		pending = make(map[ChangeType][]string)
		count   int
	)

	stop := func(t *time.Timer) {
		if t != nil {
			t.Stop()
		}
	}
	timerC := func(t *time.Timer) <-chan time.Time {
		if t != nil {
			return t.C
		}
		return nil
	}

	flush := func() {
		stop(quiet)
		stop(maxWait)
		quiet, maxWait = nil, nil
		if count == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", count)
		batch := ChangeBatch{Paths: pending, Timestamp: time.Now()}
		pending = make(map[ChangeType][]string)
		count = 0

		select {
		case d.output <- batch:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop(quiet)
			stop(maxWait)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			pending[event.Type] = append(pending[event.Type], event.Paths...)
			count++

			stop(quiet)
			quiet = time.NewTimer(d.quietPeriod)
			if maxWait == nil {
				maxWait = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			flush()

		case <-timerC(maxWait):
			flush()
		}
	}
}

// Output returns the channel of debounced batches
func (d *Debouncer) Output() <-chan ChangeBatch {
	return d.output
}
