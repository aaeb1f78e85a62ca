package events

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
)

// Dispatcher runs every delivery task on a single goroutine, in the order
// the tasks were enqueued. Enqueue never blocks and never runs the task on
// the caller's goroutine.
type Dispatcher struct {
	logger logging.Logger

	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	closing bool
	done    chan struct{}
}

// NewDispatcher creates and starts a dispatcher
func NewDispatcher(logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Dispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

// Enqueue schedules task for delivery. It reports false when the dispatcher
// is closing and the task was dropped.
func (d *Dispatcher) Enqueue(task func()) bool {
	d.mu.Lock()
	if d.closing {
		d.mu.Unlock()
		d.logger.Warnf("Dispatcher closing, delivery dropped")
		return false
	}
	d.queue = append(d.queue, task)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Pending returns the number of tasks not yet delivered
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Close stops accepting tasks, delivers everything already queued and
// waits for the delivery goroutine to exit or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closing {
		d.closing = true
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return errors.NewCancelledError("dispatcher close interrupted", ctx.Err()).
			WithContext("pending", d.Pending())
	}
}

// Done is closed once the delivery goroutine has exited
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		closing := d.closing
		if len(batch) == 0 && closing {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		if len(batch) == 0 {
			<-d.wake
			continue
		}
		for _, task := range batch {
			d.run(task)
		}
	}
}

func (d *Dispatcher) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Observer panicked: %v\n%s", r, debug.Stack())
		}
	}()
	task()
}
