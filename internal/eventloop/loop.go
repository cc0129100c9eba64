package eventloop

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of work executed on the loop.
type Task func()

// Logger is the logging interface used by the loop.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Loop runs posted tasks one at a time, in posting order.
//
// Every MQTT callback, device notification and API request that touches
// panel or dispatcher state is posted here, so that state is only ever
// accessed from a single goroutine. A task posted from inside a running
// task executes on a later turn, after the current task has returned.
//
// Thread Safety:
//   - Post and Do are safe from any goroutine.
//   - Run and RunUntilIdle must not be used concurrently.
type Loop struct {
	mu     sync.Mutex
	queue  []Task
	wake   chan struct{}
	logger Logger
}

// New creates an idle loop.
func New() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used for recovered task panics.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// Post queues task for a future turn. It never blocks.
func (l *Loop) Post(task Task) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Run executes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for l.step() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunUntilIdle executes tasks on the calling goroutine until the queue is
// empty, including tasks posted along the way. It returns the number of
// turns taken.
func (l *Loop) RunUntilIdle() int {
	turns := 0
	for l.step() {
		turns++
	}
	return turns
}

// Do runs fn on the loop and waits for its result.
// If ctx ends first, Do returns ctx.Err() and fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	l.Post(func() {
		done <- fn()
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// step runs the oldest queued task. It reports false when the queue was empty.
func (l *Loop) step() bool {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	l.mu.Unlock()

	l.execute(task)
	return true
}

func (l *Loop) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panic recovered", "panic", fmt.Sprint(r))
		}
	}()
	task()
}
