package viewer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrLoopStopped is returned when the loop that owns the viewer state is no
// longer running.
var ErrLoopStopped = errors.New("viewer: loop stopped")

// Task is a unit of work executed on the loop goroutine. The context it
// receives is tagged with the loop and must not escape the task.
type Task func(ctx context.Context)

type loopKey struct{}

// Loop is the single execution context that owns the overlay and the viewer
// session. Every mutation is funnelled through its task queue.
type Loop struct {
	tasks    chan Task
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewLoop creates a loop with a task queue of the given capacity.
func NewLoop(queue int) *Loop {
	if queue < 1 {
		queue = 1
	}
	return &Loop{
		tasks: make(chan Task, queue),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run drains the task queue on the calling goroutine until ctx is done or Stop
// is called. It returns ctx.Err() when the context ended the loop, and
// ErrLoopStopped when Stop was called before Run.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		select {
		case <-l.stop:
			return ErrLoopStopped
		default:
			return errors.New("viewer: loop already started")
		}
	}
	defer close(l.done)

	taskCtx := context.WithValue(ctx, loopKey{}, l)
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stop:
			return nil
		case task := <-l.tasks:
			task(taskCtx)
		}
	}
}

// Stop ends the loop after the task currently running, if any. Queued tasks are
// dropped. Stop is idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
		// Never started: nothing will close done, so do it here.
		if l.started.CompareAndSwap(false, true) {
			close(l.done)
		}
	})
}

// Done is closed once the loop has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post enqueues task without waiting for it to run.
func (l *Loop) Post(task Task) error {
	return l.enqueue(context.Background(), task)
}

// Sync runs task on the loop and blocks until it has finished. When ctx was
// handed out by this loop the caller is already on the loop and the task runs
// inline.
func (l *Loop) Sync(ctx context.Context, task Task) error {
	if l.owns(ctx) {
		task(ctx)
		return nil
	}

	finished := make(chan struct{})
	err := l.enqueue(ctx, func(taskCtx context.Context) {
		defer close(finished)
		task(taskCtx)
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) enqueue(ctx context.Context, task Task) error {
	select {
	case <-l.stop:
		return ErrLoopStopped
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	case <-l.stop:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) owns(ctx context.Context) bool {
	owner, _ := ctx.Value(loopKey{}).(*Loop)
	return owner == l
}

// detach strips cancellation and loop ownership from ctx so work started from
// a request or a task can outlive it on another goroutine.
func detach(ctx context.Context) context.Context {
	return context.WithValue(context.WithoutCancel(ctx), loopKey{}, (*Loop)(nil))
}
