// Package goroutine runs long-lived background work (message consumers) under
// a concurrency cap, recovers panics, and lets shutdown wait for it all.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// DefaultPerCPU sizes the cap when NewManager gets a non-positive limit.
const DefaultPerCPU = 100

// ErrPanic is collected when a task panics.
var ErrPanic = errors.New("goroutine: task panicked")

// Manager starts tasks in goroutines, at most limit at a time.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultPerCPU
	}

	return &Manager{slots: make(chan struct{}, limit)}
}

// Go runs f in a new goroutine. It reports false, and does not run f, when the
// manager is closed or already at capacity.
func (m *Manager) Go(ctx context.Context, f func(context.Context) error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager closed, task dropped")
		return false
	}

	select {
	case m.slots <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "limit", cap(m.slots))
		return false
	}

	m.wg.Go(func() {
		defer func() { <-m.slots }()
		defer m.recover(ctx)

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine not started", "error", err)
			return
		}

		if err := f(ctx); err != nil {
			m.collect(err)
		}
	})

	return true
}

// Wait stops accepting tasks, blocks until running ones return, and joins
// their errors.
func (m *Manager) Wait() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	return errors.Join(m.errs...)
}

func (m *Manager) recover(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
		slog.ErrorContext(ctx, "panic in goroutine", "panic", rvr, "stack", frames)
	} else {
		slog.ErrorContext(ctx, "panic in goroutine", "panic", rvr, "stack", string(stack))
	}

	m.collect(ErrPanic)
}

func (m *Manager) collect(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}
