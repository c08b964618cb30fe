package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler runs registered hooks once a termination signal arrives.
type Handler struct {
	timeout time.Duration
	signals []os.Signal

	mu    sync.Mutex
	hooks []hook
	done  chan struct{}
}

// NewHandler creates a handler that gives hooks timeout to finish.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a named hook. Hooks run in reverse order.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Wait blocks until a termination signal arrives or ctx is cancelled, then
// runs every hook. Hook errors are joined and tagged with the hook name.
func (h *Handler) Wait(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, h.signals...)
	<-ctx.Done()
	stop()
	return h.Shutdown()
}

// Shutdown runs every hook immediately. Later calls return nil.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return nil
	default:
	}
	hooks := append([]hook(nil), h.hooks...)
	close(h.done)
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// Done is closed once shutdown has started.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
