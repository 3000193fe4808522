// Package signal cancels waypoint's command context on SIGINT or SIGTERM,
// so a store waiting on a document lock gives up instead of hanging.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitCodeInterrupted is the conventional shell exit status after SIGINT.
const ExitCodeInterrupted = 130

// Handler owns a context that is canceled by the first SIGINT or SIGTERM.
type Handler struct {
	ctx    context.Context //nolint:containedctx // handler manages context lifecycle
	cancel context.CancelFunc

	mu          sync.Mutex
	received    os.Signal
	interrupted chan struct{}

	sigChan  chan os.Signal
	done     chan struct{}
	stopOnce sync.Once
}

// NewHandler starts listening for SIGINT and SIGTERM.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	err := run(h.Context())
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		sigChan:     make(chan os.Signal, 1),
		done:        make(chan struct{}),
	}
	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()
	return h
}

// Context returns the context canceled on interrupt or Stop.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted is closed when the first signal arrives.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Received returns the first signal delivered, or nil.
func (h *Handler) Received() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// Stop stops listening and cancels the context. Safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

// deliver records sig and cancels the context. Only the first signal counts.
func (h *Handler) deliver(sig os.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.received != nil {
		return
	}
	h.received = sig
	h.cancel()
	close(h.interrupted)
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case <-h.ctx.Done():
			return
		case sig := <-h.sigChan:
			h.deliver(sig)
		}
	}
}
