package lifecycle

import (
	"context"
	"sync"
)

// Guard ties in-flight requests to the life of a view. Begin starts an
// operation that supersedes the previous one; Close cancels everything.
// A response is applied only if Current still accepts its token.
type Guard struct {
	mu         sync.Mutex
	base       context.Context
	cancel     context.CancelFunc
	opCancel   context.CancelFunc
	generation uint64
	closed     bool
}

// NewGuard derives a cancellable context from parent.
func NewGuard(parent context.Context) *Guard {
	ctx, cancel := context.WithCancel(parent)
	return &Guard{base: ctx, cancel: cancel}
}

// Begin cancels the previous operation and returns a context and token for
// a new one. The context ends with parent, with the next Begin or with Close.
func (g *Guard) Begin(parent context.Context) (context.Context, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.opCancel != nil {
		g.opCancel()
	}
	g.generation++
	ctx, cancel := g.attach(parent)
	g.opCancel = cancel
	return ctx, g.generation
}

// Attach returns a context that ends with parent or with Close, without
// superseding the current operation.
func (g *Guard) Attach(parent context.Context) (context.Context, context.CancelFunc) {
	return g.attach(parent)
}

func (g *Guard) attach(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(g.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Current reports whether token belongs to the latest operation of an open
// guard.
func (g *Guard) Current(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && token == g.generation
}

// Invalidate makes every outstanding token stale without closing the guard.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opCancel != nil {
		g.opCancel()
		g.opCancel = nil
	}
	g.generation++
}

// Context returns the guard's base context, cancelled on Close.
func (g *Guard) Context() context.Context {
	return g.base
}

// Closed reports whether Close was called.
func (g *Guard) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Close cancels all requests started through the guard.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.generation++
	g.cancel()
}
