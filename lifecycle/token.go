package lifecycle

import (
	"context"
	"sync"
)

// Token is the host's global execution lock.
type Token struct {
	ch   chan struct{}
	name string
}

// NewToken creates a released token.
func NewToken(name string) *Token {
	return &Token{ch: make(chan struct{}, 1), name: name}
}

// Name returns the token's name, used in logs.
func (t *Token) Name() string {
	return t.name
}

type holdKey struct {
	t *Token
}

// hold tracks whether one logical thread currently owns the token.
type hold struct {
	mu   sync.Mutex
	held bool
}

func (h *hold) set(v bool) {
	h.mu.Lock()
	h.held = v
	h.mu.Unlock()
}

func (h *hold) get() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}

func (t *Token) holdFrom(ctx context.Context) *hold {
	h, _ := ctx.Value(holdKey{t}).(*hold)
	return h
}

func (t *Token) acquire(ctx context.Context) error {
	select {
	case t.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Token) release() {
	<-t.ch
}

// Enter acquires the token for the logical thread carried by ctx. It is a
// no-op when ctx already holds it. When ctx holds a suspended hold, as in
// a callback from native code that released the token, the token is
// reacquired until done is called.
func (t *Token) Enter(ctx context.Context) (context.Context, func(), error) {
	if h := t.holdFrom(ctx); h != nil {
		if h.get() {
			return ctx, func() {}, nil
		}
		if err := t.acquire(ctx); err != nil {
			return ctx, nil, err
		}
		h.set(true)
		return ctx, func() {
			h.set(false)
			t.release()
		}, nil
	}

	if err := t.acquire(ctx); err != nil {
		return ctx, nil, err
	}
	h := &hold{held: true}
	return context.WithValue(ctx, holdKey{t}, h), func() {
		h.set(false)
		t.release()
	}, nil
}

// Held reports whether ctx currently holds the token.
func (t *Token) Held(ctx context.Context) bool {
	h := t.holdFrom(ctx)
	return h != nil && h.get()
}

// Suspend releases the token if ctx holds it. resume reacquires it and
// must be called before host execution continues on ctx. Reacquisition
// ignores cancellation of ctx.
func (t *Token) Suspend(ctx context.Context) (resume func()) {
	h := t.holdFrom(ctx)
	if h == nil || !h.get() {
		return func() {}
	}
	h.set(false)
	t.release()
	return func() {
		_ = t.acquire(context.WithoutCancel(ctx))
		h.set(true)
	}
}
