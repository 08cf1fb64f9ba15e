package query

import (
	"context"
	"sync"
)

// Tracker hands out request generations per logical query key. Beginning a
// request cancels the one in flight for the same key, and only the latest
// generation is current.
type Tracker struct {
	mu       sync.Mutex
	gens     map[string]uint64
	inflight map[string]context.CancelFunc
}

// Ticket identifies one request generation.
type Ticket struct {
	Key string
	Gen uint64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		gens:     make(map[string]uint64),
		inflight: make(map[string]context.CancelFunc),
	}
}

// Begin starts a new generation for key and cancels the previous one. The
// returned context is cancelled when a newer generation begins or Done is
// called.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	reqCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.inflight[key]; ok {
		prev()
	}
	t.gens[key]++
	t.inflight[key] = cancel
	return reqCtx, Ticket{Key: key, Gen: t.gens[key]}
}

// Current reports whether tk is still the latest generation for its key.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gens[tk.Key] == tk.Gen
}

// Done releases the request context of tk. Superseded tickets were already
// cancelled by Begin.
func (t *Tracker) Done(tk Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gens[tk.Key] != tk.Gen {
		return
	}
	if cancel, ok := t.inflight[tk.Key]; ok {
		cancel()
		delete(t.inflight, tk.Key)
	}
}

// Generation returns the latest generation issued for key, 0 if none.
func (t *Tracker) Generation(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gens[key]
}
