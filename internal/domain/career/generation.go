package career

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned for a result whose operation was superseded by a
// newer call for the same key before it completed
var ErrStale = errors.New("career: superseded by a newer request")

// Generations hands out a monotonically increasing token per operation key.
// Only the latest token for a key is current; earlier holders must discard
// their results.
type Generations struct {
	mu      sync.Mutex
	seq     uint64
	current map[string]uint64
	cancels map[string]context.CancelFunc
}

// NewGenerations creates an empty generation counter
func NewGenerations() *Generations {
	return &Generations{
		current: make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Next issues a new token for key without touching any in-flight context
func (g *Generations) Next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.current[key] = g.seq
	return g.seq
}

// Begin issues a new token for key and cancels the context handed to the
// previous holder. The returned context is cancelled when a later Begin
// supersedes it or when Done is called with the token.
func (g *Generations) Begin(ctx context.Context, key string) (context.Context, uint64) {
	child, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.cancels[key]; ok {
		prev()
	}
	g.seq++
	g.current[key] = g.seq
	g.cancels[key] = cancel
	return child, g.seq
}

// Peek returns the latest token for key, zero if none was issued
func (g *Generations) Peek(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current[key]
}

// Current reports whether token is still the latest for key
func (g *Generations) Current(key string, token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current[key] == token
}

// Done releases the context issued with token when it is still current
func (g *Generations) Done(key string, token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current[key] != token {
		return
	}
	if cancel, ok := g.cancels[key]; ok {
		cancel()
		delete(g.cancels, key)
	}
}
