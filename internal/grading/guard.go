package grading

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a submission is already being graded.
var ErrBusy = errors.New("grading already in progress")

// Guard is a per-submission busy flag that rejects re-entrant grading calls.
type Guard struct {
	mu   sync.Mutex
	busy map[string]bool
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{busy: make(map[string]bool)}
}

// TryAcquire marks id busy. It returns ErrBusy if id is already busy.
func (g *Guard) TryAcquire(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[id] {
		return ErrBusy
	}
	g.busy[id] = true
	return nil
}

// Release clears the busy flag for id.
func (g *Guard) Release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, id)
}

// Busy reports whether id is being graded.
func (g *Guard) Busy(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy[id]
}
