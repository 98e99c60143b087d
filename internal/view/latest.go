// Package view holds the page-level loaders that sit between the
// repositories and whatever renders their output.
package view

import "sync"

// Ticket identifies one request issued through a Latest
type Ticket struct {
	gen uint64
}

// Latest keeps the most recent value for a display slot. Each request takes
// a Ticket with Begin; Commit applies a value only if no newer request was
// begun since, so late responses for a superseded target are discarded.
type Latest[T any] struct {
	mu      sync.Mutex
	gen     uint64
	value   T
	present bool
}

// Begin starts a new request and supersedes every earlier ticket
func (l *Latest[T]) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	return Ticket{gen: l.gen}
}

// Current reports whether t is still the newest ticket
func (l *Latest[T]) Current(t Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return t.gen == l.gen
}

// Commit stores v if t is still current and reports whether it did
func (l *Latest[T]) Commit(t Ticket, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.gen != l.gen {
		return false
	}
	l.value = v
	l.present = true
	return true
}

// Cancel supersedes every outstanding ticket without starting a request
func (l *Latest[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
}

// Get returns the last committed value
func (l *Latest[T]) Get() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.present
}
