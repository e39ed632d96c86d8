// Package store holds the session's canonical in-memory transaction
// collection. Every reader takes snapshots and every writer goes through
// Replace or Apply, so derived views never observe a half-applied update.
package store

import (
	"sync"

	"fintrack/internal/core"
)

// Store is an observable transaction collection. The zero value is not
// usable; create one with New.
type Store struct {
	mu      sync.RWMutex
	txs     []core.Transaction
	subs    map[int]func()
	nextSub int
}

func New() *Store {
	return &Store{subs: make(map[int]func())}
}

// Snapshot returns a copy of the current collection. Callers may hold or
// mutate the copy freely.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// Replace swaps the whole collection and notifies subscribers. Concurrent
// replacements serialize; the last writer wins.
func (s *Store) Replace(txs []core.Transaction) {
	s.mu.Lock()
	s.txs = make([]core.Transaction, len(txs))
	copy(s.txs, txs)
	s.mu.Unlock()
	s.notify()
}

// Apply runs a functional update against a copy of the collection and
// installs the result. The callback must not retain its argument.
func (s *Store) Apply(fn func([]core.Transaction) []core.Transaction) {
	s.mu.Lock()
	cur := make([]core.Transaction, len(s.txs))
	copy(cur, s.txs)
	s.txs = fn(cur)
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers a callback invoked after every mutation. The returned
// cancel function removes the subscription.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// notify calls subscribers outside the lock so that a callback reading the
// store cannot deadlock.
func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
