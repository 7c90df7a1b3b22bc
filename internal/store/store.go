// Package store keeps the merged, time-ordered collection of messages
// from all backend feeds and answers filtered navigation queries over it.
//
// Messages are indexed by their total order key (timestamp, arrival
// sequence, backend id) so feeds with disagreeing clocks still merge into
// one deterministic order. The store only ever grows: inserts extend it
// at either end or in the middle, reads never mutate it, and nothing is
// deleted during a session.
package store

import (
	"sync"

	"github.com/tidwall/btree"

	"github.com/1ts-org/snipe/internal/message"
)

// Store is the merged message index. Safe for concurrent insertion from
// multiple feeds while readers scan; a single insert is the unit of
// atomicity.
type Store struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[*message.Message]
	seen map[dedupKey]struct{}
	seq  uint64
}

// dedupKey identifies one delivery for idempotence: the same backend
// redelivering the same native id is dropped silently.
type dedupKey struct {
	backend  string
	nativeID string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		tree: btree.NewBTreeGOptions(func(a, b *message.Message) bool {
			return message.Less(a.Key(), b.Key())
		}, btree.Options{NoLocks: true}),
		seen: map[dedupKey]struct{}{},
	}
}

// Insert adds one message delivered live by a feed. It assigns the
// arrival sequence number and stores a copy, so the caller's message
// cannot change under the index. Returns false when the delivery is a
// duplicate, which is not an error.
func (s *Store) Insert(m *message.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(m)
}

// Backfill bulk-inserts a fetched historical range under a single lock.
// Overlap with already-present messages or earlier backfills deduplicates
// instead of erroring; ordering cannot be violated because position is
// derived from the key, never from insertion order. Returns the number
// of messages actually added.
func (s *Store) Backfill(msgs []*message.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, m := range msgs {
		if s.insertLocked(m) {
			added++
		}
	}
	return added
}

func (s *Store) insertLocked(m *message.Message) bool {
	if m.NativeID != "" {
		k := dedupKey{backend: m.Backend, nativeID: m.NativeID}
		if _, dup := s.seen[k]; dup {
			return false
		}
		s.seen[k] = struct{}{}
	}
	stored := *m
	s.seq++
	stored.Seq = s.seq
	s.tree.Set(&stored)
	return true
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// First returns the earliest loaded message.
func (s *Store) First() (*message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Min()
}

// Last returns the latest loaded message.
func (s *Store) Last() (*message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Max()
}

// Scan walks every message in total order, earliest first, until iter
// returns false.
func (s *Store) Scan(iter func(m *message.Message) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.tree.Scan(iter)
}

// CountForBackend returns how many loaded messages came from the named
// backend.
func (s *Store) CountForBackend(backend string) int {
	n := 0
	s.Scan(func(m *message.Message) bool {
		if m.Backend == backend {
			n++
		}
		return true
	})
	return n
}
