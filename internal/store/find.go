package store

import (
	"errors"

	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
)

// ErrBoundary is returned by Find when the scan runs off either end of
// the currently loaded window without a match. It is a normal signal,
// not a failure: it is the caller's cue to request backfill from a
// backend feed and try again.
var ErrBoundary = errors.New("end of loaded messages")

// Direction selects which way a find scan moves through the order.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Cursor is a position in the message order: at a specific key, or one of
// the synthetic boundary positions.
type Cursor struct {
	pos cursorPos
	key message.Key
}

type cursorPos int

const (
	atKey cursorPos = iota
	beforeFirst
	afterLast
)

// BeforeFirst is the synthetic cursor before the earliest message.
func BeforeFirst() Cursor { return Cursor{pos: beforeFirst} }

// AfterLast is the synthetic cursor after the latest message.
func AfterLast() Cursor { return Cursor{pos: afterLast} }

// At returns a cursor positioned at the given order key.
func At(k message.Key) Cursor { return Cursor{pos: atKey, key: k} }

// AtMessage returns a cursor positioned at m.
func AtMessage(m *message.Message) Cursor { return At(m.Key()) }

// Key returns the order key the cursor sits at; ok is false for the
// synthetic boundary cursors.
func (c Cursor) Key() (message.Key, bool) {
	return c.key, c.pos == atKey
}

// Find scans from the cursor in the given direction for the next message
// the stack shows, evaluating the stack's combined filter — snapshotted
// once for the whole scan — against the resolver. A nil stack means no
// filtering. The message at the cursor itself is excluded; only True
// evaluations match. Returns ErrBoundary when the loaded window is
// exhausted.
func (s *Store) Find(c Cursor, dir Direction, stack *filter.Stack, r filter.Resolver) (*message.Message, error) {
	combined := filter.Yes()
	if stack != nil {
		combined = stack.Combined()
	}
	return s.findFilter(c, dir, combined, r)
}

// findFilter is Find against one already-combined filter.
func (s *Store) findFilter(c Cursor, dir Direction, f *filter.Filter, r filter.Resolver) (*message.Message, error) {
	ev := filter.NewEvaluator(r)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *message.Message
	visit := func(m *message.Message) bool {
		if c.pos == atKey && message.Compare(m.Key(), c.key) == 0 {
			return true // skip the cursor position itself
		}
		if ev.Eval(f, m) == filter.True {
			found = m
			return false
		}
		return true
	}

	switch {
	case dir == Forward && c.pos == afterLast,
		dir == Backward && c.pos == beforeFirst:
		return nil, ErrBoundary
	case dir == Forward && c.pos == beforeFirst:
		s.tree.Scan(visit)
	case dir == Forward:
		s.tree.Ascend(probe(c.key), visit)
	case dir == Backward && c.pos == afterLast:
		s.tree.Reverse(visit)
	default:
		s.tree.Descend(probe(c.key), visit)
	}

	if found == nil {
		return nil, ErrBoundary
	}
	return found, nil
}

// probe builds a pivot message carrying just an order key, for seeking
// into the tree.
func probe(k message.Key) *message.Message {
	return &message.Message{Time: k.Time, Seq: k.Seq, Backend: k.Backend}
}
