package store

import (
	"sort"
	"sync"

	"github.com/1ts-org/snipe/internal/message"
)

// Marks is a view's ordered set of stark points: cursor positions the
// user explicitly marked, or that were set implicitly when a scroll
// settled. Navigation between marks ignores the active filter entirely.
// Each view owns its own Marks.
type Marks struct {
	mu   sync.Mutex
	keys []message.Key // sorted by the total order
}

// NewMarks returns an empty mark set.
func NewMarks() *Marks { return &Marks{} }

// Add records a stark point at k. Adding the same position twice is a
// no-op.
func (b *Marks) Add(k message.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := sort.Search(len(b.keys), func(i int) bool {
		return message.Compare(b.keys[i], k) >= 0
	})
	if i < len(b.keys) && message.Compare(b.keys[i], k) == 0 {
		return
	}
	b.keys = append(b.keys, message.Key{})
	copy(b.keys[i+1:], b.keys[i:])
	b.keys[i] = k
}

// Len returns the number of marks.
func (b *Marks) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.keys)
}

// Next returns the first mark strictly after the cursor.
func (b *Marks) Next(c Cursor) (message.Key, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch c.pos {
	case afterLast:
		return message.Key{}, false
	case beforeFirst:
		if len(b.keys) == 0 {
			return message.Key{}, false
		}
		return b.keys[0], true
	}
	i := sort.Search(len(b.keys), func(i int) bool {
		return message.Compare(b.keys[i], c.key) > 0
	})
	if i == len(b.keys) {
		return message.Key{}, false
	}
	return b.keys[i], true
}

// Prev returns the last mark strictly before the cursor.
func (b *Marks) Prev(c Cursor) (message.Key, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch c.pos {
	case beforeFirst:
		return message.Key{}, false
	case afterLast:
		if len(b.keys) == 0 {
			return message.Key{}, false
		}
		return b.keys[len(b.keys)-1], true
	}
	i := sort.Search(len(b.keys), func(i int) bool {
		return message.Compare(b.keys[i], c.key) >= 0
	})
	if i == 0 {
		return message.Key{}, false
	}
	return b.keys[i-1], true
}
