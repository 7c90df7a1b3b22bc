package store

import (
	"testing"

	"github.com/1ts-org/snipe/internal/message"
)

func markKeys(t *testing.T, offsets ...int) (*Marks, []message.Key) {
	t.Helper()
	b := NewMarks()
	keys := make([]message.Key, len(offsets))
	for i, off := range offsets {
		keys[i] = msg("roost", "x", off).Key()
		b.Add(keys[i])
	}
	return b, keys
}

func TestMarks_AddSortsAndDeduplicates(t *testing.T) {
	b, keys := markKeys(t, 30, 10, 20)
	if got := b.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	b.Add(keys[1]) // duplicate
	if got := b.Len(); got != 3 {
		t.Errorf("Len() after duplicate Add = %d, want 3", got)
	}

	// Walk forward from the start: marks come back in order regardless of
	// insertion order.
	want := []message.Key{keys[1], keys[2], keys[0]} // offsets 10, 20, 30
	c := BeforeFirst()
	for i, w := range want {
		k, ok := b.Next(c)
		if !ok {
			t.Fatalf("Next() %d = none, want %v", i, w)
		}
		if k != w {
			t.Fatalf("Next() %d = %v, want %v", i, k, w)
		}
		c = At(k)
	}
	if _, ok := b.Next(c); ok {
		t.Error("Next() past the last mark = some, want none")
	}
}

func TestMarks_NextPrevAreStrict(t *testing.T) {
	b, keys := markKeys(t, 10, 20, 30)

	// From a mark itself, Next and Prev both move off it.
	if k, ok := b.Next(At(keys[1])); !ok || k != keys[2] {
		t.Errorf("Next(at 20) = %v, %v, want key at 30", k, ok)
	}
	if k, ok := b.Prev(At(keys[1])); !ok || k != keys[0] {
		t.Errorf("Prev(at 20) = %v, %v, want key at 10", k, ok)
	}

	// From an unmarked position between marks.
	between := msg("roost", "x", 15).Key()
	if k, ok := b.Next(At(between)); !ok || k != keys[1] {
		t.Errorf("Next(at 15) = %v, %v, want key at 20", k, ok)
	}
	if k, ok := b.Prev(At(between)); !ok || k != keys[0] {
		t.Errorf("Prev(at 15) = %v, %v, want key at 10", k, ok)
	}
}

func TestMarks_Boundaries(t *testing.T) {
	b, keys := markKeys(t, 10, 20)

	if k, ok := b.Next(BeforeFirst()); !ok || k != keys[0] {
		t.Errorf("Next(before first) = %v, %v, want first mark", k, ok)
	}
	if _, ok := b.Prev(BeforeFirst()); ok {
		t.Error("Prev(before first) = some, want none")
	}
	if k, ok := b.Prev(AfterLast()); !ok || k != keys[1] {
		t.Errorf("Prev(after last) = %v, %v, want last mark", k, ok)
	}
	if _, ok := b.Next(AfterLast()); ok {
		t.Error("Next(after last) = some, want none")
	}

	empty := NewMarks()
	if _, ok := empty.Next(BeforeFirst()); ok {
		t.Error("Next() on empty marks = some, want none")
	}
	if _, ok := empty.Prev(AfterLast()); ok {
		t.Error("Prev() on empty marks = some, want none")
	}
}

func TestMarks_IgnoreFilter(t *testing.T) {
	// Mark navigation is pure position arithmetic; it needs no store and
	// no filter, so a mark on a message the active filter hides is still
	// reachable. Nothing here consults a filter at all.
	b, keys := markKeys(t, 10)
	if k, ok := b.Next(BeforeFirst()); !ok || k != keys[0] {
		t.Errorf("Next() = %v, %v, want the mark", k, ok)
	}
}
