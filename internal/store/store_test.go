package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/1ts-org/snipe/internal/message"
)

var testEpoch = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// msg builds a message offset seconds after the test epoch.
func msg(backend, id string, offset int) *message.Message {
	return &message.Message{
		Backend:  backend,
		NativeID: id,
		Time:     testEpoch.Add(time.Duration(offset) * time.Second),
		Sender:   "alice",
		Body:     fmt.Sprintf("%s %s", backend, id),
	}
}

func keys(s *Store) []message.Key {
	var ks []message.Key
	s.Scan(func(m *message.Message) bool {
		ks = append(ks, m.Key())
		return true
	})
	return ks
}

func TestStore_InsertKeepsOrder(t *testing.T) {
	s := New()
	// Delivered out of timestamp order, as real feeds do.
	for _, m := range []*message.Message{
		msg("roost", "b", 10),
		msg("roost", "a", 5),
		msg("irc", "x", 7),
		msg("irc", "y", 20),
	} {
		if !s.Insert(m) {
			t.Fatalf("Insert(%s/%s) = false", m.Backend, m.NativeID)
		}
	}
	if got := s.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}

	ks := keys(s)
	for i := 1; i < len(ks); i++ {
		if !message.Less(ks[i-1], ks[i]) {
			t.Fatalf("order violated at %d: %v !< %v", i, ks[i-1], ks[i])
		}
	}

	first, ok := s.First()
	if !ok || first.NativeID != "a" {
		t.Errorf("First() = %v, want roost/a", first)
	}
	last, ok := s.Last()
	if !ok || last.NativeID != "y" {
		t.Errorf("Last() = %v, want irc/y", last)
	}
}

func TestStore_CrossBackendTimestampOrder(t *testing.T) {
	// The zephyr message is stamped earlier even though irc delivered
	// first; timestamp order wins.
	s := New()
	s.Insert(msg("irc", "newer", -9))
	s.Insert(msg("zephyr", "older", -10))

	first, _ := s.First()
	if first.Backend != "zephyr" {
		t.Errorf("First() backend = %s, want zephyr", first.Backend)
	}
}

func TestStore_InsertIsIdempotent(t *testing.T) {
	s := New()
	if !s.Insert(msg("roost", "1", 0)) {
		t.Fatal("first Insert() = false")
	}
	if s.Insert(msg("roost", "1", 0)) {
		t.Fatal("duplicate Insert() = true")
	}
	// Same native id on another backend is a different message.
	if !s.Insert(msg("irc", "1", 0)) {
		t.Fatal("Insert() same id, other backend = false")
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestStore_InsertStoresACopy(t *testing.T) {
	s := New()
	m := msg("roost", "1", 0)
	s.Insert(m)
	m.Body = "mutated after insert"

	stored, _ := s.First()
	if stored.Body != "roost 1" {
		t.Errorf("stored body = %q, caller mutation leaked in", stored.Body)
	}
}

func TestStore_BackfillDeduplicatesOverlap(t *testing.T) {
	s := New()
	s.Insert(msg("roost", "3", 3))
	s.Insert(msg("roost", "4", 4))

	added := s.Backfill([]*message.Message{
		msg("roost", "1", 1),
		msg("roost", "2", 2),
		msg("roost", "3", 3), // overlaps the live insert
	})
	if added != 2 {
		t.Errorf("Backfill() added = %d, want 2", added)
	}
	if got := s.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}

	ks := keys(s)
	for i := 1; i < len(ks); i++ {
		if !message.Less(ks[i-1], ks[i]) {
			t.Fatalf("order violated after backfill at %d", i)
		}
	}
}

func TestStore_SeqBreaksEqualTimestamps(t *testing.T) {
	s := New()
	a := msg("roost", "a", 0)
	b := msg("roost", "b", 0) // identical timestamp
	s.Insert(a)
	s.Insert(b)

	ks := keys(s)
	if len(ks) != 2 {
		t.Fatalf("Len() = %d, want 2", len(ks))
	}
	// Arrival order decides: a got the lower sequence number.
	first, _ := s.First()
	if first.NativeID != "a" {
		t.Errorf("First() = %s, want a", first.NativeID)
	}
	if ks[0].Seq >= ks[1].Seq {
		t.Errorf("seq not increasing: %d, %d", ks[0].Seq, ks[1].Seq)
	}
}

func TestStore_ConcurrentInsert(t *testing.T) {
	s := New()
	const feeds, per = 8, 50

	var wg sync.WaitGroup
	for f := 0; f < feeds; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			backend := fmt.Sprintf("feed-%d", f)
			for i := 0; i < per; i++ {
				s.Insert(msg(backend, fmt.Sprintf("%d", i), i))
			}
		}(f)
	}
	wg.Wait()

	if got := s.Len(); got != feeds*per {
		t.Fatalf("Len() = %d, want %d", got, feeds*per)
	}
	ks := keys(s)
	for i := 1; i < len(ks); i++ {
		if !message.Less(ks[i-1], ks[i]) {
			t.Fatalf("order violated at %d after concurrent inserts", i)
		}
	}
	for f := 0; f < feeds; f++ {
		backend := fmt.Sprintf("feed-%d", f)
		if got := s.CountForBackend(backend); got != per {
			t.Errorf("CountForBackend(%s) = %d, want %d", backend, got, per)
		}
	}
}
