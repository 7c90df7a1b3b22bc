package store

import (
	"errors"
	"testing"

	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
)

func TestSimilarFilter_Levels(t *testing.T) {
	m := &message.Message{
		Backend:  "roost",
		Sender:   "alice",
		Class:    "lunch",
		Instance: "where",
	}
	tests := []struct {
		name  string
		level int
		want  string
	}{
		{name: "sender", level: SimilarSender, want: `sender = "alice"`},
		{name: "sender and class", level: SimilarClass, want: `sender = "alice" and class = "lunch"`},
		{name: "full", level: SimilarInstance, want: `sender = "alice" and class = "lunch" and instance = "where"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimilarFilter(m, tt.level)
			want, err := filter.Parse(tt.want)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.want, err)
			}
			if !got.Equal(want) {
				t.Errorf("SimilarFilter(level %d) = %v, want %v", tt.level, got, want)
			}
		})
	}
}

func TestSimilarFilter_SkipsAbsentFields(t *testing.T) {
	noInstance := &message.Message{Backend: "irc", Sender: "alice", Class: "lunch"}
	got := SimilarFilter(noInstance, SimilarInstance)
	want, _ := filter.Parse(`sender = "alice" and class = "lunch"`)
	if !got.Equal(want) {
		t.Errorf("SimilarFilter() = %v, want %v", got, want)
	}

	bare := &message.Message{Backend: "irc"}
	got = SimilarFilter(bare, SimilarInstance)
	want, _ = filter.Parse(`backend = "irc"`)
	if !got.Equal(want) {
		t.Errorf("SimilarFilter() on bare message = %v, want backend fallback %v", got, want)
	}
}

func TestFindSimilar(t *testing.T) {
	s := New()
	mk := func(id string, off int, sender, class string) *message.Message {
		m := msg("roost", id, off)
		m.Sender = sender
		m.Class = class
		s.Insert(m)
		return m
	}
	a0 := mk("a0", 0, "alice", "lunch")
	mk("b1", 1, "bob", "lunch")
	a2 := mk("a2", 2, "alice", "help")
	a3 := mk("a3", 3, "alice", "lunch")

	got, err := s.FindSimilar(AtMessage(a0), Forward, a0, SimilarSender, nil)
	if err != nil {
		t.Fatalf("FindSimilar(sender) error = %v", err)
	}
	if got.Key() != a2.Key() {
		t.Errorf("FindSimilar(sender) = %v, want %v", got, a2)
	}

	got, err = s.FindSimilar(AtMessage(a0), Forward, a0, SimilarClass, nil)
	if err != nil {
		t.Fatalf("FindSimilar(class) error = %v", err)
	}
	if got.Key() != a3.Key() {
		t.Errorf("FindSimilar(class) = %v, want %v", got, a3)
	}

	if _, err := s.FindSimilar(AtMessage(a3), Forward, a3, SimilarClass, nil); !errors.Is(err, ErrBoundary) {
		t.Errorf("FindSimilar() past last error = %v, want ErrBoundary", err)
	}
}

func TestFindSimilar_LeavesStackAlone(t *testing.T) {
	s := New()
	m := msg("roost", "a", 0)
	m.Sender = "alice"
	s.Insert(m)

	stack := stackOf(t, `class = "dinner"`)
	depth := stack.Depth()
	if _, err := s.FindSimilar(BeforeFirst(), Forward, m, SimilarSender, nil); err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if stack.Depth() != depth {
		t.Errorf("stack depth changed: %d -> %d", depth, stack.Depth())
	}
}
