package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1ts-org/snipe/internal/store"
)

func writeDump(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func dumpLine(id string, at time.Time, sender, body string) string {
	return fmt.Sprintf(`{"backend":"zephyr","native_id":%q,"time":%q,"sender":%q,"body":%q}`,
		id, at.Format(time.RFC3339), sender, body)
}

func TestJSONLFeed_Run(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	path := writeDump(t,
		dumpLine("1", now.Add(-2*time.Minute), "alice", "first"),
		"", // blank lines are fine
		dumpLine("2", now.Add(-time.Minute), "bob", "second"),
	)

	st := store.New()
	p := NewPump(st, JSONLFeed{Path: path})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := st.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	first, _ := st.First()
	if first.Sender != "alice" || first.Backend != "zephyr" {
		t.Errorf("First() = %v, want alice via zephyr", first)
	}
}

func TestJSONLFeed_HorizonSplitsLiveFromHistory(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	path := writeDump(t,
		dumpLine("old", now.Add(-time.Hour), "alice", "history"),
		dumpLine("new", now, "bob", "live"),
	)
	feed := JSONLFeed{Path: path, Horizon: now.Add(-time.Minute)}

	st := store.New()
	p := NewPump(st, feed)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := st.Len(); got != 1 {
		t.Fatalf("Len() after live run = %d, want 1", got)
	}

	if err := p.RequestBackfill(context.Background(), feed.Name(), now.Add(-time.Minute), 10); err != nil {
		t.Fatalf("RequestBackfill() error = %v", err)
	}
	if got := st.Len(); got != 2 {
		t.Fatalf("Len() after backfill = %d, want 2", got)
	}
	first, _ := st.First()
	if first.NativeID != "old" {
		t.Errorf("First() = %v, want the backfilled message", first)
	}
}

func TestJSONLFeed_BackfillHonorsLimit(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, dumpLine(fmt.Sprintf("%d", i), now.Add(time.Duration(i-10)*time.Minute), "alice", "x"))
	}
	feed := JSONLFeed{Path: writeDump(t, lines...), Horizon: now}

	st := store.New()
	p := NewPump(st, feed)
	if err := p.RequestBackfill(context.Background(), feed.Name(), now, 2); err != nil {
		t.Fatalf("RequestBackfill() error = %v", err)
	}
	if got := st.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (limit)", got)
	}
	// The limit keeps the newest of the older messages.
	first, _ := st.First()
	if first.NativeID != "3" {
		t.Errorf("First() = %v, want id 3", first)
	}
}

func TestJSONLFeed_StampsMissingIdentity(t *testing.T) {
	path := writeDump(t, `{"time":"2026-08-30T12:00:00Z","body":"anonymous"}`)
	feed := JSONLFeed{Path: path}

	msgs, err := feed.read()
	if err != nil {
		t.Fatalf("read() error = %v", err)
	}
	if msgs[0].Backend != feed.Name() {
		t.Errorf("Backend = %q, want the feed name", msgs[0].Backend)
	}
	if msgs[0].NativeID != "line-1" {
		t.Errorf("NativeID = %q, want line-1", msgs[0].NativeID)
	}
}

func TestJSONLFeed_MalformedLineFailsTheRead(t *testing.T) {
	path := writeDump(t,
		`{"time":"2026-08-30T12:00:00Z","body":"ok"}`,
		`{not json`,
	)
	st := store.New()
	p := NewPump(st, JSONLFeed{Path: path})
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() with a malformed dump succeeded")
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Errorf("error %q does not point at line 2", err)
	}
}

func TestJSONLFeed_MissingFile(t *testing.T) {
	p := NewPump(store.New(), JSONLFeed{Path: filepath.Join(t.TempDir(), "nope.jsonl")})
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("Run() with a missing dump succeeded")
	}
}
