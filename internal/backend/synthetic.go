package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/1ts-org/snipe/internal/message"
)

// StartupFeed delivers a single greeting message and finishes. It exists
// so a freshly started client always has something on screen.
type StartupFeed struct{}

func (StartupFeed) Name() string { return "startup" }

func (f StartupFeed) Run(ctx context.Context, sink Sink) error {
	sink.StateChanged(f.Name(), StateConnected)
	sink.Deliver(&message.Message{
		Backend:  f.Name(),
		NativeID: "welcome",
		Time:     time.Now(),
		Body:     "Welcome to snipe.",
	})
	return nil
}

func (StartupFeed) Backfill(ctx context.Context, before time.Time, limit int, sink Sink) error {
	sink.DeliverRange(nil)
	return nil
}

// SyntheticFeed generates a run of test messages with bodies cycled from
// an alphabet string, one per second counting back from its start time.
// Used by tests and by scan --synthetic.
type SyntheticFeed struct {
	Count    int
	Alphabet string
	Width    int
	Start    time.Time // zero means now
}

func (f SyntheticFeed) Name() string {
	return fmt.Sprintf("synthetic-%d-%s-%d", f.count(), f.alphabet(), f.width())
}

func (f SyntheticFeed) count() int { return max(f.Count, 1) }

func (f SyntheticFeed) width() int {
	if f.Width <= 0 {
		return 72
	}
	return f.Width
}

func (f SyntheticFeed) alphabet() string {
	if f.Alphabet == "" {
		return "0123456789"
	}
	return f.Alphabet
}

func (f SyntheticFeed) start() time.Time {
	if f.Start.IsZero() {
		return time.Now()
	}
	return f.Start
}

func (f SyntheticFeed) Run(ctx context.Context, sink Sink) error {
	sink.StateChanged(f.Name(), StateConnected)
	for _, m := range f.generate(0, f.count()) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sink.Deliver(m)
	}
	return nil
}

// Backfill generates limit messages older than the live run, so cursor
// navigation off the left edge of the window has something to fetch.
func (f SyntheticFeed) Backfill(ctx context.Context, before time.Time, limit int, sink Sink) error {
	sink.DeliverRange(f.generate(f.count(), limit))
	return nil
}

// generate builds n messages, oldest first, aged baseAge+n down to
// baseAge+1 seconds before the feed's start time. The age doubles as the
// native id, so overlapping backfills deduplicate in the store.
func (f SyntheticFeed) generate(baseAge, n int) []*message.Message {
	start := f.start()
	alphabet := f.alphabet()
	msgs := make([]*message.Message, 0, n)
	for i := 0; i < n; i++ {
		age := baseAge + n - i
		msgs = append(msgs, &message.Message{
			Backend:  f.Name(),
			NativeID: fmt.Sprintf("synthetic-%d", age),
			Time:     start.Add(-time.Duration(age) * time.Second),
			Sender:   f.Name(),
			Body:     cycled(alphabet, age, f.width()),
		})
	}
	return msgs
}

// cycled returns width characters of the alphabet repeated, starting at
// position start.
func cycled(alphabet string, start, width int) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		b.WriteByte(alphabet[(start+i)%len(alphabet)])
	}
	return b.String()
}
