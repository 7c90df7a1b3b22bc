package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/1ts-org/snipe/internal/message"
)

// JSONLFeed replays a JSON-lines message dump as a feed: one message
// object per line, in the dump's delivery order. Live Run delivers
// everything newer than the Horizon; Backfill serves older lines on
// demand, which makes the dump behave like a real backend with history.
type JSONLFeed struct {
	Path string
	// Horizon splits the dump: lines at or after it are "live", lines
	// before it are only served through Backfill. The zero Horizon
	// makes the whole dump live.
	Horizon time.Time
}

func (f JSONLFeed) Name() string { return "jsonl:" + f.Path }

func (f JSONLFeed) Run(ctx context.Context, sink Sink) error {
	sink.StateChanged(f.Name(), StateConnecting)
	msgs, err := f.read()
	if err != nil {
		sink.StateChanged(f.Name(), StateDisconnected)
		return err
	}
	sink.StateChanged(f.Name(), StateConnected)
	for _, m := range msgs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if m.Time.Before(f.Horizon) {
			continue
		}
		sink.Deliver(m)
	}
	return nil
}

// Backfill delivers up to limit of the newest messages older than
// before.
func (f JSONLFeed) Backfill(ctx context.Context, before time.Time, limit int, sink Sink) error {
	msgs, err := f.read()
	if err != nil {
		return err
	}
	var older []*message.Message
	for _, m := range msgs {
		if m.Time.Before(before) {
			older = append(older, m)
		}
	}
	if limit > 0 && len(older) > limit {
		older = older[len(older)-limit:]
	}
	sink.DeliverRange(older)
	return nil
}

// read parses the dump. Messages missing a backend name are stamped with
// the feed's; a malformed line fails the whole read so a truncated dump
// is noticed rather than silently shortened.
func (f JSONLFeed) read() ([]*message.Message, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open message dump: %w", err)
	}
	defer file.Close()

	var msgs []*message.Message
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var m message.Message
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", f.Path, line, err)
		}
		if m.Backend == "" {
			m.Backend = f.Name()
		}
		if m.NativeID == "" {
			m.NativeID = fmt.Sprintf("line-%d", line)
		}
		msgs = append(msgs, &m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read message dump: %w", err)
	}
	return msgs, nil
}
