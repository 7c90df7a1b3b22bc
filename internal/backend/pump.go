package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/1ts-org/snipe/internal/message"
	"github.com/1ts-org/snipe/internal/store"
)

// Pump fans concurrent feeds into one store. Each feed runs in its own
// goroutine and stays single-producer in its own delivery order; the
// store's key order takes care of the merge. A slow or failing feed
// never blocks readers — they just see the window it last filled.
type Pump struct {
	store  *store.Store
	feeds  map[string]Feed
	logger *slog.Logger
}

// NewPump returns a pump delivering into st.
func NewPump(st *store.Store, feeds ...Feed) *Pump {
	p := &Pump{
		store:  st,
		feeds:  make(map[string]Feed, len(feeds)),
		logger: slog.Default(),
	}
	for _, f := range feeds {
		p.feeds[f.Name()] = f
	}
	return p
}

// WithLogger sets the logger for delivery diagnostics.
func (p *Pump) WithLogger(logger *slog.Logger) *Pump {
	p.logger = logger
	return p
}

// Run drives every feed until the context is cancelled or a feed fails.
func (p *Pump) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for name, feed := range p.feeds {
		name, feed := name, feed
		g.Go(func() error {
			p.logger.Debug("feed starting", "feed", name)
			if err := feed.Run(ctx, p); err != nil {
				return fmt.Errorf("feed %s: %w", name, err)
			}
			p.logger.Debug("feed finished", "feed", name)
			return nil
		})
	}
	return g.Wait()
}

// RequestBackfill asks the named feed for messages older than before.
// Completion arrives asynchronously as a DeliverRange call; a transient
// feed failure is the feed's to retry, not ours.
func (p *Pump) RequestBackfill(ctx context.Context, feed string, before time.Time, limit int) error {
	f, ok := p.feeds[feed]
	if !ok {
		return fmt.Errorf("no feed named %q", feed)
	}
	return f.Backfill(ctx, before, limit, p)
}

// Deliver implements Sink.
func (p *Pump) Deliver(m *message.Message) {
	if !p.store.Insert(m) {
		p.logger.Debug("duplicate delivery dropped", "backend", m.Backend, "id", m.NativeID)
	}
}

// DeliverRange implements Sink.
func (p *Pump) DeliverRange(msgs []*message.Message) {
	added := p.store.Backfill(msgs)
	p.logger.Debug("backfill applied", "delivered", len(msgs), "added", added)
}

// StateChanged implements Sink.
func (p *Pump) StateChanged(feed string, state State) {
	p.logger.Info("feed state changed", "feed", feed, "state", state.String())
}
