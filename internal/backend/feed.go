// Package backend defines the boundary between backend feeds, which speak
// some messaging protocol elsewhere, and the message store. Nothing in
// this package knows a wire protocol; it only moves messages delivered by
// feeds into the store.
package backend

import (
	"context"
	"time"

	"github.com/1ts-org/snipe/internal/message"
)

// State is a feed's connection state, reported to the sink for
// information only; the store serves whatever it holds regardless.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// Sink receives what a feed produces. The pump implements it on top of
// the store.
type Sink interface {
	// Deliver hands over one live message.
	Deliver(m *message.Message)
	// DeliverRange hands over a fetched historical range.
	DeliverRange(msgs []*message.Message)
	// StateChanged reports a connection state transition.
	StateChanged(feed string, state State)
}

// Feed is one backend connection. Implementations own all protocol
// detail, retry, and backoff; the store never retries on their behalf.
// A feed delivers its own messages in its own order; ordering across
// feeds is the store's problem.
type Feed interface {
	// Name identifies the feed; it becomes the backend field of every
	// message it delivers.
	Name() string
	// Run delivers live messages to the sink until the context is
	// cancelled or the feed is exhausted.
	Run(ctx context.Context, sink Sink) error
	// Backfill fetches up to limit messages older than the given time
	// and hands them to the sink as a range.
	Backfill(ctx context.Context, before time.Time, limit int, sink Sink) error
}
