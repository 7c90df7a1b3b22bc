// Package message defines the message value type shared by every backend
// and the total order the store keeps messages in.
package message

import (
	"fmt"
	"time"
)

// Message is one message as delivered by a backend feed. It is immutable
// once handed to the store; backends build one and never touch it again.
type Message struct {
	// Backend is the identifier of the feed that produced the message.
	Backend string `json:"backend"`
	// NativeID is the backend's own id for the message. Together with
	// Backend it identifies a delivery for deduplication.
	NativeID string `json:"native_id"`
	// Seq is the arrival sequence number assigned by the store.
	Seq uint64 `json:"seq,omitempty"`

	Time     time.Time `json:"time"`
	Sender   string    `json:"sender,omitempty"`
	Class    string    `json:"class,omitempty"`
	Instance string    `json:"instance,omitempty"`
	Body     string    `json:"body,omitempty"`
	Outgoing bool      `json:"outgoing,omitempty"`
	Personal bool      `json:"personal,omitempty"`

	// Meta is opaque backend metadata, passed through to display and
	// reply logic without interpretation.
	Meta map[string]any `json:"meta,omitempty"`
}

// Key is the total order key for a message: protocol timestamp, tie-broken
// by arrival sequence number and then backend identifier. Backend clocks
// disagree, so the tiebreakers keep the order deterministic.
type Key struct {
	Time    time.Time
	Seq     uint64
	Backend string
}

// Key returns the message's position in the total order.
func (m *Message) Key() Key {
	return Key{Time: m.Time, Seq: m.Seq, Backend: m.Backend}
}

// Compare returns -1, 0, or 1 as a orders before, equal to, or after b.
func Compare(a, b Key) int {
	switch {
	case a.Time.Before(b.Time):
		return -1
	case a.Time.After(b.Time):
		return 1
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	case a.Backend < b.Backend:
		return -1
	case a.Backend > b.Backend:
		return 1
	}
	return 0
}

// Less reports whether a orders strictly before b.
func Less(a, b Key) bool { return Compare(a, b) < 0 }

// Field names understood by the filter language.
const (
	FieldSender   = "sender"
	FieldClass    = "class"
	FieldTarget   = "target" // alias for class
	FieldInstance = "instance"
	FieldBackend  = "backend"
	FieldBody     = "body"
	FieldOutgoing = "outgoing"
	FieldPersonal = "personal"
)

// KnownFields lists every field name the filter language may reference.
var KnownFields = []string{
	FieldSender, FieldClass, FieldTarget, FieldInstance,
	FieldBackend, FieldBody, FieldOutgoing, FieldPersonal,
}

// BoolField reports whether the named field carries a boolean value.
func BoolField(name string) bool {
	return name == FieldOutgoing || name == FieldPersonal
}

// KnownField reports whether name is a field the filter language may use.
func KnownField(name string) bool {
	for _, f := range KnownFields {
		if f == name {
			return true
		}
	}
	return false
}

// Field looks up a message attribute by its filter-language name. The
// second return is false when the field is not applicable to this message:
// an empty sender, class, or instance counts as absent so that filters can
// distinguish "doesn't match" from "not there at all". The boolean and
// backend fields are always present.
func (m *Message) Field(name string) (any, bool) {
	switch name {
	case FieldSender:
		return m.Sender, m.Sender != ""
	case FieldClass, FieldTarget:
		return m.Class, m.Class != ""
	case FieldInstance:
		return m.Instance, m.Instance != ""
	case FieldBackend:
		return m.Backend, m.Backend != ""
	case FieldBody:
		return m.Body, true
	case FieldOutgoing:
		return m.Outgoing, true
	case FieldPersonal:
		return m.Personal, true
	}
	return nil, false
}

// Vars returns the field bindings visible to raw predicate expressions.
// The map is freshly built per call so an expression can never reach back
// into the message.
func (m *Message) Vars() map[string]any {
	return map[string]any{
		FieldSender:   m.Sender,
		FieldClass:    m.Class,
		FieldTarget:   m.Class,
		FieldInstance: m.Instance,
		FieldBackend:  m.Backend,
		FieldBody:     m.Body,
		FieldOutgoing: m.Outgoing,
		FieldPersonal: m.Personal,
	}
}

func (m *Message) String() string {
	return fmt.Sprintf("<%s/%s %s %q>", m.Backend, m.NativeID, m.Time.Format(time.RFC3339), m.Sender)
}
