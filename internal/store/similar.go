package store

import (
	"github.com/1ts-org/snipe/internal/filter"
	"github.com/1ts-org/snipe/internal/message"
)

// Specificity levels for filters derived from a message. Each level adds
// one more field to narrow the match.
const (
	SimilarSender   = 0 // same sender
	SimilarClass    = 1 // same sender and class
	SimilarInstance = 2 // same sender, class, and instance
)

// SimilarFilter builds a transient filter matching messages similar to m
// at the given specificity level. Fields absent from m are skipped rather
// than producing an unmatchable comparison; a message with no usable
// fields at all falls back to matching its backend.
func SimilarFilter(m *message.Message, level int) *filter.Filter {
	var parts []*filter.Filter
	if m.Sender != "" {
		parts = append(parts, filter.Compare(message.FieldSender, "=", m.Sender))
	}
	if level >= SimilarClass && m.Class != "" {
		parts = append(parts, filter.Compare(message.FieldClass, "=", m.Class))
	}
	if level >= SimilarInstance && m.Instance != "" {
		parts = append(parts, filter.Compare(message.FieldInstance, "=", m.Instance))
	}
	if len(parts) == 0 {
		return filter.Compare(message.FieldBackend, "=", m.Backend)
	}
	return filter.And(parts...)
}

// FindSimilar scans from the cursor for the next message similar to m at
// the given specificity level. The derived filter is transient; the
// view's persistent filter stack is never touched.
func (s *Store) FindSimilar(c Cursor, dir Direction, m *message.Message, level int, r filter.Resolver) (*message.Message, error) {
	return s.findFilter(c, dir, SimilarFilter(m, level), r)
}
