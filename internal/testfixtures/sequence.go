package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// Sequence produces deterministic identifiers such as "booking-1", "booking-2".
type Sequence struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequence returns a sequence using prefix, or "id" when prefix is empty.
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "id"
	}
	return &Sequence{prefix: prefix}
}

// Next returns the next identifier.
func (s *Sequence) Next() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.counter.Add(1))
}
