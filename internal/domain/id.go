package domain

import (
	"sync/atomic"
	"time"
)

// IDSource mints client-side polyp identities. Identities are monotonic and
// unique within a process; the backend may later reassign them, in which
// case the store is rekeyed.
type IDSource struct {
	last atomic.Int64
}

// NewIDSource seeds the source with the current wall clock in milliseconds
// so identities from separate sessions do not collide on the backend.
func NewIDSource() *IDSource {
	s := &IDSource{}
	s.last.Store(time.Now().UnixMilli())
	return s
}

// Next returns a fresh identity.
func (s *IDSource) Next() int64 {
	return s.last.Add(1)
}
