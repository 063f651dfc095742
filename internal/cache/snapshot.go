// Package cache provides the in-process market snapshot store. It is the
// only piece of state shared between the ingestion and detection loops; all
// of it is rebuilt from the venue on every ingestion sweep, nothing is
// persisted.
package cache

import (
	"sync"

	"github.com/CadeYu/polymarketArb/internal/domain"
)

// Snapshot is a concurrent last-writer-wins map of market ID to the latest
// known market state. One writer (the ingestor) and any number of readers
// (the detectors) may use it without external locking. Each record is
// replaced atomically and wholly, never partially updated.
type Snapshot struct {
	mu      sync.RWMutex
	markets map[string]domain.Market
}

// NewSnapshot returns an empty snapshot cache.
func NewSnapshot() *Snapshot {
	return &Snapshot{markets: make(map[string]domain.Market)}
}

// Put upserts a market record by its ID.
func (s *Snapshot) Put(m domain.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets[m.ID] = m
}

// Get returns the current record for the given market ID.
func (s *Snapshot) Get(id string) (domain.Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markets[id]
	return m, ok
}

// All returns a point-in-time copy of every market currently in the cache.
// Callers must tolerate the cache changing between All and any later Get.
func (s *Snapshot) All() []domain.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Market, 0, len(s.markets))
	for _, m := range s.markets {
		out = append(out, m)
	}
	return out
}

// ByEvent returns the markets whose EventID matches eventID.
func (s *Snapshot) ByEvent(eventID string) []domain.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Market
	for _, m := range s.markets {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	return out
}

// Len reports the number of cached markets.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markets)
}
