package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeYu/polymarketArb/internal/domain"
)

func market(id, eventID string) domain.Market {
	return domain.Market{ID: id, EventID: eventID, Active: true}
}

func TestSnapshot_PutAndGet(t *testing.T) {
	s := NewSnapshot()

	_, ok := s.Get("m1")
	assert.False(t, ok)

	s.Put(market("m1", "ev1"))
	got, ok := s.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, 1, s.Len())
}

func TestSnapshot_PutReplacesWholeRecord(t *testing.T) {
	s := NewSnapshot()
	s.Put(market("m1", "ev1"))

	updated := market("m1", "ev2")
	updated.Active = false
	s.Put(updated)

	got, ok := s.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "ev2", got.EventID)
	assert.False(t, got.Active)
	assert.Equal(t, 1, s.Len())
}

func TestSnapshot_AllIsPointInTimeCopy(t *testing.T) {
	s := NewSnapshot()
	s.Put(market("m1", "ev1"))
	s.Put(market("m2", "ev1"))

	all := s.All()
	require.Len(t, all, 2)

	// Later writes must not show up in the copy.
	s.Put(market("m3", "ev2"))
	assert.Len(t, all, 2)
	assert.Equal(t, 3, s.Len())
}

func TestSnapshot_ByEvent(t *testing.T) {
	s := NewSnapshot()
	s.Put(market("m1", "ev1"))
	s.Put(market("m2", "ev1"))
	s.Put(market("m3", "ev2"))

	assert.Len(t, s.ByEvent("ev1"), 2)
	assert.Len(t, s.ByEvent("ev2"), 1)
	assert.Empty(t, s.ByEvent("ev3"))
}
