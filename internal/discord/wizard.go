package discord

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richardquay/urg-ride-maker/internal/services"
)

const pendingTTL = 10 * time.Minute

// PendingRide holds create-ride input that is waiting on a custom
// location modal before it can be built and posted.
type PendingRide struct {
	Input     services.RideInput
	NeedStart bool
	NeedEnd   bool
	GuildID   string
	CreatedAt time.Time
}

// PendingStore keeps in-flight create-ride flows keyed by a one-time flow
// ID. Entries expire so an abandoned modal does not pin memory.
type PendingStore struct {
	mu      sync.Mutex
	pending map[string]*PendingRide
	now     func() time.Time
}

func NewPendingStore() *PendingStore {
	return &PendingStore{
		pending: make(map[string]*PendingRide),
		now:     time.Now,
	}
}

// Put stores a pending flow and returns its flow ID.
func (s *PendingStore) Put(p *PendingRide) string {
	id := uuid.NewString()
	p.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.pending[id] = p
	return id
}

// Take removes and returns the flow for a modal submit. The second return
// is false when the flow expired or never existed.
func (s *PendingStore) Take(flowID string) (*PendingRide, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[flowID]
	if !ok {
		return nil, false
	}
	delete(s.pending, flowID)
	if s.now().Sub(p.CreatedAt) > pendingTTL {
		return nil, false
	}
	return p, true
}

func (s *PendingStore) sweepLocked() {
	cutoff := s.now().Add(-pendingTTL)
	for id, p := range s.pending {
		if p.CreatedAt.Before(cutoff) {
			delete(s.pending, id)
		}
	}
}
