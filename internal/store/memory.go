package store

import (
	"context"
	"sync"
	"time"

	"github.com/richardquay/urg-ride-maker/internal/models"
)

// MemoryStore keeps rides in a map. It hands out copies so callers can't
// mutate stored state without going through Replace.
type MemoryStore struct {
	mu     sync.RWMutex
	rides  map[string]*models.Ride
	nextID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[string]*models.Ride)}
}

func (s *MemoryStore) Append(_ context.Context, ride *models.Ride) (*models.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	cp := copyRide(ride)
	cp.ID = s.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.rides[cp.MessageID] = cp
	return copyRide(cp), nil
}

func (s *MemoryStore) FindByMessageID(_ context.Context, messageID string) (*models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ride, ok := s.rides[messageID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRide(ride), nil
}

func (s *MemoryStore) Replace(_ context.Context, ride *models.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rides[ride.MessageID]
	if !ok {
		return ErrNotFound
	}

	cp := copyRide(ride)
	cp.ID = existing.ID
	cp.CreatedAt = existing.CreatedAt
	s.rides[ride.MessageID] = cp
	return nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rides := make([]models.Ride, 0, len(s.rides))
	for _, ride := range s.rides {
		rides = append(rides, *copyRide(ride))
	}
	return rides, nil
}

func copyRide(r *models.Ride) *models.Ride {
	cp := *r
	cp.Participants = make([]models.Participant, len(r.Participants))
	copy(cp.Participants, r.Participants)
	return &cp
}
