package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/richardquay/urg-ride-maker/internal/models"
	"github.com/richardquay/urg-ride-maker/internal/store"
)

type ParticipationAction string

const (
	ParticipationJoin  ParticipationAction = "join"
	ParticipationLeave ParticipationAction = "leave"
)

// ParticipationTracker applies join/leave reactions to ride rosters.
// Updates for the same announcement message are serialized so concurrent
// reactions cannot lose each other's writes.
type ParticipationTracker struct {
	store store.RideStore
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewParticipationTracker(s store.RideStore) *ParticipationTracker {
	return &ParticipationTracker{
		store: s,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// Apply updates the roster of the ride announced by messageID. It returns
// the updated ride and whether the roster actually changed. Reactions on
// messages that are not ride announcements return (nil, false, nil).
func (t *ParticipationTracker) Apply(ctx context.Context, messageID, userID, username string, action ParticipationAction) (*models.Ride, bool, error) {
	lock := t.lockFor(messageID)
	lock.Lock()
	defer lock.Unlock()

	ride, err := t.store.FindByMessageID(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var changed bool
	switch action {
	case ParticipationJoin:
		changed = t.join(ride, userID, username)
	case ParticipationLeave:
		changed = t.leave(ride, userID)
	default:
		return nil, false, errors.New("unknown participation action")
	}

	if !changed {
		return ride, false, nil
	}
	if err := t.store.Replace(ctx, ride); err != nil {
		return nil, false, err
	}
	return ride, true, nil
}

func (t *ParticipationTracker) join(ride *models.Ride, userID, username string) bool {
	if ride.HasParticipant(userID) {
		return false
	}
	ride.Participants = append(ride.Participants, models.Participant{
		UserID:   userID,
		Username: username,
		JoinedAt: t.now(),
	})
	return true
}

func (t *ParticipationTracker) leave(ride *models.Ride, userID string) bool {
	for i, p := range ride.Participants {
		if p.UserID == userID {
			ride.Participants = append(ride.Participants[:i], ride.Participants[i+1:]...)
			return true
		}
	}
	return false
}

func (t *ParticipationTracker) lockFor(messageID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[messageID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[messageID] = lock
	}
	return lock
}
