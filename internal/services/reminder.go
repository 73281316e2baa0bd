package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/richardquay/urg-ride-maker/internal/dates"
	"github.com/richardquay/urg-ride-maker/internal/metrics"
	"github.com/richardquay/urg-ride-maker/internal/models"
	"github.com/richardquay/urg-ride-maker/internal/store"
)

const (
	participantReminderLead = 24 * time.Hour
	hostReminderLead        = 30 * time.Minute
)

// ReminderNotifier delivers reminder messages. The Discord layer implements
// it with DM embeds.
type ReminderNotifier interface {
	SendParticipantReminders(ride *models.Ride)
	SendHostReminder(ride *models.Ride)
}

// ReminderScheduler arms two timers per ride: a participant reminder a day
// before rollout and a host reminder shortly before. Both callbacks re-read
// the store when they fire so they see the roster as it is then, not as it
// was when the ride was created.
type ReminderScheduler struct {
	store    store.RideStore
	notifier ReminderNotifier
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	timers []*time.Timer
}

func NewReminderScheduler(s store.RideStore, notifier ReminderNotifier, log zerolog.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		store:    s,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Schedule arms both reminder timers for a newly created ride. Reminder
// times already in the past fire immediately, so a ride created inside a
// lead window still notifies.
func (s *ReminderScheduler) Schedule(ride *models.Ride) error {
	when, err := dates.RideDateTime(ride.Date, ride.MeetTime, s.now())
	if err != nil {
		return err
	}
	s.arm(ride.MessageID, when)
	return nil
}

// ScheduleAll re-arms reminders for stored rides, for use at startup.
// Rides that have already started are left alone so a restart does not
// re-send reminders for finished rides; rides whose stored date no longer
// parses are skipped.
func (s *ReminderScheduler) ScheduleAll(ctx context.Context) error {
	rides, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range rides {
		ride := &rides[i]
		when, err := dates.RideDateTime(ride.Date, ride.MeetTime, s.now())
		if err != nil {
			s.log.Warn().Err(err).Str("message_id", ride.MessageID).Msg("could not schedule reminders")
			continue
		}
		if !when.After(s.now()) {
			continue
		}
		s.arm(ride.MessageID, when)
	}
	return nil
}

func (s *ReminderScheduler) arm(messageID string, when time.Time) {
	s.armParticipant(messageID, when.Add(-participantReminderLead))
	s.armHost(messageID, when.Add(-hostReminderLead))
	s.log.Info().
		Str("message_id", messageID).
		Time("ride_at", when).
		Msg("reminders scheduled")
}

// Stop cancels every armed timer.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *ReminderScheduler) armParticipant(messageID string, at time.Time) {
	s.armAt(at, func() { s.fireParticipant(messageID) })
}

func (s *ReminderScheduler) armHost(messageID string, at time.Time) {
	s.armAt(at, func() { s.fireHost(messageID) })
}

func (s *ReminderScheduler) armAt(at time.Time, fn func()) {
	d := at.Sub(s.now())
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, time.AfterFunc(d, fn))
}

func (s *ReminderScheduler) fireParticipant(messageID string) {
	ride, ok := s.lookup(messageID)
	if !ok {
		return
	}
	if len(ride.Participants) == 0 {
		s.log.Debug().Str("message_id", messageID).Msg("no participants, skipping reminder")
		return
	}
	s.notifier.SendParticipantReminders(ride)
	metrics.RemindersSentTotal.WithLabelValues("participant").Inc()
}

func (s *ReminderScheduler) fireHost(messageID string) {
	ride, ok := s.lookup(messageID)
	if !ok {
		return
	}
	s.notifier.SendHostReminder(ride)
	metrics.RemindersSentTotal.WithLabelValues("host").Inc()
}

func (s *ReminderScheduler) lookup(messageID string) (*models.Ride, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ride, err := s.store.FindByMessageID(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Debug().Str("message_id", messageID).Msg("ride gone, skipping reminder")
		return nil, false
	}
	if err != nil {
		s.log.Error().Err(err).Str("message_id", messageID).Msg("reminder lookup failed")
		return nil, false
	}
	return ride, true
}
