package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/richardquay/urg-ride-maker/internal/config"
	"github.com/richardquay/urg-ride-maker/internal/dates"
	"github.com/richardquay/urg-ride-maker/internal/models"
	"github.com/richardquay/urg-ride-maker/internal/store"
)

// RideInput carries the raw values collected from the create-ride flow
// before any normalization has happened.
type RideInput struct {
	Type          string
	Vibe          string
	DropStyle     string
	Date          string
	MeetTime      string
	RolloutOption string
	StartLocation string
	EndLocation   string
	CustomStart   *models.Location
	CustomEnd     *models.Location
	Distance      string
	AvgMph        string
	RouteSource   string
	Notes         string
	CreatorID     string
	IsAdmin       bool
}

type RideService struct {
	store   store.RideStore
	options *config.RideOptions
	now     func() time.Time
}

func NewRideService(s store.RideStore, options *config.RideOptions) *RideService {
	return &RideService{store: s, options: options, now: time.Now}
}

// Build validates and normalizes the collected input into a ride record
// and resolves the channel the announcement belongs in. The record has no
// message ID yet; Create attaches one once the announcement is posted.
func (s *RideService) Build(input RideInput) (*models.Ride, string, error) {
	typeOpt, ok := s.options.TypeOption(input.Type)
	if !ok {
		return nil, "", fmt.Errorf("unknown ride type %q", input.Type)
	}
	if typeOpt.AdminOnly && !input.IsAdmin {
		return nil, "", fmt.Errorf("Only administrators can create %s rides.", input.Type)
	}
	if typeOpt.ChannelID == "" {
		return nil, "", fmt.Errorf("Error: No channel is configured for %s rides.", input.Type)
	}

	date, err := dates.ParseDateAt(input.Date, s.now())
	if err != nil {
		return nil, "", err
	}
	meetTime, err := dates.ParseTime(input.MeetTime)
	if err != nil {
		return nil, "", err
	}
	rollout, err := dates.CalculateRollout(meetTime, s.rolloutOption(input.RolloutOption))
	if err != nil {
		return nil, "", err
	}

	dropStyle := input.DropStyle
	if input.Vibe == models.VibeParty {
		dropStyle = models.DropStyleNoDrop
	}

	start, err := s.resolveStart(input)
	if err != nil {
		return nil, "", err
	}
	end, err := s.resolveEnd(input)
	if err != nil {
		return nil, "", err
	}

	distance := ""
	if strings.TrimSpace(input.Distance) != "" {
		distance, err = ProcessDistance(input.Distance)
		if err != nil {
			return nil, "", err
		}
	}

	ride := &models.Ride{
		Type:          input.Type,
		Vibe:          input.Vibe,
		DropStyle:     dropStyle,
		Date:          date,
		MeetTime:      meetTime,
		RolloutTime:   rollout,
		StartLocation: start,
		EndLocation:   end,
		Distance:      distance,
		AvgMph:        strings.TrimSpace(input.AvgMph),
		RouteSource:   strings.TrimSpace(input.RouteSource),
		Notes:         strings.TrimSpace(input.Notes),
		CreatorID:     input.CreatorID,
	}
	return ride, typeOpt.ChannelID, nil
}

// Create persists a built ride under the posted announcement message.
func (s *RideService) Create(ctx context.Context, ride *models.Ride, messageID, channelID string) (*models.Ride, error) {
	ride.MessageID = messageID
	ride.ChannelID = channelID
	return s.store.Append(ctx, ride)
}

// RidesForUser returns rides the user hosts or joined, oldest first.
func (s *RideService) RidesForUser(ctx context.Context, userID string) ([]models.Ride, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var mine []models.Ride
	for _, ride := range all {
		if ride.CreatorID == userID || ride.HasParticipant(userID) {
			mine = append(mine, ride)
		}
	}
	return mine, nil
}

// UpcomingRides returns rides whose start is not yet in the past.
func (s *RideService) UpcomingRides(ctx context.Context) ([]models.Ride, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var upcoming []models.Ride
	for _, ride := range all {
		when, err := dates.RideDateTime(ride.Date, ride.MeetTime, now)
		if err != nil {
			continue
		}
		if !when.Before(now) {
			upcoming = append(upcoming, ride)
		}
	}
	return upcoming, nil
}

func (s *RideService) rolloutOption(option string) string {
	if strings.TrimSpace(option) == "" {
		return s.options.DefaultRollout
	}
	return option
}

func (s *RideService) resolveStart(input RideInput) (models.Location, error) {
	if input.CustomStart != nil {
		return *input.CustomStart, nil
	}
	if loc, ok := s.options.FindLocation(input.StartLocation); ok {
		return loc.Location(), nil
	}
	if strings.TrimSpace(input.StartLocation) != "" {
		return models.Location{Name: strings.TrimSpace(input.StartLocation)}, nil
	}
	return models.Location{}, fmt.Errorf("a start location is required")
}

func (s *RideService) resolveEnd(input RideInput) (models.Location, error) {
	if input.CustomEnd != nil {
		return *input.CustomEnd, nil
	}
	if strings.TrimSpace(input.EndLocation) == "" {
		return models.Location{}, nil
	}
	if loc, ok := s.options.FindEndLocation(input.EndLocation); ok {
		return loc.Location(), nil
	}
	return models.Location{Name: strings.TrimSpace(input.EndLocation)}, nil
}
