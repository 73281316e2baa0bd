package discord

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/richardquay/urg-ride-maker/internal/models"
	"github.com/richardquay/urg-ride-maker/internal/ws"
)

// Notifier delivers reminders over DM and mirrors them to the dashboard
// feed.
type Notifier struct {
	client *Client
	hub    *ws.Hub
	log    zerolog.Logger
}

func NewNotifier(client *Client, hub *ws.Hub, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, hub: hub, log: log}
}

func (n *Notifier) SendParticipantReminders(ride *models.Ride) {
	embed := ParticipantReminderEmbed(ride)
	for _, p := range ride.Participants {
		if err := n.dm(p.UserID, embed); err != nil {
			n.log.Warn().Err(err).Str("user_id", p.UserID).Msg("participant reminder failed")
		}
	}
	n.broadcast("reminder_sent", ride, "participant")
	n.log.Info().Str("message_id", ride.MessageID).Int("participants", len(ride.Participants)).Msg("participant reminders sent")
}

func (n *Notifier) SendHostReminder(ride *models.Ride) {
	if err := n.dm(ride.CreatorID, HostReminderEmbed(ride)); err != nil {
		n.log.Warn().Err(err).Str("user_id", ride.CreatorID).Msg("host reminder failed")
		return
	}
	n.broadcast("reminder_sent", ride, "host")
	n.log.Info().Str("message_id", ride.MessageID).Msg("host reminder sent")
}

func (n *Notifier) dm(userID string, embed Embed) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	channelID, err := n.client.CreateDM(ctx, userID)
	if err != nil {
		return err
	}
	_, err = n.client.SendMessage(ctx, channelID, CreateMessageRequest{Embeds: []Embed{embed}})
	return err
}

func (n *Notifier) broadcast(eventType string, ride *models.Ride, tier string) {
	if n.hub == nil {
		return
	}
	n.hub.Broadcast(ws.Event{
		Type: eventType,
		Data: map[string]interface{}{
			"message_id": ride.MessageID,
			"tier":       tier,
		},
	})
}
