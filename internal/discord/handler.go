package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/richardquay/urg-ride-maker/internal/config"
	"github.com/richardquay/urg-ride-maker/internal/dates"
	"github.com/richardquay/urg-ride-maker/internal/metrics"
	"github.com/richardquay/urg-ride-maker/internal/models"
	"github.com/richardquay/urg-ride-maker/internal/services"
	"github.com/richardquay/urg-ride-maker/internal/store"
	"github.com/richardquay/urg-ride-maker/internal/ws"
)

const weatherHorizon = 72 * time.Hour

// Handler routes gateway events to the ride services: slash commands and
// modals drive ride creation, reactions drive the roster.
type Handler struct {
	client  *Client
	options *config.RideOptions
	pending *PendingStore
	rideSvc *services.RideService
	tracker *services.ParticipationTracker
	sched   *services.ReminderScheduler
	weather *services.WeatherService
	rides   store.RideStore
	hub     *ws.Hub
	log     zerolog.Logger
	guildID string
	now     func() time.Time
	started time.Time

	mu        sync.Mutex
	botUserID string
}

func NewHandler(
	client *Client,
	options *config.RideOptions,
	rideSvc *services.RideService,
	tracker *services.ParticipationTracker,
	sched *services.ReminderScheduler,
	weather *services.WeatherService,
	rides store.RideStore,
	hub *ws.Hub,
	guildID string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		client:  client,
		options: options,
		pending: NewPendingStore(),
		rideSvc: rideSvc,
		tracker: tracker,
		sched:   sched,
		weather: weather,
		rides:   rides,
		hub:     hub,
		guildID: guildID,
		log:     log,
		now:     time.Now,
		started: time.Now(),
	}
}

func (h *Handler) HandleReady(ready readyData) {
	h.mu.Lock()
	h.botUserID = ready.User.ID
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if h.guildID == "" {
		h.log.Warn().Msg("no guild configured, skipping command registration")
		return
	}
	if err := h.client.RegisterGuildCommands(ctx, ready.Application.ID, h.guildID, SlashCommands(h.options)); err != nil {
		h.log.Error().Err(err).Msg("command registration failed")
		return
	}
	h.log.Info().Str("guild_id", h.guildID).Msg("commands registered")
}

func (h *Handler) HandleInteraction(interaction Interaction) {
	switch interaction.Type {
	case InteractionPing:
		h.respond(interaction, InteractionResponse{Type: ResponsePong})
	case InteractionCommand:
		if interaction.Data == nil {
			return
		}
		metrics.InteractionsTotal.WithLabelValues("command").Inc()
		switch interaction.Data.Name {
		case "create-ride":
			h.onCreateRide(interaction)
		case "Create Ride":
			h.respond(interaction, QuickCreateModal())
		case "my-rides":
			h.onMyRides(interaction)
		case "all-rides":
			h.onAllRides(interaction)
		case "status":
			h.onStatus(interaction)
		}
	case InteractionModalSubmit:
		if interaction.Data == nil {
			return
		}
		metrics.InteractionsTotal.WithLabelValues("modal").Inc()
		switch {
		case strings.HasPrefix(interaction.Data.CustomID, locationModalPrefix):
			h.onLocationModal(interaction)
		case interaction.Data.CustomID == quickCreateModalID:
			h.onQuickCreateModal(interaction)
		}
	}
}

func (h *Handler) onCreateRide(interaction Interaction) {
	user := interactionUser(interaction)
	if user == nil {
		return
	}

	input := services.RideInput{
		Type:          stringOption(interaction.Data, "type"),
		Vibe:          stringOption(interaction.Data, "vibe"),
		DropStyle:     stringOption(interaction.Data, "drop_style"),
		Date:          stringOption(interaction.Data, "date"),
		MeetTime:      stringOption(interaction.Data, "meet_time"),
		RolloutOption: stringOption(interaction.Data, "rollout_time"),
		StartLocation: stringOption(interaction.Data, "start_location"),
		EndLocation:   stringOption(interaction.Data, "end_location"),
		Distance:      stringOption(interaction.Data, "distance"),
		AvgMph:        stringOption(interaction.Data, "avg_mph"),
		RouteSource:   stringOption(interaction.Data, "route_source"),
		Notes:         stringOption(interaction.Data, "notes"),
		CreatorID:     user.ID,
		IsAdmin:       isAdmin(interaction.Member),
	}
	if input.EndLocation == locationSameAsStart {
		input.EndLocation = ""
	}

	needStart := input.StartLocation == locationOther
	needEnd := input.EndLocation == locationOther
	if needStart || needEnd {
		flowID := h.pending.Put(&PendingRide{
			Input:     input,
			NeedStart: needStart,
			NeedEnd:   needEnd,
			GuildID:   interaction.GuildID,
		})
		h.respond(interaction, LocationModal(flowID))
		return
	}

	h.finishCreate(interaction, input)
}

func (h *Handler) onLocationModal(interaction Interaction) {
	flowID := strings.TrimPrefix(interaction.Data.CustomID, locationModalPrefix)
	p, ok := h.pending.Take(flowID)
	if !ok {
		h.replyEphemeral(interaction, "That ride setup expired. Please run /create-ride again.")
		return
	}

	name := strings.TrimSpace(modalValue(interaction.Data, "locationName"))
	url := strings.TrimSpace(modalValue(interaction.Data, "locationUrl"))
	if name == "" {
		h.replyEphemeral(interaction, "A location name is required.")
		return
	}
	loc := &models.Location{Name: name, URL: url}
	if p.NeedStart {
		p.Input.CustomStart = loc
	}
	if p.NeedEnd {
		p.Input.CustomEnd = loc
	}

	h.finishCreate(interaction, p.Input)
}

// onQuickCreateModal finishes the context-menu create flow. The form
// collects only the required fields as free text, so type, vibe and drop
// style are matched against the catalog case-insensitively and the start
// location falls back to the first configured spot.
func (h *Handler) onQuickCreateModal(interaction Interaction) {
	user := interactionUser(interaction)
	if user == nil {
		return
	}

	input := services.RideInput{
		Vibe:      h.canonicalVibe(modalValue(interaction.Data, "vibe")),
		Type:      h.canonicalType(modalValue(interaction.Data, "type")),
		DropStyle: h.canonicalDropStyle(modalValue(interaction.Data, "dropStyle")),
		Date:      strings.TrimSpace(modalValue(interaction.Data, "date")),
		MeetTime:  strings.TrimSpace(modalValue(interaction.Data, "meetTime")),
		CreatorID: user.ID,
		IsAdmin:   isAdmin(interaction.Member),
	}
	if len(h.options.Locations) > 0 {
		input.StartLocation = h.options.Locations[0].Name
	}

	h.finishCreate(interaction, input)
}

func (h *Handler) canonicalType(v string) string {
	v = strings.TrimSpace(v)
	for name := range h.options.RideTypes {
		if strings.EqualFold(name, v) {
			return name
		}
	}
	return v
}

func (h *Handler) canonicalVibe(v string) string {
	v = strings.TrimSpace(v)
	for name := range h.options.Vibes {
		if strings.EqualFold(name, v) {
			return name
		}
	}
	return v
}

func (h *Handler) canonicalDropStyle(v string) string {
	v = strings.TrimSpace(v)
	for _, style := range h.options.DropStyles {
		if strings.EqualFold(style, v) {
			return style
		}
	}
	return v
}

func (h *Handler) finishCreate(interaction Interaction, input services.RideInput) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ride, channelID, err := h.rideSvc.Build(input)
	if err != nil {
		h.replyEphemeral(interaction, err.Error())
		return
	}

	forecast := h.forecastFor(ctx, ride)
	embed := RideEmbed(ride, h.options, forecast, h.now())

	messageID, err := h.client.SendMessage(ctx, channelID, CreateMessageRequest{Embeds: []Embed{embed}})
	if err != nil {
		h.log.Error().Err(err).Str("channel_id", channelID).Msg("announcement post failed")
		h.replyEphemeral(interaction, "Could not post the ride announcement. Please try again.")
		return
	}

	typeEmoji := "🚴"
	if t, ok := h.options.TypeOption(ride.Type); ok && t.Emoji != "" {
		typeEmoji = t.Emoji
	}
	if err := h.client.AddReaction(ctx, channelID, messageID, typeEmoji); err != nil {
		h.log.Warn().Err(err).Msg("seed reaction failed")
	}

	saved, err := h.rideSvc.Create(ctx, ride, messageID, channelID)
	if err != nil {
		h.log.Error().Err(err).Str("message_id", messageID).Msg("ride save failed")
		h.replyEphemeral(interaction, "The ride was posted but could not be saved. Please contact an administrator.")
		return
	}
	if err := h.sched.Schedule(saved); err != nil {
		h.log.Warn().Err(err).Str("message_id", messageID).Msg("reminder scheduling failed")
	}

	metrics.RidesCreatedTotal.WithLabelValues(saved.Type).Inc()
	if h.hub != nil {
		h.hub.Broadcast(ws.Event{Type: "ride_created", Data: saved})
	}

	h.replyEphemeral(interaction, fmt.Sprintf("Your ride is posted in <#%s>!", channelID))
}

func (h *Handler) onMyRides(interaction Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user := interactionUser(interaction)
	if user == nil {
		return
	}

	rides, err := h.rideSvc.RidesForUser(ctx, user.ID)
	if err != nil {
		h.replyEphemeral(interaction, "Could not load your rides right now.")
		return
	}

	embed := WeeklyCalendarEmbed("My Rides: This Week", rides, user.ID, interaction.GuildID, h.now())
	h.respond(interaction, InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Embeds: []Embed{embed}, Flags: EphemeralFlag},
	})
}

func (h *Handler) onAllRides(interaction Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rides, err := h.rideSvc.UpcomingRides(ctx)
	if err != nil {
		h.replyEphemeral(interaction, "Could not load rides right now.")
		return
	}

	embed := WeeklyCalendarEmbed("All Rides: This Week", rides, "", interaction.GuildID, h.now())
	h.respond(interaction, InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Embeds: []Embed{embed}, Flags: EphemeralFlag},
	})
}

func (h *Handler) onStatus(interaction Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	all, err := h.rides.ListAll(ctx)
	if err != nil {
		h.replyEphemeral(interaction, "Could not load status right now.")
		return
	}
	upcoming, _ := h.rideSvc.UpcomingRides(ctx)

	embed := Embed{
		Title: "🚴 Ride Maker Status",
		Color: 0x3498db,
		Fields: []EmbedField{
			{Name: "Uptime", Value: h.now().Sub(h.started).Round(time.Second).String(), Inline: true},
			{Name: "Rides stored", Value: strconv.Itoa(len(all)), Inline: true},
			{Name: "Upcoming rides", Value: strconv.Itoa(len(upcoming)), Inline: true},
		},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	h.respond(interaction, InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Embeds: []Embed{embed}, Flags: EphemeralFlag},
	})
}

func (h *Handler) HandleReactionAdd(event ReactionEvent) {
	h.applyReaction(event, services.ParticipationJoin)
}

func (h *Handler) HandleReactionRemove(event ReactionEvent) {
	h.applyReaction(event, services.ParticipationLeave)
}

func (h *Handler) applyReaction(event ReactionEvent, action services.ParticipationAction) {
	h.mu.Lock()
	botID := h.botUserID
	h.mu.Unlock()
	if event.UserID == botID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := h.rides.FindByMessageID(ctx, event.MessageID)
	if err != nil {
		return
	}
	if t, ok := h.options.TypeOption(existing.Type); ok && t.Emoji != "" && t.Emoji != event.Emoji.Name {
		return
	}

	username := event.UserID
	if event.Member != nil && event.Member.User != nil {
		username = event.Member.User.Username
	}

	ride, changed, err := h.tracker.Apply(ctx, event.MessageID, event.UserID, username, action)
	if err != nil {
		h.log.Error().Err(err).Str("message_id", event.MessageID).Msg("roster update failed")
		return
	}
	if !changed || ride == nil {
		return
	}

	metrics.ReactionsTotal.WithLabelValues(string(action)).Inc()
	h.refreshAnnouncement(ctx, ride)
	if h.hub != nil {
		h.hub.Broadcast(ws.Event{
			Type: "participants_updated",
			Data: map[string]interface{}{
				"message_id": ride.MessageID,
				"count":      len(ride.Participants),
			},
		})
	}
}

func (h *Handler) refreshAnnouncement(ctx context.Context, ride *models.Ride) {
	forecast := h.forecastFor(ctx, ride)
	embed := RideEmbed(ride, h.options, forecast, h.now())
	if err := h.client.EditMessage(ctx, ride.ChannelID, ride.MessageID, EditMessageRequest{Embeds: []Embed{embed}}); err != nil {
		h.log.Warn().Err(err).Str("message_id", ride.MessageID).Msg("announcement refresh failed")
	}
}

// forecastFor returns weather only when the ride starts within the
// forecast horizon and its start location has coordinates.
func (h *Handler) forecastFor(ctx context.Context, ride *models.Ride) *services.Forecast {
	if h.weather == nil || !ride.StartLocation.HasCoordinates() {
		return nil
	}
	when, err := dates.RideDateTime(ride.Date, ride.MeetTime, h.now())
	if err != nil {
		return nil
	}
	until := when.Sub(h.now())
	if until <= 0 || until > weatherHorizon {
		return nil
	}
	return h.weather.Forecast(ctx, *ride.StartLocation.Lat, *ride.StartLocation.Lon, ride.Date)
}

func (h *Handler) respond(interaction Interaction, resp InteractionResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.client.RespondToInteraction(ctx, interaction.ID, interaction.Token, resp); err != nil {
		h.log.Warn().Err(err).Msg("interaction response failed")
	}
}

func (h *Handler) replyEphemeral(interaction Interaction, content string) {
	h.respond(interaction, InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &ResponseData{Content: content, Flags: EphemeralFlag},
	})
}

func interactionUser(interaction Interaction) *User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func isAdmin(member *Member) bool {
	if member == nil {
		return false
	}
	perms, err := strconv.ParseUint(member.Permissions, 10, 64)
	if err != nil {
		return false
	}
	return perms&adminPermissionBit != 0
}

func stringOption(data *InteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name != name {
			continue
		}
		var v string
		if err := json.Unmarshal(opt.Value, &v); err == nil {
			return v
		}
	}
	return ""
}
