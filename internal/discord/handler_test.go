package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/richardquay/urg-ride-maker/internal/config"
	"github.com/richardquay/urg-ride-maker/internal/models"
	"github.com/richardquay/urg-ride-maker/internal/services"
	"github.com/richardquay/urg-ride-maker/internal/store"
)

// fakeAPI records what the handler sends to Discord.
type fakeAPI struct {
	mu          sync.Mutex
	messages    []recordedMessage
	edits       []recordedMessage
	reactions   []string
	responses   []InteractionResponse
	nextMessage int
}

type recordedMessage struct {
	ChannelID string
	MessageID string
	Body      CreateMessageRequest
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "channels" && parts[2] == "messages":
			var body CreateMessageRequest
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, &body)
			f.nextMessage++
			id := fmt.Sprintf("msg-%d", f.nextMessage)
			f.messages = append(f.messages, recordedMessage{ChannelID: parts[1], MessageID: id, Body: body})
			json.NewEncoder(w).Encode(Message{ID: id, ChannelID: parts[1]})
		case r.Method == http.MethodPatch && len(parts) == 4 && parts[0] == "channels":
			var body CreateMessageRequest
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, &body)
			f.edits = append(f.edits, recordedMessage{ChannelID: parts[1], MessageID: parts[3], Body: body})
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && len(parts) == 7 && parts[4] == "reactions":
			f.reactions = append(f.reactions, parts[5])
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && parts[0] == "interactions":
			var resp InteractionResponse
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, &resp)
			f.responses = append(f.responses, resp)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && parts[0] == "users":
			json.NewEncoder(w).Encode(Channel{ID: "dm-1"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func (f *fakeAPI) lastResponse(t *testing.T) InteractionResponse {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		t.Fatal("no interaction response recorded")
	}
	return f.responses[len(f.responses)-1]
}

func testHandler(t *testing.T) (*Handler, *fakeAPI, *store.MemoryStore) {
	t.Helper()

	api := &fakeAPI{}
	srv := api.server(t)
	t.Cleanup(srv.Close)

	client := NewClient("test-token")
	client.baseURL = srv.URL

	opts := config.DefaultRideOptions()
	for name, rt := range opts.RideTypes {
		rt.ChannelID = "chan-" + name
		opts.RideTypes[name] = rt
	}

	st := store.NewMemoryStore()
	rideSvc := services.NewRideService(st, opts)
	tracker := services.NewParticipationTracker(st)
	notifier := NewNotifier(client, nil, zerolog.Nop())
	sched := services.NewReminderScheduler(st, notifier, zerolog.Nop())
	t.Cleanup(sched.Stop)

	h := NewHandler(client, opts, rideSvc, tracker, sched, nil, st, nil, "guild-1", zerolog.Nop())
	return h, api, st
}

func commandInteraction(name string, options map[string]string) Interaction {
	data := &InteractionData{Name: name}
	for k, v := range options {
		raw, _ := json.Marshal(v)
		data.Options = append(data.Options, CommandOption{Name: k, Value: raw})
	}
	return Interaction{
		ID:      "int-1",
		Type:    InteractionCommand,
		Token:   "tok",
		GuildID: "guild-1",
		Member: &Member{
			User:        &User{ID: "host-1", Username: "hostname"},
			Permissions: "0",
		},
		Data: data,
	}
}

func createRideOptions() map[string]string {
	return map[string]string{
		"vibe":           models.VibeSpicy,
		"type":           models.RideTypeRoad,
		"drop_style":     models.DropStyleDrop,
		"date":           "tomorrow",
		"meet_time":      "6pm",
		"start_location": "Angry Catfish",
	}
}

func TestCreateRideCommand(t *testing.T) {
	h, api, st := testHandler(t)

	h.HandleInteraction(commandInteraction("create-ride", createRideOptions()))

	api.mu.Lock()
	if len(api.messages) != 1 {
		api.mu.Unlock()
		t.Fatalf("expected one announcement, got %d", len(api.messages))
	}
	posted := api.messages[0]
	reactions := len(api.reactions)
	api.mu.Unlock()

	if posted.ChannelID != "chan-Road" {
		t.Errorf("expected announcement in chan-Road, got %s", posted.ChannelID)
	}
	if len(posted.Body.Embeds) != 1 || !strings.Contains(posted.Body.Embeds[0].Title, "SPICY ROAD RIDE") {
		t.Errorf("unexpected embed %+v", posted.Body.Embeds)
	}
	if reactions != 1 {
		t.Errorf("expected seed reaction, got %d", reactions)
	}

	ride, err := st.FindByMessageID(context.Background(), posted.MessageID)
	if err != nil {
		t.Fatalf("ride not stored: %v", err)
	}
	if ride.CreatorID != "host-1" || ride.MeetTime != "6:00 PM" {
		t.Errorf("unexpected stored ride %+v", ride)
	}

	resp := api.lastResponse(t)
	if resp.Data == nil || !strings.Contains(resp.Data.Content, "chan-Road") {
		t.Errorf("expected success reply naming the channel, got %+v", resp)
	}
	if resp.Data.Flags&EphemeralFlag == 0 {
		t.Error("expected an ephemeral reply")
	}
}

func TestCreateRideBadDate(t *testing.T) {
	h, api, st := testHandler(t)

	opts := createRideOptions()
	opts["date"] = "not a date"
	h.HandleInteraction(commandInteraction("create-ride", opts))

	api.mu.Lock()
	posted := len(api.messages)
	api.mu.Unlock()
	if posted != 0 {
		t.Errorf("expected no announcement for bad input, got %d", posted)
	}

	resp := api.lastResponse(t)
	if resp.Data == nil || !strings.Contains(resp.Data.Content, "Could not understand") {
		t.Errorf("expected parse error surfaced to user, got %+v", resp)
	}

	all, _ := st.ListAll(context.Background())
	if len(all) != 0 {
		t.Errorf("expected nothing stored, got %d", len(all))
	}
}

func TestCreateRideAdminOnlyType(t *testing.T) {
	h, api, _ := testHandler(t)

	opts := createRideOptions()
	opts["type"] = models.RideTypeRace
	h.HandleInteraction(commandInteraction("create-ride", opts))

	resp := api.lastResponse(t)
	if resp.Data == nil || !strings.Contains(resp.Data.Content, "administrators") {
		t.Errorf("expected admin gate message, got %+v", resp)
	}

	interaction := commandInteraction("create-ride", opts)
	interaction.Member.Permissions = "8"
	h.HandleInteraction(interaction)

	api.mu.Lock()
	posted := len(api.messages)
	api.mu.Unlock()
	if posted != 1 {
		t.Errorf("expected admin to post a race, got %d announcements", posted)
	}
}

func TestCreateRideCustomLocationModal(t *testing.T) {
	h, api, st := testHandler(t)

	opts := createRideOptions()
	opts["start_location"] = locationOther
	h.HandleInteraction(commandInteraction("create-ride", opts))

	resp := api.lastResponse(t)
	if resp.Type != ResponseModal {
		t.Fatalf("expected a modal response, got type %d", resp.Type)
	}
	flowID := strings.TrimPrefix(resp.Data.CustomID, locationModalPrefix)
	if flowID == "" {
		t.Fatal("expected a flow ID in the modal custom ID")
	}

	modal := Interaction{
		ID:      "int-2",
		Type:    InteractionModalSubmit,
		Token:   "tok2",
		GuildID: "guild-1",
		Member:  &Member{User: &User{ID: "host-1", Username: "hostname"}},
		Data: &InteractionData{
			CustomID: locationModalPrefix + flowID,
			Components: []Component{
				{Type: ComponentActionRow, Components: []Component{{Type: ComponentTextInput, CustomID: "locationName", Value: "Greenway trailhead"}}},
				{Type: ComponentActionRow, Components: []Component{{Type: ComponentTextInput, CustomID: "locationUrl", Value: ""}}},
			},
		},
	}
	h.HandleInteraction(modal)

	api.mu.Lock()
	if len(api.messages) != 1 {
		api.mu.Unlock()
		t.Fatalf("expected announcement after modal, got %d", len(api.messages))
	}
	messageID := api.messages[0].MessageID
	api.mu.Unlock()

	ride, err := st.FindByMessageID(context.Background(), messageID)
	if err != nil {
		t.Fatal(err)
	}
	if ride.StartLocation.Name != "Greenway trailhead" {
		t.Errorf("expected custom start location, got %+v", ride.StartLocation)
	}
}

func TestCreateRideContextMenu(t *testing.T) {
	h, api, st := testHandler(t)

	h.HandleInteraction(commandInteraction("Create Ride", nil))

	resp := api.lastResponse(t)
	if resp.Type != ResponseModal || resp.Data.CustomID != quickCreateModalID {
		t.Fatalf("expected the quick create modal, got %+v", resp)
	}
	if len(resp.Data.Components) != 5 {
		t.Fatalf("expected five form fields, got %d", len(resp.Data.Components))
	}

	field := func(id, value string) Component {
		return Component{Type: ComponentActionRow, Components: []Component{
			{Type: ComponentTextInput, CustomID: id, Value: value},
		}}
	}
	h.HandleInteraction(Interaction{
		ID:      "int-2",
		Type:    InteractionModalSubmit,
		Token:   "tok2",
		GuildID: "guild-1",
		Member:  &Member{User: &User{ID: "host-1", Username: "hostname"}},
		Data: &InteractionData{
			CustomID: quickCreateModalID,
			Components: []Component{
				field("vibe", "party"),
				field("type", "road"),
				field("dropStyle", "no drop"),
				field("date", "tomorrow"),
				field("meetTime", "9:00 AM"),
			},
		},
	})

	api.mu.Lock()
	if len(api.messages) != 1 {
		api.mu.Unlock()
		t.Fatalf("expected announcement after form submit, got %d", len(api.messages))
	}
	posted := api.messages[0]
	api.mu.Unlock()

	if posted.ChannelID != "chan-Road" {
		t.Errorf("expected free-text type matched to Road, got channel %s", posted.ChannelID)
	}

	ride, err := st.FindByMessageID(context.Background(), posted.MessageID)
	if err != nil {
		t.Fatal(err)
	}
	if ride.Vibe != models.VibeParty || ride.Type != models.RideTypeRoad {
		t.Errorf("expected canonical vibe and type, got %+v", ride)
	}
	if ride.StartLocation.Name != "Angry Catfish" {
		t.Errorf("expected the first catalog spot as default start, got %+v", ride.StartLocation)
	}
}

func TestReactionJoinUpdatesAnnouncement(t *testing.T) {
	h, api, st := testHandler(t)

	h.HandleInteraction(commandInteraction("create-ride", createRideOptions()))
	api.mu.Lock()
	messageID := api.messages[0].MessageID
	channelID := api.messages[0].ChannelID
	api.mu.Unlock()

	h.HandleReactionAdd(ReactionEvent{
		UserID:    "u1",
		ChannelID: channelID,
		MessageID: messageID,
		Emoji:     Emoji{Name: "🚴"},
		Member:    &Member{User: &User{ID: "u1", Username: "alice"}},
	})

	ride, err := st.FindByMessageID(context.Background(), messageID)
	if err != nil {
		t.Fatal(err)
	}
	if !ride.HasParticipant("u1") {
		t.Fatal("expected u1 on the roster")
	}

	api.mu.Lock()
	edits := len(api.edits)
	var roster string
	if edits > 0 {
		for _, f := range api.edits[len(api.edits)-1].Body.Embeds[0].Fields {
			if f.Name == participantsFieldName {
				roster = f.Value
			}
		}
	}
	api.mu.Unlock()
	if edits == 0 {
		t.Fatal("expected the announcement to be edited")
	}
	if !strings.Contains(roster, "<@u1>") {
		t.Errorf("expected roster in edited embed, got %q", roster)
	}
}

func TestReactionWrongEmojiIgnored(t *testing.T) {
	h, api, st := testHandler(t)

	h.HandleInteraction(commandInteraction("create-ride", createRideOptions()))
	api.mu.Lock()
	messageID := api.messages[0].MessageID
	api.mu.Unlock()

	h.HandleReactionAdd(ReactionEvent{
		UserID:    "u1",
		MessageID: messageID,
		Emoji:     Emoji{Name: "👍"},
		Member:    &Member{User: &User{ID: "u1", Username: "alice"}},
	})

	ride, err := st.FindByMessageID(context.Background(), messageID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ride.Participants) != 0 {
		t.Errorf("expected wrong emoji to be ignored, got %d participants", len(ride.Participants))
	}
}

func TestReactionRemoveLeavesRide(t *testing.T) {
	h, api, st := testHandler(t)

	h.HandleInteraction(commandInteraction("create-ride", createRideOptions()))
	api.mu.Lock()
	messageID := api.messages[0].MessageID
	api.mu.Unlock()

	event := ReactionEvent{
		UserID:    "u1",
		MessageID: messageID,
		Emoji:     Emoji{Name: "🚴"},
		Member:    &Member{User: &User{ID: "u1", Username: "alice"}},
	}
	h.HandleReactionAdd(event)
	h.HandleReactionRemove(event)

	ride, err := st.FindByMessageID(context.Background(), messageID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ride.Participants) != 0 {
		t.Errorf("expected empty roster after unreact, got %d", len(ride.Participants))
	}
}

func TestBotOwnReactionIgnored(t *testing.T) {
	h, api, st := testHandler(t)
	h.botUserID = "bot-1"

	h.HandleInteraction(commandInteraction("create-ride", createRideOptions()))
	api.mu.Lock()
	messageID := api.messages[0].MessageID
	api.mu.Unlock()

	h.HandleReactionAdd(ReactionEvent{
		UserID:    "bot-1",
		MessageID: messageID,
		Emoji:     Emoji{Name: "🚴"},
	})

	ride, err := st.FindByMessageID(context.Background(), messageID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ride.Participants) != 0 {
		t.Errorf("expected the bot's seed reaction to be ignored, got %d", len(ride.Participants))
	}
}

func TestMyRidesCommand(t *testing.T) {
	h, api, _ := testHandler(t)

	h.HandleInteraction(commandInteraction("create-ride", createRideOptions()))
	h.HandleInteraction(commandInteraction("my-rides", nil))

	resp := api.lastResponse(t)
	if resp.Data == nil || len(resp.Data.Embeds) != 1 {
		t.Fatalf("expected a calendar embed, got %+v", resp)
	}
	if resp.Data.Embeds[0].Title != "My Rides: This Week" {
		t.Errorf("unexpected title %q", resp.Data.Embeds[0].Title)
	}
	if resp.Data.Flags&EphemeralFlag == 0 {
		t.Error("expected ephemeral calendar")
	}
}

func TestStatusCommand(t *testing.T) {
	h, api, _ := testHandler(t)

	h.HandleInteraction(commandInteraction("create-ride", createRideOptions()))
	h.HandleInteraction(commandInteraction("status", nil))

	resp := api.lastResponse(t)
	if resp.Data == nil || len(resp.Data.Embeds) != 1 {
		t.Fatalf("expected a status embed, got %+v", resp)
	}
	var stored string
	for _, f := range resp.Data.Embeds[0].Fields {
		if f.Name == "Rides stored" {
			stored = f.Value
		}
	}
	if stored != "1" {
		t.Errorf("expected 1 stored ride, got %q", stored)
	}
}

func TestPingInteraction(t *testing.T) {
	h, api, _ := testHandler(t)

	h.HandleInteraction(Interaction{ID: "p", Type: InteractionPing, Token: "tok"})

	resp := api.lastResponse(t)
	if resp.Type != ResponsePong {
		t.Errorf("expected pong, got type %d", resp.Type)
	}
}
