package discord

import (
	"sort"

	"github.com/richardquay/urg-ride-maker/internal/config"
)

const optionTypeString = 3

const (
	locationOther       = "Other"
	locationSameAsStart = "Same as start"
)

// Custom IDs for modal routing.
const (
	locationModalPrefix = "location-modal:"
	quickCreateModalID  = "quick-create-form"
)

// SlashCommands builds the command set registered on startup. Location
// choices come from the configured catalog so each server sees its own
// spots.
func SlashCommands(options *config.RideOptions) []ApplicationCommand {
	startChoices := locationChoices(options.Locations)
	startChoices = append(startChoices, CommandChoice{Name: locationOther, Value: locationOther})

	endChoices := []CommandChoice{{Name: locationSameAsStart, Value: locationSameAsStart}}
	endChoices = append(endChoices, locationChoices(options.EndLocations)...)
	endChoices = append(endChoices, CommandChoice{Name: locationOther, Value: locationOther})

	rolloutChoices := make([]CommandChoice, 0, len(options.RolloutOptions))
	for _, r := range options.RolloutOptions {
		rolloutChoices = append(rolloutChoices, CommandChoice{Name: r.Label, Value: r.Label})
	}

	return []ApplicationCommand{
		{
			Name:        "create-ride",
			Description: "Create a new cycling ride",
			Options: []ApplicationCommandOption{
				{Type: optionTypeString, Name: "vibe", Description: "The vibe of the ride", Required: true, Choices: vibeChoices(options)},
				{Type: optionTypeString, Name: "type", Description: "The type of ride", Required: true, Choices: typeChoices(options)},
				{Type: optionTypeString, Name: "drop_style", Description: "The drop style of the ride", Required: true, Choices: dropChoices(options)},
				{Type: optionTypeString, Name: "date", Description: `The date of the ride (e.g., "tomorrow", "next Tuesday", "MM/DD")`, Required: true},
				{Type: optionTypeString, Name: "meet_time", Description: `When to arrive (e.g., "9:00 AM", "21:00")`, Required: true},
				{Type: optionTypeString, Name: "start_location", Description: "Where to meet", Required: true, Choices: startChoices},
				{Type: optionTypeString, Name: "rollout_time", Description: "Minutes after meet time to start", Choices: rolloutChoices},
				{Type: optionTypeString, Name: "end_location", Description: "Where the ride ends (defaults to start location)", Choices: endChoices},
				{Type: optionTypeString, Name: "distance", Description: `Distance in miles or kilometers (e.g., "20 miles" or "32 km")`},
				{Type: optionTypeString, Name: "avg_mph", Description: "Expected average speed in mph"},
				{Type: optionTypeString, Name: "route_source", Description: "URL to route (Strava, RideWithGPS, etc.)"},
				{Type: optionTypeString, Name: "notes", Description: "Additional notes for the ride"},
			},
		},
		{Name: "my-rides", Description: "View your upcoming rides in a weekly calendar"},
		{Name: "all-rides", Description: "View all upcoming rides in a weekly calendar"},
		{Name: "status", Description: "Show bot status"},
		{Name: "Create Ride", Type: CommandUser},
	}
}

func locationChoices(locations []config.LocationOption) []CommandChoice {
	choices := make([]CommandChoice, 0, len(locations))
	for _, loc := range locations {
		name := loc.Name
		if loc.Emoji != "" {
			name = loc.Emoji + " " + loc.Name
		}
		choices = append(choices, CommandChoice{Name: name, Value: loc.Name})
	}
	return choices
}

func vibeChoices(options *config.RideOptions) []CommandChoice {
	choices := make([]CommandChoice, 0, len(options.Vibes))
	for name, v := range options.Vibes {
		label := name
		if v.Emoji != "" {
			label = v.Emoji + " " + name
		}
		choices = append(choices, CommandChoice{Name: label, Value: name})
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Value < choices[j].Value })
	return choices
}

func typeChoices(options *config.RideOptions) []CommandChoice {
	choices := make([]CommandChoice, 0, len(options.RideTypes))
	for name := range options.RideTypes {
		choices = append(choices, CommandChoice{Name: name, Value: name})
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Value < choices[j].Value })
	return choices
}

func dropChoices(options *config.RideOptions) []CommandChoice {
	choices := make([]CommandChoice, 0, len(options.DropStyles))
	for _, style := range options.DropStyles {
		choices = append(choices, CommandChoice{Name: style, Value: style})
	}
	return choices
}

// LocationModal collects a custom location name and optional map link when
// the user picked "Other". The flow ID routes the submit back to the
// pending ride.
func LocationModal(flowID string) InteractionResponse {
	required := true
	optional := false
	return InteractionResponse{
		Type: ResponseModal,
		Data: &ResponseData{
			CustomID: locationModalPrefix + flowID,
			Title:    "Custom Location Details",
			Components: []Component{
				{
					Type: ComponentActionRow,
					Components: []Component{{
						Type:        ComponentTextInput,
						CustomID:    "locationName",
						Label:       "Location name",
						Style:       TextInputShort,
						Required:    &required,
						MaxLength:   100,
						Placeholder: "e.g., Greenway trailhead",
					}},
				},
				{
					Type: ComponentActionRow,
					Components: []Component{{
						Type:        ComponentTextInput,
						CustomID:    "locationUrl",
						Label:       "Map link (optional)",
						Style:       TextInputShort,
						Required:    &optional,
						MaxLength:   200,
						Placeholder: "https://maps.app.goo.gl/...",
					}},
				},
			},
		},
	}
}

// QuickCreateModal is the five-field form behind the "Create Ride" context
// menu entry. Modals cap at five inputs, so it covers the required fields
// only; everything else takes the configured defaults.
func QuickCreateModal() InteractionResponse {
	required := true
	input := func(id, label, placeholder string) Component {
		return Component{
			Type: ComponentActionRow,
			Components: []Component{{
				Type:        ComponentTextInput,
				CustomID:    id,
				Label:       label,
				Style:       TextInputShort,
				Required:    &required,
				Placeholder: placeholder,
			}},
		}
	}
	return InteractionResponse{
		Type: ResponseModal,
		Data: &ResponseData{
			CustomID: quickCreateModalID,
			Title:    "Create a New Ride",
			Components: []Component{
				input("vibe", "Vibe (Spicy or Party)", "Spicy or Party"),
				input("type", "Type (Road, Gravel, Mountain, Social, Virtual)", "Road, Gravel, Mountain, Social, Virtual"),
				input("dropStyle", "Drop Style (Drop, No Drop, Regroup)", "Drop, No Drop, Regroup"),
				input("date", "Date (MM/DD)", "e.g., 05/15"),
				input("meetTime", "Meet Time (e.g., 9:00 AM)", "e.g., 9:00 AM"),
			},
		},
	}
}

// modalValue digs a text input value out of a modal submit payload.
func modalValue(data *InteractionData, customID string) string {
	for _, row := range data.Components {
		for _, c := range row.Components {
			if c.CustomID == customID {
				return c.Value
			}
		}
	}
	return ""
}
