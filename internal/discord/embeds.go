package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/richardquay/urg-ride-maker/internal/config"
	"github.com/richardquay/urg-ride-maker/internal/dates"
	"github.com/richardquay/urg-ride-maker/internal/models"
	"github.com/richardquay/urg-ride-maker/internal/services"
)

const participantsFieldName = "Participants"

const defaultEmbedColor = 0x95a5a6

var dayColors = [7]int{
	0xFFA500, // Sunday
	0x3498DB, // Monday
	0x2ECC71, // Tuesday
	0x9B59B6, // Wednesday
	0xF1C40F, // Thursday
	0xA0522D, // Friday
	0xE74C3C, // Saturday
}

var dayEmojis = [7]string{"🟠", "🔵", "🟢", "🟣", "🟡", "🟤", "🔴"}

var weatherEmojis = map[string]string{
	"01d": "☀️", "01n": "🌙",
	"02d": "⛅", "02n": "☁️",
	"03d": "☁️", "03n": "☁️",
	"04d": "☁️", "04n": "☁️",
	"09d": "🌧️", "09n": "🌧️",
	"10d": "🌦️", "10n": "🌧️",
	"11d": "⛈️", "11n": "⛈️",
	"13d": "🌨️", "13n": "🌨️",
	"50d": "🌫️", "50n": "🌫️",
}

func rideColor(ride *models.Ride, now time.Time) int {
	when, err := dates.RideDateTime(ride.Date, ride.MeetTime, now)
	if err != nil {
		return defaultEmbedColor
	}
	return dayColors[when.Weekday()]
}

// RideEmbed renders the announcement embed for a ride, colored by day of
// week, with the current roster and an optional weather field.
func RideEmbed(ride *models.Ride, options *config.RideOptions, forecast *services.Forecast, now time.Time) Embed {
	vibeEmoji := ""
	if v, ok := options.Vibes[ride.Vibe]; ok {
		vibeEmoji = v.Emoji
	}
	typeEmoji := "🚴"
	if t, ok := options.TypeOption(ride.Type); ok && t.Emoji != "" {
		typeEmoji = t.Emoji
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n\n**Date:** %s\n", ride.Date)
	fmt.Fprintf(&b, "**Meet time:** %s - Roll out: %s\n", ride.MeetTime, ride.RolloutTime)
	fmt.Fprintf(&b, "\n**Type:** %s", ride.Type)
	fmt.Fprintf(&b, "\n**Vibe:** %s", ride.Vibe)
	fmt.Fprintf(&b, "\n**Drop:** %s", ride.DropStyle)
	if ride.AvgMph != "" {
		fmt.Fprintf(&b, "\n**Avg MPH:** %s mph", ride.AvgMph)
	}
	b.WriteString("\n")
	b.WriteString("\n**Start location:** " + locationLine(ride.StartLocation))
	if ride.EndLocation.Name != "" && ride.EndLocation.Name != "Same as start" {
		b.WriteString("\n**End location:** " + locationLine(ride.EndLocation))
	}
	b.WriteString("\n")
	if ride.Notes != "" {
		fmt.Fprintf(&b, "\n**Notes:** %s\n\n", ride.Notes)
	}
	fmt.Fprintf(&b, "**Ride leader:** <@%s>", ride.CreatorID)

	embed := Embed{
		Title:       fmt.Sprintf("%s %s %s RIDE", vibeEmoji, strings.ToUpper(ride.Vibe), strings.ToUpper(ride.Type)),
		Description: b.String(),
		Color:       rideColor(ride, now),
		Footer:      &EmbedFooter{Text: fmt.Sprintf("%s React if you're interested in joining!", typeEmoji)},
		Timestamp:   now.UTC().Format(time.RFC3339),
	}

	if ride.Distance != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Distance", Value: ride.Distance, Inline: true})
	}
	if ride.RouteSource != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Route", Value: ride.RouteSource, Inline: true})
	}
	if forecast != nil {
		if field := WeatherField(forecast); field != nil {
			embed.Fields = append(embed.Fields, *field)
		}
	}
	if field := participantsField(ride); field != nil {
		embed.Fields = append(embed.Fields, *field)
	}
	return embed
}

func locationLine(loc models.Location) string {
	if loc.Name == "" {
		return "N/A"
	}
	if loc.URL != "" {
		return fmt.Sprintf("[%s](%s)", loc.Name, loc.URL)
	}
	return loc.Name
}

func participantsField(ride *models.Ride) *EmbedField {
	if len(ride.Participants) == 0 {
		return nil
	}
	mentions := make([]string, 0, len(ride.Participants))
	for _, p := range ride.Participants {
		mentions = append(mentions, fmt.Sprintf("<@%s>", p.UserID))
	}
	return &EmbedField{
		Name:  participantsFieldName,
		Value: fmt.Sprintf("%s (%d)", strings.Join(mentions, ", "), len(ride.Participants)),
	}
}

// WeatherField formats a forecast the way the announcement shows it.
func WeatherField(f *services.Forecast) *EmbedField {
	if f == nil {
		return nil
	}
	emoji, ok := weatherEmojis[f.Icon]
	if !ok {
		emoji = "❓"
	}
	return &EmbedField{
		Name: "Weather Forecast",
		Value: fmt.Sprintf("%s %d°F, %s\n💨 Wind: %d mph\n💧 Rain chance: %d%%",
			emoji, f.Temperature, f.Description, f.WindSpeedMph, f.Precipitation),
		Inline: true,
	}
}

// HostReminderEmbed is DMed to the ride leader shortly before rollout.
func HostReminderEmbed(ride *models.Ride) Embed {
	roster := "No participants yet"
	if len(ride.Participants) > 0 {
		lines := make([]string, 0, len(ride.Participants))
		for i, p := range ride.Participants {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, p.Username))
		}
		roster = strings.Join(lines, "\n")
	}

	return Embed{
		Title:       "🔔 Ride Host Notification: Your ride starts soon!",
		Description: fmt.Sprintf("Your %s ride is scheduled to start in 30 minutes!", ride.Type),
		Color:       0x3498db,
		Fields: []EmbedField{
			{
				Name: "Ride Details",
				Value: fmt.Sprintf("**Type:** %s\n**Date:** %s\n**Meet Time:** %s\n**Start Location:** %s",
					ride.Type, ride.Date, ride.MeetTime, ride.StartLocation.Name),
			},
			{
				Name:  fmt.Sprintf("Participants (%d)", len(ride.Participants)),
				Value: roster,
			},
		},
		Footer:    &EmbedFooter{Text: "Have a great ride!"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ParticipantReminderEmbed is DMed to everyone on the roster a day ahead.
func ParticipantReminderEmbed(ride *models.Ride) Embed {
	embed := Embed{
		Title:       fmt.Sprintf("🔔 Ride Reminder: %s %s Ride Tomorrow", ride.Vibe, ride.Type),
		Description: "You've signed up for a ride tomorrow! Here are the details:",
		Color:       0x2ecc71,
		Fields: []EmbedField{
			{
				Name: "Ride Details",
				Value: fmt.Sprintf("**Type:** %s\n**Date:** %s\n**Meet Time:** %s\n**Start Location:** %s\n**Drop Style:** %s",
					ride.Type, ride.Date, ride.MeetTime, ride.StartLocation.Name, ride.DropStyle),
			},
		},
		Footer:    &EmbedFooter{Text: "We look forward to seeing you there!"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if ride.EndLocation.Name != "" && ride.EndLocation.Name != "Same as start" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "End Location", Value: ride.EndLocation.Name, Inline: true})
	}
	if ride.Distance != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Distance", Value: ride.Distance, Inline: true})
	}
	return embed
}

// WeeklyCalendarEmbed lays rides out Sunday through Saturday for the
// current week, with anything further out in an overflow section. userID
// marks host and joined rides; empty userID renders the plain all-rides
// view.
func WeeklyCalendarEmbed(title string, rides []models.Ride, userID, guildID string, now time.Time) Embed {
	weekStart := startOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 6)

	byDay := make([][]models.Ride, 7)
	var future []models.Ride
	for _, ride := range rides {
		when, err := dates.RideDateTime(ride.Date, ride.MeetTime, now)
		if err != nil {
			continue
		}
		day := truncateDay(when)
		switch {
		case !day.Before(weekStart) && !day.After(weekEnd):
			byDay[int(when.Weekday())] = append(byDay[int(when.Weekday())], ride)
		case day.After(weekEnd):
			future = append(future, ride)
		}
	}

	embed := Embed{
		Title:     title,
		Color:     0x3498db,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	for i := 0; i < 7; i++ {
		dayDate := weekStart.AddDate(0, 0, i)
		value := "_No rides_"
		if len(byDay[i]) > 0 {
			const maxRides = 5
			lines := make([]string, 0, len(byDay[i]))
			for _, ride := range byDay[i][:min(len(byDay[i]), maxRides)] {
				lines = append(lines, calendarLine(ride, userID, guildID))
			}
			if extra := len(byDay[i]) - maxRides; extra > 0 {
				lines = append(lines, fmt.Sprintf("_+%d more rides..._", extra))
			}
			value = strings.Join(lines, "\n")
		}
		embed.Fields = append(embed.Fields, EmbedField{
			Name:  fmt.Sprintf("%s %s, %s", dayEmojis[i], dayDate.Weekday(), dayDate.Format("January 2")),
			Value: value,
		})
	}

	if len(future) > 0 {
		lines := make([]string, 0, len(future))
		for _, ride := range future {
			lines = append(lines, fmt.Sprintf("%s **%s %s** on %s", calendarMarker(ride, userID), ride.Vibe, ride.Type, ride.Date))
		}
		embed.Fields = append(embed.Fields, EmbedField{Name: "Later", Value: strings.Join(lines, "\n")})
	}
	return embed
}

func calendarLine(ride models.Ride, userID, guildID string) string {
	marker := calendarMarker(ride, userID)
	line := fmt.Sprintf("%s **%s %s**", marker, ride.Vibe, ride.Type)
	if ride.MeetTime != "" {
		line += " at " + ride.MeetTime
	}
	if ride.MessageID != "" && ride.ChannelID != "" && guildID != "" {
		line += fmt.Sprintf(" ([details](https://discord.com/channels/%s/%s/%s))", guildID, ride.ChannelID, ride.MessageID)
	}
	return strings.TrimSpace(line)
}

func calendarMarker(ride models.Ride, userID string) string {
	if userID == "" {
		return ""
	}
	if ride.CreatorID == userID {
		return "🟩"
	}
	if ride.HasParticipant(userID) {
		return "✅"
	}
	return ""
}

func startOfWeek(now time.Time) time.Time {
	day := truncateDay(now)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
