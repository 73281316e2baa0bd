// Package dates normalizes user-entered ride dates and times into the
// canonical display strings stored on a ride ("May 15" / "9:00 AM").
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyDate is returned when the date input is blank.
var ErrEmptyDate = errors.New(`Please provide a date in MM/DD format, month name (May 15), or words like "today" or "tomorrow".`)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var ordinalSuffix = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)

// ParseDate resolves a fuzzy date expression against the current local time.
func ParseDate(input string) (string, error) {
	return ParseDateAt(input, time.Now())
}

// ParseDateAt is ParseDate with an explicit "now", used by tests and by the
// scheduler when it re-derives calendar dates.
//
// Accepted forms: "today", "tomorrow", "next <weekday>", month-name dates
// ("May 15", "May 15th"), numeric MM/DD, and ISO-8601 as a last resort.
// A numeric MM/DD already past in the current year is taken to mean the same
// date next year (computed as +365 days, which drifts by one day across a
// leap February — a known approximation kept for compatibility).
func ParseDateAt(input string, now time.Time) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyDate
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	var resolved time.Time
	var ok bool

	switch {
	case normalized == "today":
		resolved, ok = now, true
	case normalized == "tomorrow":
		resolved, ok = now.AddDate(0, 0, 1), true
	case strings.HasPrefix(normalized, "next "):
		if target, found := weekdays[strings.TrimPrefix(normalized, "next ")]; found {
			daysToAdd := (int(target) - int(now.Weekday()) + 7) % 7
			if daysToAdd == 0 {
				// Same weekday means next week, never today.
				daysToAdd = 7
			}
			resolved, ok = now.AddDate(0, 0, daysToAdd), true
		}
	}

	if !ok {
		resolved, ok = parseExplicit(normalized, now)
	}
	if !ok {
		return "", fmt.Errorf(`Could not understand "%s". Please use MM/DD format, month name (May 15), or words like "today" or "tomorrow".`, input)
	}

	return FormatDate(resolved, now), nil
}

// parseExplicit handles month-name, MM/DD and ISO forms.
func parseExplicit(normalized string, now time.Time) (time.Time, bool) {
	cleaned := ordinalSuffix.ReplaceAllString(normalized, "$1")

	for _, layout := range []string{"January 2", "Jan 2"} {
		if t, err := time.Parse(layout, titleWords(cleaned)); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), true
		}
	}

	if t, err := time.Parse("1/2", cleaned); err == nil {
		resolved := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		// A past MM/DD means the same date next year.
		if resolved.Before(truncateDay(now)) {
			resolved = resolved.AddDate(0, 0, 365)
		}
		return resolved, true
	}

	if t, err := time.Parse("2006-01-02", cleaned); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), true
	}

	return time.Time{}, false
}

// FormatDate renders the canonical "Month Day" display form. The year is
// disclosed only when the ride is in a later year, a later month of the
// current year, or across the December/January boundary.
func FormatDate(date, now time.Time) string {
	includeYear := date.Year() > now.Year() ||
		(date.Year() == now.Year() && date.Month() > now.Month()) ||
		(now.Month() == time.December && date.Month() == time.January)

	if includeYear {
		return date.Format("January 2, 2006")
	}
	return date.Format("January 2")
}

var timePattern = regexp.MustCompile(`^(\d{1,2}):?(\d{2})?\s*(am|pm)?$`)

// ParseTime normalizes a meet-time expression to "H:MM AM/PM".
// Accepts "9:00 AM", "21:00", "9:00AM", "9AM", "9 AM", plus the words
// "noon" and "midnight".
func ParseTime(input string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch normalized {
	case "noon":
		normalized = "12:00 pm"
	case "midnight":
		normalized = "12:00 am"
	}

	m := timePattern.FindStringSubmatch(normalized)
	if m == nil {
		return "", timeError(input)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	period := m[3]

	if period == "" {
		// 24-hour form.
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return "", timeError(input)
		}
	} else {
		if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
			return "", timeError(input)
		}
		if period == "am" && hour == 12 {
			hour = 0
		} else if period == "pm" && hour < 12 {
			hour += 12
		}
	}

	return formatClock(hour, minute), nil
}

func timeError(input string) error {
	return fmt.Errorf(`Invalid time "%s". Please use formats like "9:00 AM" or "14:00".`, input)
}

// formatClock renders a 24-hour clock value as "H:MM AM/PM".
func formatClock(hour24, minute int) string {
	period := "AM"
	if hour24 >= 12 {
		period = "PM"
	}
	hour := hour24 % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, period)
}

// RolloutOffsetMinutes extracts the minute offset from a rollout selection
// such as "+15 mins". Anything without a "+<N>" token means same time.
var rolloutPattern = regexp.MustCompile(`\+(\d+)`)

func RolloutOffsetMinutes(option string) int {
	m := rolloutPattern.FindStringSubmatch(option)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// CalculateRollout adds a rollout offset to a canonical meet time, wrapping
// minutes into hours and hours modulo 24. Only the time of day is tracked,
// so a wrap past midnight does not change the ride date.
func CalculateRollout(meetTime string, option string) (string, error) {
	hour, minute, err := parseClock(meetTime)
	if err != nil {
		return "", err
	}

	minute += RolloutOffsetMinutes(option)
	hour = (hour + minute/60) % 24
	minute %= 60

	return formatClock(hour, minute), nil
}

// parseClock reads a canonical "H:MM AM/PM" string back into 24-hour parts.
func parseClock(v string) (hour, minute int, err error) {
	t, err := time.Parse("3:04 PM", v)
	if err != nil {
		return 0, 0, fmt.Errorf("not a canonical time %q: %w", v, err)
	}
	return t.Hour(), t.Minute(), nil
}

// RideDateTime combines the canonical date and meet-time strings back into a
// concrete wall-clock instant. A year embedded in the date string is honored;
// otherwise the current year is assumed.
func RideDateTime(date, meetTime string, now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(meetTime)
	if err != nil {
		return time.Time{}, err
	}

	var d time.Time
	if t, perr := time.Parse("January 2, 2006", date); perr == nil {
		d = t
	} else if t, perr := time.Parse("January 2", date); perr == nil {
		d = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	} else {
		return time.Time{}, fmt.Errorf("not a canonical date %q", date)
	}

	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, now.Location()), nil
}

func titleWords(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
