package dates

import (
	"strings"
	"testing"
	"time"
)

func mustLocal(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func TestParseDateRelative(t *testing.T) {
	now := mustLocal(t, "2024-05-20") // a Monday

	got, err := ParseDateAt("today", now)
	if err != nil || got != "May 20" {
		t.Fatalf("today = %q, %v", got, err)
	}

	got, err = ParseDateAt("Tomorrow", now)
	if err != nil || got != "May 21" {
		t.Fatalf("tomorrow = %q, %v", got, err)
	}
}

func TestParseDateNextWeekday(t *testing.T) {
	monday := mustLocal(t, "2024-05-20")

	// Same weekday advances a full week, never zero days.
	got, err := ParseDateAt("next monday", monday)
	if err != nil || got != "May 27" {
		t.Fatalf("next monday from a Monday = %q, %v", got, err)
	}

	got, err = ParseDateAt("next friday", monday)
	if err != nil || got != "May 24" {
		t.Fatalf("next friday = %q, %v", got, err)
	}

	got, err = ParseDateAt("next sunday", monday)
	if err != nil || got != "May 26" {
		t.Fatalf("next sunday = %q, %v", got, err)
	}
}

func TestParseDateMonthName(t *testing.T) {
	now := mustLocal(t, "2024-05-01")

	for _, input := range []string{"May 15", "may 15", "May 15th"} {
		got, err := ParseDateAt(input, now)
		if err != nil || got != "May 15" {
			t.Fatalf("%q = %q, %v", input, got, err)
		}
	}
}

func TestParseDateNumericRollover(t *testing.T) {
	// Past MM/DD rolls into next year and discloses the year.
	got, err := ParseDateAt("05/15", mustLocal(t, "2024-05-20"))
	if err != nil || got != "May 15, 2025" {
		t.Fatalf("past 05/15 = %q, %v", got, err)
	}

	// Upcoming MM/DD in the same month has no year.
	got, err = ParseDateAt("05/15", mustLocal(t, "2024-05-01"))
	if err != nil || got != "May 15" {
		t.Fatalf("upcoming 05/15 = %q, %v", got, err)
	}
}

func TestParseDateYearDisclosure(t *testing.T) {
	// Later month of the current year discloses the year.
	got, err := ParseDateAt("June 2", mustLocal(t, "2024-05-20"))
	if err != nil || got != "June 2, 2024" {
		t.Fatalf("later month = %q, %v", got, err)
	}

	// December planning a January ride discloses the year.
	got, err = ParseDateAt("January 5", mustLocal(t, "2024-12-15"))
	if err != nil || got != "January 5, 2024" {
		t.Fatalf("dec/jan boundary = %q, %v", got, err)
	}
}

func TestParseDateISOFallback(t *testing.T) {
	got, err := ParseDateAt("2024-09-01", mustLocal(t, "2024-05-20"))
	if err != nil || got != "September 1, 2024" {
		t.Fatalf("iso = %q, %v", got, err)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, err := ParseDateAt("", mustLocal(t, "2024-05-20")); err == nil {
		t.Fatal("empty input should fail")
	}

	_, err := ParseDateAt("banana", mustLocal(t, "2024-05-20"))
	if err == nil || !strings.Contains(err.Error(), "banana") {
		t.Fatalf("expected descriptive error, got %v", err)
	}
}

func TestParseTime(t *testing.T) {
	cases := map[string]string{
		"9:00 AM":  "9:00 AM",
		"21:00":    "9:00 PM",
		"9:00am":   "9:00 AM",
		"9AM":      "9:00 AM",
		"9 pm":     "9:00 PM",
		"noon":     "12:00 PM",
		"midnight": "12:00 AM",
		"0:30":     "12:30 AM",
		"12:15 pm": "12:15 PM",
	}
	for input, want := range cases {
		got, err := ParseTime(input)
		if err != nil {
			t.Fatalf("ParseTime(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseTime(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseTimeInvalid(t *testing.T) {
	for _, input := range []string{"25:00", "13:00 PM", "9:75", "soon", ""} {
		if _, err := ParseTime(input); err == nil {
			t.Fatalf("ParseTime(%q) should fail", input)
		}
	}
}

func TestRolloutOffsetMinutes(t *testing.T) {
	if got := RolloutOffsetMinutes("+15 mins"); got != 15 {
		t.Fatalf("+15 mins = %d", got)
	}
	if got := RolloutOffsetMinutes("Same time"); got != 0 {
		t.Fatalf("Same time = %d", got)
	}
	if got := RolloutOffsetMinutes("+60 mins"); got != 60 {
		t.Fatalf("+60 mins = %d", got)
	}
}

func TestCalculateRollout(t *testing.T) {
	got, err := CalculateRollout("9:00 AM", "+15 mins")
	if err != nil || got != "9:15 AM" {
		t.Fatalf("9:00 AM +15 = %q, %v", got, err)
	}

	// Minute overflow carries into the hour and wraps past midnight.
	got, err = CalculateRollout("11:50 PM", "+15 mins")
	if err != nil || got != "12:05 AM" {
		t.Fatalf("11:50 PM +15 = %q, %v", got, err)
	}

	got, err = CalculateRollout("11:30 AM", "+45 mins")
	if err != nil || got != "12:15 PM" {
		t.Fatalf("11:30 AM +45 = %q, %v", got, err)
	}

	got, err = CalculateRollout("9:00 AM", "Same time")
	if err != nil || got != "9:00 AM" {
		t.Fatalf("same time = %q, %v", got, err)
	}
}

func TestRideDateTime(t *testing.T) {
	now := mustLocal(t, "2024-05-01")

	got, err := RideDateTime("May 15", "9:00 AM", now)
	if err != nil {
		t.Fatalf("RideDateTime: %v", err)
	}
	want := time.Date(2024, time.May, 15, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("RideDateTime = %v, want %v", got, want)
	}

	// A disclosed year is honored across the new-year boundary.
	got, err = RideDateTime("May 15, 2025", "9:30 PM", now)
	if err != nil {
		t.Fatalf("RideDateTime with year: %v", err)
	}
	want = time.Date(2025, time.May, 15, 21, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("RideDateTime with year = %v, want %v", got, want)
	}

	if _, err := RideDateTime("garbage", "9:00 AM", now); err == nil {
		t.Fatal("bad date should fail")
	}
}
