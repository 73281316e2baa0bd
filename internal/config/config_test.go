package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort != "8080" {
		t.Fatalf("default server port = %q", cfg.ServerPort)
	}
	if cfg.DBName != "ridemaker" {
		t.Fatalf("default db name = %q", cfg.DBName)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("DISCORD_BOT_TOKEN", "tok-123")

	cfg := Load()
	if cfg.ServerPort != "9999" {
		t.Fatalf("server port = %q", cfg.ServerPort)
	}
	if cfg.BotToken != "tok-123" {
		t.Fatalf("bot token = %q", cfg.BotToken)
	}
}

func TestLoadRideOptionsMissingFileUsesDefaults(t *testing.T) {
	opts, err := LoadRideOptions(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(opts.Locations) == 0 || opts.DefaultRollout != "+15 mins" {
		t.Fatalf("defaults not applied: %+v", opts)
	}
	if !opts.RideTypes["Race"].AdminOnly {
		t.Fatal("Race should be admin-only by default")
	}
}

func TestLoadRideOptionsFromFile(t *testing.T) {
	yaml := `
locations:
  - name: Trailhead
    url: https://example.com/trailhead
    latitude: 45.0
    longitude: -93.0
    emoji: "🌲"
ride_types:
  Road:
    emoji: "🚴"
    channel_name: road-rides
    channel_id: "123456"
  Race:
    emoji: "🏁"
    channel_name: races
    admin_only: true
default_rollout: "+30 mins"
`
	path := filepath.Join(t.TempDir(), "ride-options.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	opts, err := LoadRideOptions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	loc, ok := opts.FindLocation("Trailhead")
	if !ok || loc.Latitude == nil || *loc.Latitude != 45.0 {
		t.Fatalf("location not loaded: %+v", loc)
	}

	road, ok := opts.TypeOption("Road")
	if !ok || road.ChannelID != "123456" {
		t.Fatalf("ride type not loaded: %+v", road)
	}
	if opts.DefaultRollout != "+30 mins" {
		t.Fatalf("default rollout = %q", opts.DefaultRollout)
	}
}

func TestFindEndLocation(t *testing.T) {
	opts := DefaultRideOptions()
	if _, ok := opts.FindEndLocation("Venn Brewery"); !ok {
		t.Fatal("Venn Brewery missing from defaults")
	}
	if _, ok := opts.FindEndLocation("Nowhere"); ok {
		t.Fatal("unexpected end location")
	}
}
