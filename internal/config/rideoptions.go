package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/richardquay/urg-ride-maker/internal/models"
)

// LocationOption is a configured meeting spot offered in the pickers.
type LocationOption struct {
	Name      string   `mapstructure:"name"`
	URL       string   `mapstructure:"url"`
	Latitude  *float64 `mapstructure:"latitude"`
	Longitude *float64 `mapstructure:"longitude"`
	Emoji     string   `mapstructure:"emoji"`
}

// Location converts the option into the persisted location shape.
func (o LocationOption) Location() models.Location {
	return models.Location{Name: o.Name, URL: o.URL, Lat: o.Latitude, Lon: o.Longitude}
}

// RideTypeOption maps a ride type to its announcement channel. AdminOnly
// types can only be created by server admins.
type RideTypeOption struct {
	Emoji       string `mapstructure:"emoji"`
	ChannelName string `mapstructure:"channel_name"`
	ChannelID   string `mapstructure:"channel_id"`
	AdminOnly   bool   `mapstructure:"admin_only"`
}

type VibeOption struct {
	Emoji       string `mapstructure:"emoji"`
	Description string `mapstructure:"description"`
}

type RolloutOption struct {
	Label string `mapstructure:"label"`
	Value int    `mapstructure:"value"`
}

// RideOptions is the server-specific ride catalog: pickable locations,
// ride types with their channels, vibes, drop styles and rollout choices.
type RideOptions struct {
	Locations      []LocationOption          `mapstructure:"locations"`
	EndLocations   []LocationOption          `mapstructure:"end_locations"`
	RideTypes      map[string]RideTypeOption `mapstructure:"ride_types"`
	Vibes          map[string]VibeOption     `mapstructure:"vibes"`
	DropStyles     []string                  `mapstructure:"drop_styles"`
	RolloutOptions []RolloutOption           `mapstructure:"rollout_options"`
	DefaultRollout string                    `mapstructure:"default_rollout"`
}

// LoadRideOptions reads the ride catalog YAML. A missing file falls back to
// the built-in defaults so the bot can run unconfigured in development.
func LoadRideOptions(path string) (*RideOptions, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultRideOptions(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read ride options: %w", err)
	}

	opts := DefaultRideOptions()
	if err := v.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("parse ride options: %w", err)
	}
	return opts, nil
}

// FindLocation looks up a start location by picker name.
func (o *RideOptions) FindLocation(name string) (LocationOption, bool) {
	for _, loc := range o.Locations {
		if loc.Name == name {
			return loc, true
		}
	}
	return LocationOption{}, false
}

// FindEndLocation looks up an end location by picker name.
func (o *RideOptions) FindEndLocation(name string) (LocationOption, bool) {
	for _, loc := range o.EndLocations {
		if loc.Name == name {
			return loc, true
		}
	}
	return LocationOption{}, false
}

// TypeOption returns the channel mapping for a ride type.
func (o *RideOptions) TypeOption(rideType string) (RideTypeOption, bool) {
	t, ok := o.RideTypes[rideType]
	return t, ok
}

func float(v float64) *float64 { return &v }

// DefaultRideOptions mirrors the catalog the bot originally shipped with.
func DefaultRideOptions() *RideOptions {
	return &RideOptions{
		Locations: []LocationOption{
			{Name: "Angry Catfish", URL: "https://maps.app.goo.gl/hoCFdQG9eiPjTgaL6", Latitude: float(44.9537), Longitude: float(-93.2277), Emoji: "🐟"},
			{Name: "Northern Coffeeworks", URL: "https://maps.app.goo.gl/xLGR16zgg7tWBydbA", Latitude: float(44.9537), Longitude: float(-93.2277), Emoji: "☕"},
			{Name: "Park's House", URL: "https://maps.app.goo.gl/c54ucqGzTaFJXRRe8", Emoji: "🏠"},
		},
		EndLocations: []LocationOption{
			{Name: "Venn Brewery", URL: "https://maps.app.goo.gl/ZXY7Zb256S1pEPFTA", Emoji: "🍺"},
			{Name: "Bulls Horn", URL: "https://maps.app.goo.gl/x1Fm5ZT4f4poJQE66", Emoji: "🐂"},
			{Name: "Sea Salt", URL: "https://maps.app.goo.gl/yq7cyLVbiMarbFzb8", Emoji: "🌊"},
			{Name: "Dada's Beach", URL: "https://maps.app.goo.gl/UWuiDyndUuADWZqV6", Emoji: "🏖️"},
		},
		RideTypes: map[string]RideTypeOption{
			models.RideTypeRoad:     {Emoji: "🚴", ChannelName: "road-rides"},
			models.RideTypeGravel:   {Emoji: "🚵‍♂️", ChannelName: "gravel-rides"},
			models.RideTypeMountain: {Emoji: "🚵", ChannelName: "mtb-rides"},
			models.RideTypeSocial:   {Emoji: "🍻", ChannelName: "social-rides"},
			models.RideTypeVirtual:  {Emoji: "💻", ChannelName: "virtual-rides"},
			models.RideTypeRace:     {Emoji: "🏁", ChannelName: "races", AdminOnly: true},
		},
		Vibes: map[string]VibeOption{
			models.VibeSpicy: {Emoji: "🌶️", Description: "fast-paced, speedy, challenging ride"},
			models.VibeParty: {Emoji: "🎉", Description: "party-pace, casual, social ride"},
		},
		DropStyles: []string{models.DropStyleDrop, models.DropStyleNoDrop, models.DropStyleRegroup},
		RolloutOptions: []RolloutOption{
			{Label: "Same time", Value: 0},
			{Label: "+15 mins", Value: 15},
			{Label: "+30 mins", Value: 30},
			{Label: "+45 mins", Value: 45},
			{Label: "+1 hour", Value: 60},
		},
		DefaultRollout: "+15 mins",
	}
}
