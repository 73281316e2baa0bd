package models

import "time"

const (
	RideTypeRoad     = "Road"
	RideTypeGravel   = "Gravel"
	RideTypeMountain = "Mountain"
	RideTypeSocial   = "Social"
	RideTypeVirtual  = "Virtual"
	RideTypeRace     = "Race"

	VibeSpicy = "Spicy"
	VibeParty = "Party"

	DropStyleDrop    = "Drop"
	DropStyleNoDrop  = "No Drop"
	DropStyleRegroup = "Regroup"
)

// Location is either a configured meeting spot or a free-form custom one.
// Coordinates are only present for configured spots that have them.
type Location struct {
	Name string   `json:"name"`
	URL  string   `json:"url,omitempty"`
	Lat  *float64 `json:"latitude,omitempty"`
	Lon  *float64 `json:"longitude,omitempty"`
}

func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// Ride is one announced group ride. The announcement message id doubles as
// the lookup key; there is no separate stable ride id across the bot.
type Ride struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	MessageID string `gorm:"size:32;uniqueIndex;not null" json:"message_id"`
	ChannelID string `gorm:"size:32;not null" json:"channel_id"`

	Type      string `gorm:"size:20;not null" json:"type"`
	Vibe      string `gorm:"size:20;not null" json:"vibe"`
	DropStyle string `gorm:"size:20;not null" json:"drop_style"`

	// Canonical display strings, see internal/dates.
	Date        string `gorm:"size:40;not null" json:"date"`
	MeetTime    string `gorm:"size:10;not null" json:"meet_time"`
	RolloutTime string `gorm:"size:10;not null" json:"rollout_time"`

	StartLocation Location `gorm:"embedded;embeddedPrefix:start_" json:"start_location"`
	EndLocation   Location `gorm:"embedded;embeddedPrefix:end_" json:"end_location"`

	Distance    string `gorm:"size:30" json:"distance,omitempty"`
	AvgMph      string `gorm:"size:20" json:"avg_mph,omitempty"`
	RouteSource string `gorm:"size:500" json:"route_source,omitempty"`
	Notes       string `gorm:"size:1000" json:"notes,omitempty"`

	CreatorID string `gorm:"size:32;not null" json:"creator_id"`

	Participants []Participant `gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE" json:"participants"`

	CreatedAt time.Time `json:"created_at"`
}

// HasParticipant reports whether the user already signed up.
func (r *Ride) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Participant is a user who reacted to the announcement. Insertion order is
// preserved and used for display numbering.
type Participant struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	RideID   uint      `gorm:"not null;index" json:"-"`
	UserID   string    `gorm:"size:32;not null" json:"id"`
	Username string    `gorm:"size:100;not null" json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}
