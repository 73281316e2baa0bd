// Package store persists ride records keyed by their announcement message id.
package store

import (
	"context"
	"errors"

	"github.com/richardquay/urg-ride-maker/internal/models"
)

// ErrNotFound is returned when no ride exists for a message id.
var ErrNotFound = errors.New("ride not found")

// RideStore is the persistence contract the rest of the bot depends on.
// GormStore backs it with postgres; MemoryStore backs it with a map for
// tests and throwaway runs.
type RideStore interface {
	// Append stores a new ride and returns it with generated timestamps.
	Append(ctx context.Context, ride *models.Ride) (*models.Ride, error)
	// FindByMessageID loads a ride, participants in join order.
	FindByMessageID(ctx context.Context, messageID string) (*models.Ride, error)
	// Replace overwrites the whole record identified by the ride's message
	// id, participants included, atomically.
	Replace(ctx context.Context, ride *models.Ride) error
	// ListAll returns every stored ride.
	ListAll(ctx context.Context) ([]models.Ride, error)
}
