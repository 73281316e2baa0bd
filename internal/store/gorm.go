package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/richardquay/urg-ride-maker/internal/models"
)

// GormStore persists rides through gorm. Participants live in their own
// table; Replace swaps them inside one transaction so reaction handlers
// never observe a half-written roster.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	if err := s.db.WithContext(ctx).Create(ride).Error; err != nil {
		return nil, fmt.Errorf("append ride: %w", err)
	}
	return ride, nil
}

func (s *GormStore) FindByMessageID(ctx context.Context, messageID string) (*models.Ride, error) {
	var ride models.Ride
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC, id ASC")
		}).
		Where("message_id = ?", messageID).
		First(&ride).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ride %s: %w", messageID, err)
	}
	return &ride, nil
}

func (s *GormStore) Replace(ctx context.Context, ride *models.Ride) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Ride
		err := tx.Where("message_id = ?", ride.MessageID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		ride.ID = existing.ID
		ride.CreatedAt = existing.CreatedAt

		// Select("*") keeps cleared fields cleared; a plain struct update
		// would skip zero values.
		if err := tx.Model(&models.Ride{}).Where("id = ?", existing.ID).
			Select("*").Omit("Participants", "id", "created_at").Updates(ride).Error; err != nil {
			return err
		}

		if err := tx.Where("ride_id = ?", existing.ID).
			Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		for i := range ride.Participants {
			ride.Participants[i].ID = 0
			ride.Participants[i].RideID = existing.ID
		}
		if len(ride.Participants) > 0 {
			if err := tx.Create(&ride.Participants).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) ListAll(ctx context.Context) ([]models.Ride, error) {
	var rides []models.Ride
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC, id ASC")
		}).
		Order("created_at ASC").
		Find(&rides).Error
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	return rides, nil
}
