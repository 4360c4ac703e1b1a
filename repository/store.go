package repository

import (
	"fmt"

	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/models"
	"gorm.io/gorm"
)

// Stats summarizes the contents of the store
type Stats struct {
	Profiles     int64 `json:"profiles"`
	Images       int64 `json:"images"`
	TaggedImages int64 `json:"tagged_images"`
}

// Store bundles the repositories over one connection or transaction
type Store struct {
	db       *gorm.DB
	Profiles ProfileRepositoryInterface
	Images   ImageRepositoryInterface
	Tags     TagRepositoryInterface
}

// NewStore creates repositories sharing db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Profiles: NewProfileRepository(db),
		Images:   NewImageRepository(db),
		Tags:     NewTagRepository(db),
	}
}

// Transaction runs fn against a store bound to a single transaction.
// Returning an error from fn rolls every write back.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Backup copies the database to path.
func (s *Store) Backup(path string) error {
	return database.Backup(s.db, path)
}

// Stats counts profiles, images and tagged images
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	if err := s.db.Model(&models.Profile{}).Count(&stats.Profiles).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to count profiles: %w", err)
	}
	if err := s.db.Model(&models.Image{}).Count(&stats.Images).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to count images: %w", err)
	}
	if err := s.db.Model(&models.Tag{}).Distinct("image_id").Count(&stats.TaggedImages).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to count tagged images: %w", err)
	}
	return stats, nil
}
