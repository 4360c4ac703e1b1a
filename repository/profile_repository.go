package repository

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileSummary is a profile with the number of images it owns
type ProfileSummary struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	ImageCount int64  `json:"image_count"`
}

// ProfileRepository handles database operations for Profile entities
type ProfileRepository struct {
	DB *gorm.DB
}

// NewProfileRepository creates a new instance of ProfileRepository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

// EnsureExists creates the profile if it is absent
// returns true if a new record was created, false otherwise
func (r *ProfileRepository) EnsureExists(username string) (bool, error) {
	profile := models.Profile{Username: username}
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(&profile)
	if result.Error != nil {
		return false, fmt.Errorf("failed to ensure profile %s: %w", username, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetByUsername retrieves a profile by its username
func (r *ProfileRepository) GetByUsername(username string) (*models.Profile, error) {
	var profile models.Profile
	err := r.DB.Where("username = ?", username).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", username, err)
	}
	return &profile, nil
}

// HiddenProfiles are catch-all usernames from camera default names such as IMG_1234.jpg
var HiddenProfiles = []string{"IMG"}

// ListWithCounts lists every profile with its image count, ordered by username
func (r *ProfileRepository) ListWithCounts() ([]ProfileSummary, error) {
	return r.listWithCounts(false)
}

// ListVisibleWithCounts is ListWithCounts without empty and hidden profiles
func (r *ProfileRepository) ListVisibleWithCounts() ([]ProfileSummary, error) {
	return r.listWithCounts(true)
}

func (r *ProfileRepository) listWithCounts(visibleOnly bool) ([]ProfileSummary, error) {
	query := database.Builder().
		Select("p.id AS id", "p.username AS username", "COUNT(i.id) AS image_count").
		From("profiles p").
		LeftJoin("images i ON i.username = p.username").
		GroupBy("p.id", "p.username").
		OrderBy("p.username")
	if visibleOnly {
		query = query.Where(sq.NotEq{"p.username": HiddenProfiles}).Having("COUNT(i.id) > 0")
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListWithCounts: %w", err)
	}

	var summaries []ProfileSummary
	if err := r.DB.Raw(sqlStr, args...).Scan(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles with counts: %w", err)
	}
	return summaries, nil
}

// Rename moves a profile to a new username. When the new username already
// exists the two profiles are merged and the old one is removed.
func (r *ProfileRepository) Rename(oldUsername, newUsername string) error {
	if oldUsername == newUsername {
		return nil
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var oldCount int64
		if err := tx.Model(&models.Profile{}).Where("username = ?", oldUsername).Count(&oldCount).Error; err != nil {
			return fmt.Errorf("failed to look up profile %s: %w", oldUsername, err)
		}
		if oldCount == 0 {
			return ErrNotFound
		}

		var newCount int64
		if err := tx.Model(&models.Profile{}).Where("username = ?", newUsername).Count(&newCount).Error; err != nil {
			return fmt.Errorf("failed to look up profile %s: %w", newUsername, err)
		}

		if newCount == 0 {
			// images follow through ON UPDATE CASCADE
			if err := tx.Model(&models.Profile{}).Where("username = ?", oldUsername).Update("username", newUsername).Error; err != nil {
				return fmt.Errorf("failed to rename profile %s to %s: %w", oldUsername, newUsername, err)
			}
			return nil
		}

		if err := tx.Model(&models.Image{}).Where("username = ?", oldUsername).Update("username", newUsername).Error; err != nil {
			return fmt.Errorf("failed to move images from %s to %s: %w", oldUsername, newUsername, err)
		}
		if err := tx.Where("username = ?", oldUsername).Delete(&models.Profile{}).Error; err != nil {
			return fmt.Errorf("failed to delete merged profile %s: %w", oldUsername, err)
		}
		return nil
	})
}

// DeleteIfEmpty removes a profile that no longer owns any image
// returns true if the profile was removed
func (r *ProfileRepository) DeleteIfEmpty(username string) (bool, error) {
	result := r.DB.
		Where("username = ? AND NOT EXISTS (SELECT 1 FROM images WHERE images.username = profiles.username)", username).
		Delete(&models.Profile{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete empty profile %s: %w", username, result.Error)
	}
	return result.RowsAffected > 0, nil
}
