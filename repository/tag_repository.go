package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tagValueColumns = []string{
	"hair_color", "skin_tone", "clothing_type", "pose_type", "environment",
	"face_visible", "source", "date_tagged",
}

// TaggedImage is a tag row joined with the path of its image
type TaggedImage struct {
	models.Tag
	Filepath string `json:"filepath"`
	Username string `json:"username"`
}

// TagRepository handles database operations for Tag entities
type TagRepository struct {
	DB *gorm.DB
}

// NewTagRepository creates a new instance of TagRepository
func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{DB: db}
}

// GetByImageID retrieves the tag row of an image
func (r *TagRepository) GetByImageID(imageID uint) (*models.Tag, error) {
	var tag models.Tag
	err := r.DB.Where("image_id = ?", imageID).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag for image %d: %w", imageID, err)
	}
	return &tag, nil
}

// Upsert writes the tag row of an image, replacing any existing values
func (r *TagRepository) Upsert(tag *models.Tag) error {
	if tag.DateTagged.IsZero() {
		tag.DateTagged = time.Now()
	}
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_id"}},
		DoUpdates: clause.AssignmentColumns(tagValueColumns),
	}).Create(tag)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert tag for image %d: %w", tag.ImageID, result.Error)
	}
	return nil
}

// InsertIfAbsent writes the tag row only when the image has none yet
// returns true if the row was written
func (r *TagRepository) InsertIfAbsent(tag *models.Tag) (bool, error) {
	if tag.DateTagged.IsZero() {
		tag.DateTagged = time.Now()
	}
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_id"}},
		DoNothing: true,
	}).Create(tag)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert tag for image %d: %w", tag.ImageID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListWithPaths lists every tag with its image path, ordered by path
func (r *TagRepository) ListWithPaths() ([]TaggedImage, error) {
	sqlStr, args, err := database.Builder().
		Select("tags.*", "images.filepath AS filepath", "images.username AS username").
		From("tags").
		Join("images ON images.id = tags.image_id").
		OrderBy("images.filepath").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListWithPaths: %w", err)
	}

	var rows []TaggedImage
	if err := r.DB.Raw(sqlStr, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return rows, nil
}
