package repository

import (
	"errors"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/models"
	"github.com/facette/natsort"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRepository handles database operations for Image entities
type ImageRepository struct {
	DB *gorm.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{DB: db}
}

// GetByID retrieves an image by its surrogate key
func (r *ImageRepository) GetByID(id uint) (*models.Image, error) {
	var image models.Image
	err := r.DB.First(&image, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image %d: %w", id, err)
	}
	return &image, nil
}

// GetByPath retrieves an image by its resolved file path
func (r *ImageRepository) GetByPath(filepath string) (*models.Image, error) {
	var image models.Image
	err := r.DB.Where("filepath = ?", filepath).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image by path %s: %w", filepath, err)
	}
	return &image, nil
}

// GetByIDs retrieves multiple images, ordered by id. Unknown ids are ignored.
func (r *ImageRepository) GetByIDs(ids []uint) ([]models.Image, error) {
	if len(ids) == 0 {
		return []models.Image{}, nil
	}
	var images []models.Image
	err := r.DB.Where("id IN ?", ids).Order("id").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get images by ids: %w", err)
	}
	return images, nil
}

// InsertIfAbsent inserts a new image unless one with the same filepath exists.
// The unique index on filepath decides, so concurrent importers cannot both win.
// returns true if a new record was created, false otherwise
func (r *ImageRepository) InsertIfAbsent(image *models.Image) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "filepath"}},
		DoNothing: true,
	}).Create(image)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert image %s: %w", image.Filepath, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByUsername lists a profile's images, newest first
func (r *ImageRepository) ListByUsername(username string) ([]models.Image, error) {
	return r.ListByUsernameSorted(username, database.DefaultSortOrder)
}

// ListByUsernameSorted lists a profile's images in one of the database.Sort* orders
func (r *ImageRepository) ListByUsernameSorted(username, order string) ([]models.Image, error) {
	query := r.DB.Where("username = ?", username)
	for _, clause := range database.OrderClauses(order) {
		query = query.Order(clause)
	}
	var images []models.Image
	if err := query.Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images for %s: %w", username, err)
	}
	if order == database.SortFilenameNat {
		sort.SliceStable(images, func(i, j int) bool {
			return natsort.Compare(images[i].Filename, images[j].Filename)
		})
	}
	return images, nil
}

// ListUntagged retrieves images with no tag row, oldest first. A limit of 0 returns all.
func (r *ImageRepository) ListUntagged(limit int) ([]models.Image, error) {
	query := database.Builder().
		Select("images.*").
		From("images").
		LeftJoin("tags ON tags.image_id = images.id").
		Where(sq.Eq{"tags.id": nil}).
		OrderBy("images.id")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListUntagged: %w", err)
	}

	var images []models.Image
	if err := r.DB.Raw(sqlStr, args...).Scan(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list untagged images: %w", err)
	}
	return images, nil
}

// ListAll retrieves every image, ordered by id
func (r *ImageRepository) ListAll() ([]models.Image, error) {
	var images []models.Image
	if err := r.DB.Order("id").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// UpdateUsername reassigns an image to another profile
func (r *ImageRepository) UpdateUsername(id uint, username string) error {
	result := r.DB.Model(&models.Image{}).Where("id = ?", id).Update("username", username)
	if result.Error != nil {
		return fmt.Errorf("failed to reassign image %d to %s: %w", id, username, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
