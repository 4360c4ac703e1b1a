package repository

import (
	"github.com/camden-git/rostertagger/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = gorm.ErrRecordNotFound

// ProfileRepositoryInterface defines the methods for profile data operations
type ProfileRepositoryInterface interface {
	EnsureExists(username string) (bool, error)
	GetByUsername(username string) (*models.Profile, error)
	ListWithCounts() ([]ProfileSummary, error)
	ListVisibleWithCounts() ([]ProfileSummary, error)
	Rename(oldUsername, newUsername string) error
	DeleteIfEmpty(username string) (bool, error)
}

// ImageRepositoryInterface defines the methods for image data operations
type ImageRepositoryInterface interface {
	GetByID(id uint) (*models.Image, error)
	GetByPath(filepath string) (*models.Image, error)
	GetByIDs(ids []uint) ([]models.Image, error)
	InsertIfAbsent(image *models.Image) (bool, error)
	ListByUsername(username string) ([]models.Image, error)
	ListByUsernameSorted(username, order string) ([]models.Image, error)
	ListUntagged(limit int) ([]models.Image, error)
	ListAll() ([]models.Image, error)
	UpdateUsername(id uint, username string) error
}

// TagRepositoryInterface defines the methods for tag data operations
type TagRepositoryInterface interface {
	GetByImageID(imageID uint) (*models.Tag, error)
	Upsert(tag *models.Tag) error
	InsertIfAbsent(tag *models.Tag) (bool, error)
	ListWithPaths() ([]TaggedImage, error)
}
