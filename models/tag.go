package models

import "time"

// Tag sources
const (
	TagSourceRemote = "remote"
	TagSourceMock   = "mock"
	TagSourceManual = "manual"
)

// Tag holds the structured attributes of one image.
// It corresponds to the 'tags' table; image_id is unique so each image has at most one row.
type Tag struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ImageID      uint      `gorm:"not null;uniqueIndex" json:"image_id"`
	HairColor    string    `gorm:"not null" json:"hair_color"`
	SkinTone     string    `gorm:"not null" json:"skin_tone"`
	ClothingType string    `gorm:"not null" json:"clothing_type"`
	PoseType     string    `gorm:"not null" json:"pose_type"`
	Environment  string    `gorm:"not null" json:"environment"`
	FaceVisible  bool      `gorm:"not null;default:false" json:"face_visible"`
	Source       string    `gorm:"not null;default:remote" json:"source"`
	DateTagged   time.Time `gorm:"not null" json:"date_tagged"`

	// Relationships
	Image *Image `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Tag) TableName() string {
	return "tags"
}
