package models

import "time"

// Image represents an imported image or video file.
// It corresponds to the 'images' table. Filepath is the resolved absolute
// path and the natural key; DateAdded is set on first import only.
type Image struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename  string    `gorm:"not null" json:"filename"`
	Filepath  string    `gorm:"not null;uniqueIndex" json:"filepath"`
	Username  string    `gorm:"not null;index" json:"username"`
	DateAdded time.Time `gorm:"not null" json:"date_added"`
}

// TableName explicitly sets the table name for GORM.
func (Image) TableName() string {
	return "images"
}
