package models

// Profile represents a roster owner inferred from filenames.
// It corresponds to the 'profiles' table.
type Profile struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"not null;uniqueIndex" json:"username"` // case-preserving as extracted

	// Relationships
	Images []Image `gorm:"foreignKey:Username;references:Username;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}
