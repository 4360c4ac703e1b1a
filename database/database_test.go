package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/camden-git/rostertagger/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", buildDSN("a.db"))
	assert.Equal(t, "a.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", buildDSN("a.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"))
	assert.Equal(t, "a.db?cache=shared&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", buildDSN("a.db?cache=shared"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, logger.Info, ParseLogLevel(" INFO "))
	assert.Equal(t, logger.Warn, ParseLogLevel("bogus"))
}

func TestOpen_MigratesSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	for _, table := range []string{"profiles", "images", "tags"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("images", "idx_images_filepath"))
	assert.True(t, db.Migrator().HasIndex("tags", "idx_tags_image_id"))

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	// images.username references profiles.username
	require.NoError(t, db.Create(&models.Profile{Username: "amy"}).Error)
	require.NoError(t, db.Create(&models.Image{Filename: "amy_1.jpg", Filepath: "/r/amy_1.jpg", Username: "amy", DateAdded: time.Now()}).Error)
	assert.Error(t, db.Create(&models.Image{Filename: "kai_1.jpg", Filepath: "/r/kai_1.jpg", Username: "kai", DateAdded: time.Now()}).Error)
	assert.Error(t, db.Where("username = ?", "amy").Delete(&models.Profile{}).Error)

	require.NoError(t, db.Model(&models.Profile{}).Where("username = ?", "amy").Update("username", "amy_b").Error)
	var moved models.Image
	require.NoError(t, db.Where("filepath = ?", "/r/amy_1.jpg").First(&moved).Error)
	assert.Equal(t, "amy_b", moved.Username)
}

func TestBackupPath(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, filepath.Join("data", "roster_backup_20240102_150405.db"), BackupPath(filepath.Join("data", "roster.db"), now))
	assert.Equal(t, "roster_backup_20240102_150405.db", BackupPath("roster", now))
}
