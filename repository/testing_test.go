package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func seedImage(t *testing.T, s *Store, username, path string) *models.Image {
	t.Helper()
	_, err := s.Profiles.EnsureExists(username)
	require.NoError(t, err)
	img := &models.Image{
		Filename:  filepath.Base(path),
		Filepath:  path,
		Username:  username,
		DateAdded: time.Now(),
	}
	created, err := s.Images.InsertIfAbsent(img)
	require.NoError(t, err)
	require.True(t, created)
	return img
}
