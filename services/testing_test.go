package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/vision"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) (*repository.Store, *gorm.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return repository.NewStore(db), db
}

func seedImage(t *testing.T, s *repository.Store, username, path string) *models.Image {
	t.Helper()
	_, err := s.Profiles.EnsureExists(username)
	require.NoError(t, err)
	img := &models.Image{Filename: filepath.Base(path), Filepath: path, Username: username, DateAdded: time.Now()}
	_, err = s.Images.InsertIfAbsent(img)
	require.NoError(t, err)
	return img
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))
}

func newMockClient(t *testing.T) *vision.Client {
	t.Helper()
	c, err := vision.NewClient(context.Background(), vision.Config{})
	require.NoError(t, err)
	require.True(t, c.MockMode())
	return c
}

type failingTagger struct{ err error }

func (f failingTagger) Tag(context.Context, vision.ImageRef) (vision.Result, error) {
	return vision.Result{}, f.err
}
