package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manualTags = vision.RawTags{
	"hair_color": "red", "skin_tone": "medium", "clothing_type": "crop top",
	"pose_type": "side pose", "environment": "indoor", "face_visible": true,
}

func TestTagEditor_SetTags(t *testing.T) {
	store, _ := newTestStore(t)
	img := seedImage(t, store, "amy", "/r/amy_1.jpg")
	editor := NewTagEditor(store, failingTagger{}, nil)

	_, err := editor.Get(img.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	tag, err := editor.SetTags(img.ID, manualTags)
	require.NoError(t, err)
	assert.Equal(t, models.TagSourceManual, tag.Source)

	got, err := editor.Get(img.ID)
	require.NoError(t, err)
	assert.Equal(t, "crop top", got.ClothingType)
	assert.True(t, got.FaceVisible)

	bad := vision.RawTags{"hair_color": "teal"}
	_, err = editor.SetTags(img.ID, bad)
	assert.ErrorIs(t, err, vision.ErrInvalidTags)

	_, err = editor.SetTags(img.ID+100, manualTags)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTagEditor_AutoTagOverwrites(t *testing.T) {
	store, _ := newTestStore(t)
	path := filepath.Join(t.TempDir(), "amy_1.jpg")
	touch(t, path)
	img := seedImage(t, store, "amy", path)

	editor := NewTagEditor(store, newMockClient(t), nil)
	_, err := editor.SetTags(img.ID, manualTags)
	require.NoError(t, err)

	tag, err := editor.AutoTag(context.Background(), img.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TagSourceMock, tag.Source)

	got, err := editor.Get(img.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TagSourceMock, got.Source)
	assert.Equal(t, vision.MockTags(path), vision.TagSetOf(got))
}

func TestTagEditor_AutoTagFailureKeepsExisting(t *testing.T) {
	store, _ := newTestStore(t)
	img := seedImage(t, store, "amy", "/r/amy_1.jpg")
	boom := errors.New("unreadable")

	editor := NewTagEditor(store, failingTagger{err: boom}, nil)
	_, err := editor.SetTags(img.ID, manualTags)
	require.NoError(t, err)

	_, err = editor.AutoTag(context.Background(), img.ID)
	assert.ErrorIs(t, err, boom)

	got, err := editor.Get(img.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TagSourceManual, got.Source)
}
