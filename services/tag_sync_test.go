package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagSync_ExportThenImportIsUnchanged(t *testing.T) {
	store, _ := newTestStore(t)
	a := seedImage(t, store, "amy", "/r/amy_1.jpg")
	b := seedImage(t, store, "bo", "/r/bo_1.jpg")
	seedImage(t, store, "bo", "/r/bo_2.jpg")
	require.NoError(t, store.Tags.Upsert(vision.Result{Tags: vision.MockTags(a.Filepath), Source: models.TagSourceMock}.Record(a.ID)))
	require.NoError(t, store.Tags.Upsert(vision.Result{Tags: vision.MockTags(b.Filepath), Source: models.TagSourceRemote}.Record(b.ID)))

	sync := NewTagSync(store)
	var buf bytes.Buffer
	n, err := sync.Export(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, buf.String(), "filepath: /r/amy_1.jpg")
	assert.Less(t, strings.Index(buf.String(), "/r/amy_1.jpg"), strings.Index(buf.String(), "/r/bo_1.jpg"))

	report, err := sync.Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Unchanged: 2}, report)

	tag, err := store.Tags.GetByImageID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TagSourceRemote, tag.Source)
}

func TestTagSync_ImportAppliesEditsAndReportsUnknown(t *testing.T) {
	store, _ := newTestStore(t)
	a := seedImage(t, store, "amy", "/r/amy_1.jpg")
	b := seedImage(t, store, "bo", "/r/bo_1.jpg")
	require.NoError(t, store.Tags.Upsert(vision.Result{
		Tags:   vision.TagSet{HairColor: "brown", SkinTone: "light", ClothingType: "dress", PoseType: "sitting", Environment: "home"},
		Source: models.TagSourceRemote,
	}.Record(a.ID)))

	sidecar := `version: 1
images:
  - filepath: /r/amy_1.jpg
    tags:
      hair_color: Blonde
      skin_tone: light
      clothing_type: dress
      pose_type: sitting
      environment: home
      face_visible: "true"
  - filepath: /r/bo_1.jpg
    tags:
      hair_color: silver
      face_visible: maybe
  - filepath: /r/ghost_9.jpg
    tags:
      hair_color: red
`
	report, err := NewTagSync(store).Import(strings.NewReader(sidecar))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, report.Unknown)
	assert.Equal(t, []string{"/r/ghost_9.jpg"}, report.UnknownPaths)

	tag, err := store.Tags.GetByImageID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "blonde", tag.HairColor)
	assert.True(t, tag.FaceVisible)
	assert.Equal(t, models.TagSourceManual, tag.Source)

	tag, err = store.Tags.GetByImageID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, vision.TagSet{
		HairColor: vision.Other, SkinTone: vision.Other, ClothingType: vision.Other,
		PoseType: vision.Other, Environment: vision.Other,
	}, vision.TagSetOf(tag))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Images)
}

func TestTagSync_RejectsNewerVersion(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := NewTagSync(store).Import(strings.NewReader("version: 9\nimages: []\n"))
	assert.Error(t, err)
}
