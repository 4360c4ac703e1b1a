package services

import (
	"context"
	"fmt"

	"github.com/camden-git/rostertagger/metrics"
	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/vision"
)

// Tagger produces tags for one image
type Tagger interface {
	Tag(ctx context.Context, ref vision.ImageRef) (vision.Result, error)
}

// TagEditor handles single-image tag reads and edits
type TagEditor struct {
	store   *repository.Store
	tagger  Tagger
	metrics *metrics.Metrics
}

func NewTagEditor(store *repository.Store, tagger Tagger, m *metrics.Metrics) *TagEditor {
	return &TagEditor{store: store, tagger: tagger, metrics: m}
}

// Get returns the tag of an image, or repository.ErrNotFound when the image
// is unknown or untagged.
func (e *TagEditor) Get(imageID uint) (*models.Tag, error) {
	if _, err := e.store.Images.GetByID(imageID); err != nil {
		return nil, err
	}
	return e.store.Tags.GetByImageID(imageID)
}

// SetTags stores a manual edit after strict vocabulary validation,
// replacing any existing tag.
func (e *TagEditor) SetTags(imageID uint, raw vision.RawTags) (*models.Tag, error) {
	if _, err := e.store.Images.GetByID(imageID); err != nil {
		return nil, err
	}
	tags, err := vision.Validate(raw)
	if err != nil {
		return nil, err
	}
	tag := vision.Result{Tags: tags, Source: models.TagSourceManual}.Record(imageID)
	if err := e.store.Tags.Upsert(tag); err != nil {
		return nil, fmt.Errorf("failed to save tags for image %d: %w", imageID, err)
	}
	e.metrics.TagWritten(tag.Source)
	return tag, nil
}

// AutoTag tags one image through the tagging service and overwrites any existing tag.
func (e *TagEditor) AutoTag(ctx context.Context, imageID uint) (*models.Tag, error) {
	img, err := e.store.Images.GetByID(imageID)
	if err != nil {
		return nil, err
	}
	result, err := e.tagger.Tag(ctx, vision.ImageRef{ID: img.ID, Path: img.Filepath})
	if err != nil {
		e.metrics.TagFailed()
		return nil, fmt.Errorf("failed to tag image %d: %w", imageID, err)
	}
	tag := result.Record(img.ID)
	if err := e.store.Tags.Upsert(tag); err != nil {
		return nil, fmt.Errorf("failed to save tags for image %d: %w", imageID, err)
	}
	e.metrics.TagWritten(tag.Source)
	return tag, nil
}
