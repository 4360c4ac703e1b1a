package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/camden-git/rostertagger/media"
	"github.com/camden-git/rostertagger/metrics"
	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/services"
	"github.com/camden-git/rostertagger/vision"
)

// Outcome constants
const (
	OutcomeTagged  = "tagged"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// BatchScope selects the images of a batch. Without ImageIDs every untagged
// image is selected. Limit caps the selection when positive.
type BatchScope struct {
	ImageIDs []uint `json:"image_ids,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// ItemProgress reports the outcome of one image
type ItemProgress struct {
	ImageID  uint   `json:"image_id"`
	Filepath string `json:"filepath,omitempty"`
	Outcome  string `json:"outcome"`
	Source   string `json:"source,omitempty"`
	Error    string `json:"error,omitempty"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
}

type ProgressFunc func(ItemProgress)

// BatchReport aggregates a batch. Attempted counts images sent to the
// tagger, so Attempted == Succeeded + Failed; skipped images are not attempted.
type BatchReport struct {
	Attempted   int    `json:"attempted"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	MockSourced int    `json:"mock_sourced"`
	FailedIDs   []uint `json:"failed_ids"`
}

func (r *BatchReport) add(item ItemProgress) {
	switch item.Outcome {
	case OutcomeTagged:
		r.Attempted++
		r.Succeeded++
		if item.Source == models.TagSourceMock {
			r.MockSourced++
		}
	case OutcomeFailed:
		r.Attempted++
		r.Failed++
		r.FailedIDs = append(r.FailedIDs, item.ImageID)
	case OutcomeSkipped:
		r.Skipped++
	}
}

// BatchTagger tags many images through a fixed pool of workers. Store
// writes are serialized; remote calls run in parallel up to the pool size.
type BatchTagger struct {
	store      *repository.Store
	tagger     services.Tagger
	numWorkers int
	metrics    *metrics.Metrics
	writeMu    sync.Mutex
}

// NewBatchTagger creates a batch tagger. m may be nil.
func NewBatchTagger(store *repository.Store, tagger services.Tagger, numWorkers int, m *metrics.Metrics) *BatchTagger {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &BatchTagger{store: store, tagger: tagger, numWorkers: numWorkers, metrics: m}
}

// Run tags every image in scope. One image's failure never stops the batch;
// its id lands in FailedIDs. Cancelling ctx stops dispatching, waits for the
// images in flight and returns the partial report with ctx's error.
func (b *BatchTagger) Run(ctx context.Context, scope BatchScope, progress ProgressFunc) (BatchReport, error) {
	start := time.Now()
	untaggedOnly := len(scope.ImageIDs) == 0

	images, missing, err := b.selectImages(scope)
	if err != nil {
		return BatchReport{}, err
	}
	total := len(images) + len(missing)
	log.Printf("batch: tagging %d image(s) with %d worker(s)", total, b.numWorkers)

	report := BatchReport{FailedIDs: []uint{}}
	var mu sync.Mutex
	done := 0
	record := func(item ItemProgress) {
		mu.Lock()
		defer mu.Unlock()
		done++
		item.Index = done
		item.Total = total
		report.add(item)
		if progress != nil {
			progress(item)
		}
	}

	for _, id := range missing {
		b.metrics.TagFailed()
		record(ItemProgress{ImageID: id, Outcome: OutcomeFailed, Error: repository.ErrNotFound.Error()})
	}

	jobs := make(chan models.Image)
	var wg sync.WaitGroup
	wg.Add(b.numWorkers)
	for i := 0; i < b.numWorkers; i++ {
		go func() {
			defer wg.Done()
			for img := range jobs {
				record(b.tagOne(ctx, img, untaggedOnly))
			}
		}()
	}

dispatch:
	for _, img := range images {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- img:
		}
	}
	close(jobs)
	wg.Wait()

	b.metrics.BatchFinished(time.Since(start))
	log.Printf("batch: attempted %d, succeeded %d, failed %d, skipped %d (%d mock-sourced) in %v",
		report.Attempted, report.Succeeded, report.Failed, report.Skipped, report.MockSourced, time.Since(start).Round(time.Millisecond))
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// selectImages returns the images to tag and, for an explicit scope, the
// requested ids that match no image.
func (b *BatchTagger) selectImages(scope BatchScope) ([]models.Image, []uint, error) {
	if len(scope.ImageIDs) == 0 {
		images, err := b.store.Images.ListUntagged(scope.Limit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to select untagged images: %w", err)
		}
		return images, nil, nil
	}

	ids := dedupeIDs(scope.ImageIDs)
	if scope.Limit > 0 && len(ids) > scope.Limit {
		ids = ids[:scope.Limit]
	}
	images, err := b.store.Images.GetByIDs(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load images: %w", err)
	}
	found := make(map[uint]bool, len(images))
	for _, img := range images {
		found[img.ID] = true
	}
	var missing []uint
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return images, missing, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// tagOne tags a single image. With untaggedOnly set an image tagged in the
// meantime, for example by a manual edit, is left alone and skipped.
func (b *BatchTagger) tagOne(ctx context.Context, img models.Image, untaggedOnly bool) ItemProgress {
	item := ItemProgress{ImageID: img.ID, Filepath: img.Filepath}

	if !media.IsRasterImage(img.Filename) {
		item.Outcome = OutcomeSkipped
		return item
	}
	if untaggedOnly {
		if _, err := b.store.Tags.GetByImageID(img.ID); err == nil {
			item.Outcome = OutcomeSkipped
			return item
		} else if !errors.Is(err, repository.ErrNotFound) {
			return b.failed(item, err)
		}
	}

	result, err := b.tagger.Tag(ctx, vision.ImageRef{ID: img.ID, Path: img.Filepath})
	if err != nil {
		return b.failed(item, err)
	}

	written, err := b.write(result.Record(img.ID), untaggedOnly)
	if err != nil {
		return b.failed(item, err)
	}
	if !written {
		log.Printf("batch: image %d was tagged while in flight, keeping existing tag", img.ID)
		item.Outcome = OutcomeSkipped
		return item
	}
	b.metrics.TagWritten(result.Source)
	item.Outcome = OutcomeTagged
	item.Source = result.Source
	return item
}

func (b *BatchTagger) write(tag *models.Tag, untaggedOnly bool) (bool, error) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	written := true
	err := b.store.Transaction(func(tx *repository.Store) error {
		if !untaggedOnly {
			return tx.Tags.Upsert(tag)
		}
		var err error
		written, err = tx.Tags.InsertIfAbsent(tag)
		return err
	})
	return written, err
}

func (b *BatchTagger) failed(item ItemProgress, err error) ItemProgress {
	log.Printf("batch: failed to tag image %d (%s): %v", item.ImageID, item.Filepath, err)
	b.metrics.TagFailed()
	item.Outcome = OutcomeFailed
	item.Error = err.Error()
	return item
}
