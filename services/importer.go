package services

import (
	"context"
	"fmt"
	"iter"
	"log"
	"time"

	"github.com/camden-git/rostertagger/media"
	"github.com/camden-git/rostertagger/metrics"
	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/patrickmn/go-cache"
)

// ImportSummary counts the outcome of one import run
type ImportSummary struct {
	Imported         int `json:"imported"`
	SkippedDuplicate int `json:"skipped_duplicate"`
	ProfilesCreated  int `json:"profiles_created"`
}

// Importer persists scanned candidates. It never touches the filesystem.
type Importer struct {
	store   *repository.Store
	metrics *metrics.Metrics
	// usernames whose profile row is known to be committed during the current run
	profiles *cache.Cache
	now      func() time.Time
}

// NewImporter creates an importer over store. m may be nil.
func NewImporter(store *repository.Store, m *metrics.Metrics) *Importer {
	return &Importer{
		store:    store,
		metrics:  m,
		profiles: cache.New(cache.NoExpiration, 0),
		now:      time.Now,
	}
}

// Import stores each candidate in its own transaction: the profile is
// ensured and the image inserted unless its filepath is already known.
// A store failure stops the run; the summary then covers the candidates
// committed before it.
func (im *Importer) Import(ctx context.Context, candidates iter.Seq[media.Candidate]) (ImportSummary, error) {
	var summary ImportSummary
	im.profiles.Flush()

	for c := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		_, cached := im.profiles.Get(c.Username)
		inserted, created, err := im.importOne(c, !cached)
		if err != nil && cached {
			// the profile may have been renamed or removed since it was cached
			im.profiles.Delete(c.Username)
			inserted, created, err = im.importOne(c, true)
		}
		if err != nil {
			log.Printf("importer: failed to import %s: %v", c.Filepath, err)
			return summary, fmt.Errorf("failed to import %s: %w", c.Filepath, err)
		}
		if created {
			summary.ProfilesCreated++
			im.metrics.ProfileCreated()
		}
		if inserted {
			summary.Imported++
			im.metrics.ImageImported()
		} else {
			summary.SkippedDuplicate++
			im.metrics.DuplicateSkipped()
		}
	}

	log.Printf("importer: %d imported, %d duplicates skipped, %d profiles created",
		summary.Imported, summary.SkippedDuplicate, summary.ProfilesCreated)
	return summary, nil
}

func (im *Importer) importOne(c media.Candidate, ensureProfile bool) (inserted, created bool, err error) {
	err = im.store.Transaction(func(tx *repository.Store) error {
		if ensureProfile {
			created, err = tx.Profiles.EnsureExists(c.Username)
			if err != nil {
				return err
			}
		}
		inserted, err = tx.Images.InsertIfAbsent(&models.Image{
			Filename:  c.Filename,
			Filepath:  c.Filepath,
			Username:  c.Username,
			DateAdded: im.now(),
		})
		return err
	})
	if err != nil {
		return false, false, err
	}
	im.profiles.Set(c.Username, struct{}{}, cache.NoExpiration)
	return inserted, created, nil
}

// FolderReport combines the scan counters and the import summary of one folder
type FolderReport struct {
	Root   string          `json:"root"`
	Scan   media.ScanStats `json:"scan"`
	Import ImportSummary   `json:"import"`
}

// ImportFolder scans root and imports what it finds. A missing root or a
// root that is not a directory fails before anything is written.
func (im *Importer) ImportFolder(ctx context.Context, root string) (FolderReport, error) {
	report := FolderReport{Root: root}
	scanner, err := media.NewScanner(root)
	if err != nil {
		return report, err
	}
	candidates, err := scanner.Scan(&report.Scan)
	if err != nil {
		return report, err
	}

	report.Import, err = im.Import(ctx, candidates)
	im.metrics.ParseFailures(report.Scan.ParseFailures)
	for _, f := range report.Scan.Failures {
		log.Printf("importer: skipped %s: %s", f.Filename, f.Reason)
	}
	return report, err
}
