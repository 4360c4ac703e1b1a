package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/camden-git/rostertagger/media"
	"github.com/camden-git/rostertagger/repository"
)

// UsernameChange is one image whose stored username differs from a fresh extraction
type UsernameChange struct {
	ImageID  uint   `json:"image_id"`
	Filepath string `json:"filepath"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// MigrationReport summarizes a username re-extraction pass
type MigrationReport struct {
	DryRun          bool             `json:"dry_run"`
	Scanned         int              `json:"scanned"`
	Reassigned      int              `json:"reassigned"`
	Unparseable     int              `json:"unparseable"`
	ProfilesCreated int              `json:"profiles_created"`
	ProfilesRemoved int              `json:"profiles_removed"`
	BackupPath      string           `json:"backup_path,omitempty"`
	Changes         []UsernameChange `json:"changes,omitempty"`
}

// ErrBackupFailed is returned when Apply could not copy the database first.
var ErrBackupFailed = errors.New("database backup failed")

// UsernameMigrator re-derives stored usernames with the current extraction rules
type UsernameMigrator struct {
	store *repository.Store
}

func NewUsernameMigrator(store *repository.Store) *UsernameMigrator {
	return &UsernameMigrator{store: store}
}

// Migrate recomputes every image's username from its filename and moves
// images whose profile changed. Profiles left without images are removed.
// With dryRun set nothing is written and the report shows what would happen.
func (m *UsernameMigrator) Migrate(ctx context.Context, dryRun bool) (MigrationReport, error) {
	report := MigrationReport{DryRun: dryRun}

	summaries, err := m.store.Profiles.ListWithCounts()
	if err != nil {
		return report, fmt.Errorf("failed to list profiles: %w", err)
	}
	remaining := make(map[string]int, len(summaries))
	for _, s := range summaries {
		remaining[s.Username] = int(s.ImageCount)
	}

	images, err := m.store.Images.ListAll()
	if err != nil {
		return report, fmt.Errorf("failed to list images: %w", err)
	}

	vacated := make(map[string]bool)
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		username, err := media.ExtractUsername(img.Filename)
		if err != nil {
			report.Unparseable++
			log.Printf("migrate: keeping %s under %q: %v", img.Filepath, img.Username, err)
			continue
		}
		if username == img.Username {
			continue
		}

		change := UsernameChange{ImageID: img.ID, Filepath: img.Filepath, From: img.Username, To: username}
		if _, exists := remaining[username]; !exists {
			report.ProfilesCreated++
		}
		if !dryRun {
			if err := m.reassign(change); err != nil {
				return report, err
			}
		}
		remaining[change.From]--
		remaining[change.To]++
		vacated[change.From] = true
		report.Reassigned++
		report.Changes = append(report.Changes, change)
	}

	names := make([]string, 0, len(vacated))
	for name := range vacated {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if remaining[name] > 0 {
			continue
		}
		if dryRun {
			report.ProfilesRemoved++
			continue
		}
		removed, err := m.store.Profiles.DeleteIfEmpty(name)
		if err != nil {
			return report, fmt.Errorf("failed to remove profile %s: %w", name, err)
		}
		if removed {
			report.ProfilesRemoved++
		}
	}

	log.Printf("migrate: scanned %d, reassigned %d, unparseable %d, profiles +%d -%d (dry run: %v)",
		report.Scanned, report.Reassigned, report.Unparseable, report.ProfilesCreated, report.ProfilesRemoved, dryRun)
	return report, nil
}

// Apply copies the database to backupPath and then migrates for real.
// Without a backup the migration is refused unless force is set.
func (m *UsernameMigrator) Apply(ctx context.Context, backupPath string, force bool) (MigrationReport, error) {
	if err := m.store.Backup(backupPath); err != nil {
		if !force {
			return MigrationReport{}, fmt.Errorf("%w: %v", ErrBackupFailed, err)
		}
		log.Printf("migrate: continuing without a backup: %v", err)
		backupPath = ""
	} else {
		log.Printf("migrate: database backed up to %s", backupPath)
	}

	report, err := m.Migrate(ctx, false)
	report.BackupPath = backupPath
	return report, err
}

func (m *UsernameMigrator) reassign(change UsernameChange) error {
	err := m.store.Transaction(func(tx *repository.Store) error {
		if _, err := tx.Profiles.EnsureExists(change.To); err != nil {
			return err
		}
		return tx.Images.UpdateUsername(change.ImageID, change.To)
	})
	if err != nil {
		return fmt.Errorf("failed to move image %d to %s: %w", change.ImageID, change.To, err)
	}
	return nil
}
