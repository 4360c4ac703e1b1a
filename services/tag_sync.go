package services

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/vision"
	"gopkg.in/yaml.v3"
)

const sidecarVersion = 1

// SidecarEntry is the on-disk form of one image's tags
type SidecarEntry struct {
	Filepath string         `yaml:"filepath"`
	Username string         `yaml:"username,omitempty"`
	Source   string         `yaml:"source,omitempty"`
	Tags     vision.RawTags `yaml:"tags"`
}

// Sidecar is a tag export that operators may edit and import again
type Sidecar struct {
	Version int            `yaml:"version"`
	Images  []SidecarEntry `yaml:"images"`
}

// SyncReport summarizes a sidecar import
type SyncReport struct {
	Applied      int      `json:"applied"`
	Unchanged    int      `json:"unchanged"`
	Unknown      int      `json:"unknown"`
	UnknownPaths []string `json:"unknown_paths,omitempty"`
}

// TagSync exports tags to a YAML sidecar and reconciles edits made to it
type TagSync struct {
	store *repository.Store
}

func NewTagSync(store *repository.Store) *TagSync {
	return &TagSync{store: store}
}

// Export writes every stored tag, ordered by filepath.
func (s *TagSync) Export(w io.Writer) (int, error) {
	tagged, err := s.store.Tags.ListWithPaths()
	if err != nil {
		return 0, fmt.Errorf("failed to list tags: %w", err)
	}
	doc := Sidecar{Version: sidecarVersion, Images: make([]SidecarEntry, 0, len(tagged))}
	for _, t := range tagged {
		doc.Images = append(doc.Images, SidecarEntry{
			Filepath: t.Filepath,
			Username: t.Username,
			Source:   t.Source,
			Tags:     vision.TagSetOf(&t.Tag).Raw(),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return 0, fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("failed to encode sidecar: %w", err)
	}
	return len(doc.Images), nil
}

// Import applies a sidecar. Values are coerced through the vocabulary, only
// rows that differ are written (as manual edits) and entries for unknown
// filepaths are reported, never created. The whole import is one transaction.
func (s *TagSync) Import(r io.Reader) (SyncReport, error) {
	var doc Sidecar
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return SyncReport{}, fmt.Errorf("failed to decode sidecar: %w", err)
	}
	if doc.Version > sidecarVersion {
		return SyncReport{}, fmt.Errorf("unsupported sidecar version %d", doc.Version)
	}

	var report SyncReport
	err := s.store.Transaction(func(tx *repository.Store) error {
		for _, entry := range doc.Images {
			img, err := tx.Images.GetByPath(entry.Filepath)
			if errors.Is(err, repository.ErrNotFound) {
				report.Unknown++
				report.UnknownPaths = append(report.UnknownPaths, entry.Filepath)
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to look up %s: %w", entry.Filepath, err)
			}

			tags := vision.Normalize(entry.Tags)
			existing, err := tx.Tags.GetByImageID(img.ID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("failed to load tags for %s: %w", entry.Filepath, err)
			}
			if existing != nil && vision.TagSetOf(existing) == tags {
				report.Unchanged++
				continue
			}

			tag := vision.Result{Tags: tags, Source: models.TagSourceManual}.Record(img.ID)
			if err := tx.Tags.Upsert(tag); err != nil {
				return fmt.Errorf("failed to save tags for %s: %w", entry.Filepath, err)
			}
			report.Applied++
		}
		return nil
	})
	if err != nil {
		return SyncReport{}, err
	}

	if report.Unknown > 0 {
		log.Printf("tagsync: %d sidecar entries match no stored image", report.Unknown)
	}
	return report, nil
}
