package media

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/facette/natsort"
)

// ErrRootNotDirectory is returned when the scan root exists but is not a directory.
var ErrRootNotDirectory = errors.New("scan root is not a directory")

// MaxRecordedFailures caps ScanStats.Failures; ParseFailures keeps counting past it.
const MaxRecordedFailures = 100

// ScanStats counts what a scan saw. It is reset at the start of every walk.
type ScanStats struct {
	Files         int                `json:"files"`
	Candidates    int                `json:"candidates"`
	Unsupported   int                `json:"unsupported"`
	ParseFailures int                `json:"parse_failures"`
	Unreadable    int                `json:"unreadable"`
	Failures      []*ExtractionError `json:"-"`
}

// Resolver maps a slash-separated path relative to the scan root onto the
// canonical path stored as an image's natural key.
type Resolver func(name string) (string, error)

// Scanner walks a directory tree and yields import candidates.
type Scanner struct {
	fsys    fs.FS
	resolve Resolver
}

// NewScanner creates a scanner over a directory on disk. A missing root or a
// root that is not a directory is reported here, before anything is walked.
func NewScanner(root string) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for scan root '%s': %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, absRoot)
	}
	return NewFSScanner(os.DirFS(absRoot), diskResolver(absRoot)), nil
}

// NewFSScanner creates a scanner over an arbitrary filesystem. With a nil
// resolver candidates carry the cleaned, slash-rooted path within fsys.
func NewFSScanner(fsys fs.FS, resolve Resolver) *Scanner {
	if resolve == nil {
		resolve = func(name string) (string, error) {
			return path.Join("/", name), nil
		}
	}
	return &Scanner{fsys: fsys, resolve: resolve}
}

// diskResolver follows symlinks so the same file reached twice gets one key
func diskResolver(absRoot string) Resolver {
	return func(name string) (string, error) {
		full := filepath.Join(absRoot, filepath.FromSlash(name))
		resolved, err := filepath.EvalSymlinks(full)
		if err != nil {
			return "", err
		}
		return filepath.Abs(resolved)
	}
}

// Scan validates the root and returns a lazy sequence of candidates. Every
// iteration re-walks the tree and resets stats, which may be nil. Unreadable
// directories and files are counted and skipped.
func (s *Scanner) Scan(stats *ScanStats) (iter.Seq[Candidate], error) {
	info, err := fs.Stat(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrRootNotDirectory
	}
	if stats == nil {
		stats = &ScanStats{}
	}

	return func(yield func(Candidate) bool) {
		*stats = ScanStats{}
		s.walkDir(".", stats, yield)
	}, nil
}

// walkDir returns false once the consumer stops iterating
func (s *Scanner) walkDir(dir string, stats *ScanStats, yield func(Candidate) bool) bool {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		log.Printf("scanner: skipping unreadable directory %s: %v", dir, err)
		stats.Unreadable++
		return true
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return natsort.Compare(entries[i].Name(), entries[j].Name())
	})

	for _, entry := range entries {
		name := path.Join(dir, entry.Name())
		mode := entry.Type()

		switch {
		case mode.IsDir():
			if !s.walkDir(name, stats, yield) {
				return false
			}
		case mode&fs.ModeSymlink != 0:
			target, err := fs.Stat(s.fsys, name)
			if err != nil {
				log.Printf("scanner: skipping dangling link %s: %v", name, err)
				stats.Unreadable++
				continue
			}
			// linked directories are not followed, which keeps link cycles out of the walk
			if !target.Mode().IsRegular() {
				continue
			}
			if !s.visitFile(name, entry.Name(), stats, yield) {
				return false
			}
		case mode.IsRegular():
			if !s.visitFile(name, entry.Name(), stats, yield) {
				return false
			}
		}
	}
	return true
}

func (s *Scanner) visitFile(name, base string, stats *ScanStats, yield func(Candidate) bool) bool {
	stats.Files++
	if !IsSupported(base) {
		stats.Unsupported++
		return true
	}

	username, err := ExtractUsername(base)
	if err != nil {
		var extractErr *ExtractionError
		if errors.As(err, &extractErr) && len(stats.Failures) < MaxRecordedFailures {
			stats.Failures = append(stats.Failures, extractErr)
		}
		stats.ParseFailures++
		return true
	}

	resolved, err := s.resolve(name)
	if err != nil {
		log.Printf("scanner: skipping unresolvable file %s: %v", name, err)
		stats.Unreadable++
		return true
	}

	stats.Candidates++
	return yield(Candidate{Filename: base, Filepath: resolved, Username: username})
}
