// Package scan discovers the images under a folder and fixes their viewing
// order. Scans are pure reads: no file is created, modified, or deleted.
package scan

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"culld/internal/config"
	"culld/internal/errors"
	"culld/internal/log"

	"github.com/gobwas/glob"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// imageExtensions is the allow-list of file extensions treated as images
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// IsImagePath reports whether the path carries a supported image extension
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scanner walks folders recursively and returns their images in display
// order: case-insensitive, numeric-aware comparison of the file name, with
// the full path as tiebreak.
type Scanner struct {
	excludes   []glob.Glob
	skipHidden bool
	collator   *collate.Collator
}

// New creates a scanner from scan settings. Exclude patterns are compiled
// once here.
func New(settings config.ScanSettings) (*Scanner, error) {
	excludes := make([]glob.Glob, 0, len(settings.Excludes))
	for _, pattern := range settings.Excludes {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.NewConfigError("invalid exclude pattern", "scan.excludes", errors.InvalidConfig, err)
		}
		excludes = append(excludes, g)
	}
	return &Scanner{
		excludes:   excludes,
		skipHidden: settings.SkipHidden,
		collator:   collate.New(language.Und, collate.IgnoreCase, collate.Numeric),
	}, nil
}

// Scan returns the absolute paths of all images under root, sorted for
// display. The root must be an existing, readable directory; unreadable
// subdirectories are logged and skipped.
func (s *Scanner) Scan(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewFileError("cannot resolve folder", root, errors.NotADirectory, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileError("folder does not exist", root, errors.NotADirectory, err)
		}
		if os.IsPermission(err) {
			return nil, errors.NewFileError("cannot access folder", root, errors.PermissionDenied, err)
		}
		return nil, errors.NewFileError("cannot access folder", root, errors.NotADirectory, err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileError("not a directory", root, errors.NotADirectory, nil)
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				// The scan root itself must be readable
				if os.IsPermission(err) {
					return errors.NewFileError("cannot read folder", root, errors.PermissionDenied, err)
				}
				return errors.NewFileError("cannot read folder", root, errors.NotADirectory, err)
			}
			log.LogWithFields(log.F("path", path), log.F("error", err.Error())).Warn("skipping unreadable directory")
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if s.skipHidden && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if s.excluded(root, path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.skipHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !IsImagePath(path) {
			return nil
		}
		if s.excluded(root, path, d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	s.sortForDisplay(files)

	log.LogWithFields(log.F("directory", root), log.F("count", len(files))).Debug("scan complete")
	return files, nil
}

// excluded matches the path, relative to the scan root, and its base name
// against the configured exclude patterns
func (s *Scanner) excluded(root, path, name string) bool {
	if len(s.excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)
	for _, g := range s.excludes {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

// sortForDisplay orders paths by collation key of the base name. Keys are
// precomputed so large folders sort in O(n log n) comparisons over bytes.
func (s *Scanner) sortForDisplay(files []string) {
	buf := new(collate.Buffer)
	keys := make([][]byte, len(files))
	for i, path := range files {
		keys[i] = s.collator.KeyFromString(buf, filepath.Base(path))
	}
	sort.Sort(&byDisplayOrder{files: files, keys: keys})
}

type byDisplayOrder struct {
	files []string
	keys  [][]byte
}

func (b *byDisplayOrder) Len() int { return len(b.files) }

func (b *byDisplayOrder) Swap(i, j int) {
	b.files[i], b.files[j] = b.files[j], b.files[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

func (b *byDisplayOrder) Less(i, j int) bool {
	if c := bytes.Compare(b.keys[i], b.keys[j]); c != 0 {
		return c < 0
	}
	// Equal names under the collation (case variants, same numbers):
	// fall back to the full path so the order stays deterministic
	return b.files[i] < b.files[j]
}
