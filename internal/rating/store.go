// Package rating persists per-image star ratings as sidecar files. A sidecar
// lives at <imagePath>.rating and holds a single ASCII digit 0-5; setting a
// rating back to zero removes the sidecar instead of persisting "0".
package rating

import (
	"os"
	"strconv"
	"strings"

	"culld/internal/errors"
	"culld/internal/log"
	"culld/pkg/types"

	"github.com/google/uuid"
)

// Extension is the suffix appended to the full image filename
const Extension = ".rating"

// SidecarPath returns the sidecar location for an image
func SidecarPath(imagePath string) string {
	return imagePath + Extension
}

// Store reads and writes rating sidecars
type Store struct{}

// NewStore creates a sidecar rating store
func NewStore() *Store {
	return &Store{}
}

// Read returns the persisted stars for an image. A missing, unreadable, or
// unparsable sidecar reports ok=false, never an error: bulk reads over a
// whole collection must not abort on one bad file.
func (s *Store) Read(imagePath string) (int, bool) {
	data, err := os.ReadFile(SidecarPath(imagePath))
	if err != nil {
		if !os.IsNotExist(err) {
			log.LogWithFields(log.F("path", imagePath), log.F("error", err.Error())).Debug("cannot read rating sidecar")
		}
		return 0, false
	}

	text := strings.TrimSpace(string(data))
	stars, err := strconv.Atoi(text)
	if err != nil || stars < 0 || stars > types.MaxStars {
		log.LogWithFields(log.F("path", imagePath), log.F("content", text)).Debug("ignoring malformed rating sidecar")
		return 0, false
	}
	return stars, true
}

// Write persists the stars for an image, clamped to [0,5]. Zero means
// unrated and removes the sidecar. Writes replace the sidecar atomically so
// a concurrent reader never sees a truncated file.
func (s *Store) Write(imagePath string, stars int) error {
	stars = types.ClampStars(stars)
	if stars == 0 {
		return s.Delete(imagePath)
	}

	sidecar := SidecarPath(imagePath)
	tmp := sidecar + "." + uuid.New().String() + ".tmp"
	content := []byte(strconv.Itoa(stars))

	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return errors.NewFileError("cannot write rating sidecar", sidecar, errors.RatingWriteFailed, err)
	}
	if err := os.Rename(tmp, sidecar); err != nil {
		os.Remove(tmp)
		return errors.NewFileError("cannot replace rating sidecar", sidecar, errors.RatingWriteFailed, err)
	}
	return nil
}

// Delete removes the sidecar for an image. A sidecar that does not exist is
// a success.
func (s *Store) Delete(imagePath string) error {
	sidecar := SidecarPath(imagePath)
	if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
		return errors.NewFileError("cannot remove rating sidecar", sidecar, errors.RatingWriteFailed, err)
	}
	return nil
}
