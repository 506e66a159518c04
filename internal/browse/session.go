// Package browse implements the collection and edit-state core: one open
// folder, the ordered list of its images, a cursor, the pending transform for
// the current image, and the in-memory rating cache. Presentation layers (the
// TUI, the HTTP mirror, one-shot CLI commands) drive a Session and never
// touch image files themselves.
package browse

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"culld/internal/errors"
	"culld/internal/log"
	"culld/pkg/types"
)

// Scanner lists the image files under a root in display order.
type Scanner interface {
	Scan(root string) ([]string, error)
}

// RatingStore reads and writes rating sidecars.
type RatingStore interface {
	Read(imagePath string) (stars int, ok bool)
	Write(imagePath string, stars int) error
	Delete(imagePath string) error
}

// Codec decodes image metadata and applies committed transforms to disk.
type Codec interface {
	Probe(path string) (*types.ImageMeta, error)
	Apply(path string, tr types.Transform) error
}

// State reports whether a session has images to show.
type State int

const (
	// Empty means no folder is loaded, or the collection ran out of images.
	Empty State = iota
	// Viewing means the cursor points at a current image.
	Viewing
)

func (s State) String() string {
	if s == Viewing {
		return "viewing"
	}
	return "empty"
}

// Entry is one image in the collection. The path doubles as its identity.
type Entry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// EntryView pairs an entry with its cached rating for listings.
type EntryView struct {
	Entry
	Rating types.Rating `json:"rating"`
}

// View is everything a presentation layer needs to show the current image.
type View struct {
	Meta    *types.ImageMeta `json:"meta"`
	Rating  types.Rating     `json:"rating"`
	Pending types.Transform  `json:"pending"`
	Cursor  int              `json:"cursor"`
	Count   int              `json:"count"`
}

// Snapshot is a point-in-time copy of the whole session state.
type Snapshot struct {
	Root    string          `json:"root"`
	State   string          `json:"state"`
	Cursor  int             `json:"cursor"`
	Count   int             `json:"count"`
	Pending types.Transform `json:"pending"`
	Entries []EntryView     `json:"entries"`
}

// Session owns the collection, cursor, pending transform, and rating cache
// for one folder. Every method takes the one session mutex for its full
// duration, commits included, so overlapping callers (TUI loop, HTTP mirror)
// are serialized rather than interleaved.
type Session struct {
	mu      sync.Mutex
	scanner Scanner
	ratings RatingStore
	codec   Codec

	root    string
	entries []Entry
	cursor  int
	pending types.Transform
	cache   map[string]types.Rating
}

// NewSession creates a session around its three collaborators.
func NewSession(scanner Scanner, ratings RatingStore, codec Codec) *Session {
	return &Session{
		scanner: scanner,
		ratings: ratings,
		codec:   codec,
		cache:   make(map[string]types.Rating),
	}
}

// LoadFolder scans root and replaces the collection with the result. On
// success the cursor sits on the first image, the pending transform is reset,
// and the rating cache is rebuilt from sidecars; ratings read back for every
// image, so an image without a sidecar shows as unrated rather than unknown.
// On failure the previous session state is kept untouched. Returns the number
// of images found.
func (s *Session) LoadFolder(root string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.scanner.Scan(root)
	if err != nil {
		return 0, err
	}
	if abs, absErr := filepath.Abs(root); absErr == nil {
		root = abs
	}

	entries := make([]Entry, len(files))
	cache := make(map[string]types.Rating, len(files))
	for i, path := range files {
		entries[i] = newEntry(path)
		stars, _ := s.ratings.Read(path)
		cache[path] = types.Rating{Known: true, Stars: stars}
	}

	s.root = root
	s.entries = entries
	s.cursor = 0
	s.pending = types.Transform{}
	s.cache = cache

	log.LogWithFields(log.F("root", root), log.F("images", len(entries))).Info("collection loaded")
	return len(entries), nil
}

// LoadCurrent decodes the current image and returns its view. On decode
// failure the cursor stays put and the cached rating for the image resets to
// unknown; the next successful load re-reads the sidecar and restores it.
func (s *Session) LoadCurrent() (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil, errors.ErrEmptyCollection
	}

	path := s.entries[s.cursor].Path
	meta, err := s.codec.Probe(path)
	if err != nil {
		s.cache[path] = types.Rating{}
		return nil, err
	}
	rating := s.cache[path]
	if !rating.Known {
		stars, _ := s.ratings.Read(path)
		rating = types.Rating{Known: true, Stars: stars}
		s.cache[path] = rating
	}
	return &View{
		Meta:    meta,
		Rating:  rating,
		Pending: s.pending,
		Cursor:  s.cursor,
		Count:   len(s.entries),
	}, nil
}

// Rotate adds delta degrees (clockwise, any multiple of 90, negative allowed)
// to the pending transform and returns the updated transform. Nothing touches
// disk until a commit.
func (s *Session) Rotate(delta int) (types.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return types.Transform{}, errors.ErrEmptyCollection
	}
	if delta%90 != 0 {
		return s.pending, errors.Newf("rotation must be a multiple of 90 degrees, got %d", delta)
	}
	s.pending = s.pending.Rotate(delta)
	return s.pending, nil
}

// FlipHorizontal toggles the left-right mirror on the pending transform.
func (s *Session) FlipHorizontal() (types.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return types.Transform{}, errors.ErrEmptyCollection
	}
	s.pending.FlipH = !s.pending.FlipH
	return s.pending, nil
}

// FlipVertical toggles the top-bottom mirror on the pending transform.
func (s *Session) FlipVertical() (types.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return types.Transform{}, errors.ErrEmptyCollection
	}
	s.pending.FlipV = !s.pending.FlipV
	return s.pending, nil
}

// DiscardPending resets the pending transform to identity and returns what
// was discarded.
func (s *Session) DiscardPending() types.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	discarded := s.pending
	s.pending = types.Transform{}
	return discarded
}

// Navigate commits any pending transform to the current image, then moves the
// cursor one step. The two parts are all-or-nothing: when the commit fails
// the cursor does not move and the pending transform is preserved for a retry
// or an explicit discard. Moving past either end returns ErrAtBoundary with
// nothing changed. Returns the new cursor position; the caller follows up
// with LoadCurrent to show the image it landed on.
func (s *Session) Navigate(dir types.Direction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return 0, errors.ErrEmptyCollection
	}
	target := s.cursor + dir.Offset()
	if target < 0 || target >= len(s.entries) {
		return s.cursor, errors.ErrAtBoundary
	}
	if !s.pending.IsIdentity() {
		path := s.entries[s.cursor].Path
		if err := s.codec.Apply(path, s.pending); err != nil {
			return s.cursor, err
		}
		log.LogWithFields(
			log.F("path", path),
			log.F("transform", s.pending.String()),
		).Debug("saved edits before moving")
	}
	s.pending = types.Transform{}
	s.cursor = target
	return s.cursor, nil
}

// Skip moves forward one image without saving; pending edits are dropped on
// the floor. No disk write happens even when edits are pending.
func (s *Session) Skip() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return 0, errors.ErrEmptyCollection
	}
	if s.cursor+1 >= len(s.entries) {
		return s.cursor, errors.ErrAtBoundary
	}
	s.pending = types.Transform{}
	s.cursor++
	return s.cursor, nil
}

// Commit writes the pending transform into the current image file. An
// identity transform is a successful no-op that never touches the file.
// Unlike Navigate, a standalone commit keeps the pending transform so the
// caller can inspect what was saved and discard it explicitly; a failed
// commit also preserves it, and the file on disk stays byte-identical.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return errors.ErrEmptyCollection
	}
	if s.pending.IsIdentity() {
		return nil
	}
	return s.codec.Apply(s.entries[s.cursor].Path, s.pending)
}

// SetRating persists stars for the current image, clamped to the valid
// range; zero removes the sidecar. The cache is updated only after the write
// succeeded, so a failed write leaves the previous rating visible.
func (s *Session) SetRating(stars int) (types.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return types.Rating{}, errors.ErrEmptyCollection
	}
	path := s.entries[s.cursor].Path
	clamped := types.ClampStars(stars)
	if err := s.ratings.Write(path, clamped); err != nil {
		return s.cache[path], err
	}
	rated := types.Rating{Known: true, Stars: clamped}
	s.cache[path] = rated
	return rated, nil
}

// DeleteCurrent removes the current image file and drops it from the
// collection. The sidecar removal is best-effort: a leftover sidecar is
// logged, never fatal. On success the cursor keeps its position, clamped to
// the new last image when the tail was deleted, and pending edits for the
// removed image are dropped. Deleting the only image empties the session.
func (s *Session) DeleteCurrent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return errors.ErrEmptyCollection
	}
	path := s.entries[s.cursor].Path
	// A file already gone counts as deleted; the entry must not linger.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewFileError("could not delete image", path, errors.DeleteFailed, err)
	}
	if err := s.ratings.Delete(path); err != nil {
		log.LogWithError(err).Warn("image deleted but its rating sidecar remains")
	}

	s.entries = append(s.entries[:s.cursor], s.entries[s.cursor+1:]...)
	delete(s.cache, path)
	s.pending = types.Transform{}
	if s.cursor >= len(s.entries) {
		s.cursor = len(s.entries) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}

	log.LogWithFields(log.F("path", path), log.F("remaining", len(s.entries))).Info("deleted image")
	return nil
}

// State reports Empty until a folder with at least one image is loaded.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return Empty
	}
	return Viewing
}

// Cursor returns the current position, meaningful only while Viewing.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Len returns the number of images in the collection.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Root returns the loaded folder, or "" before the first successful load.
func (s *Session) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Current returns the entry under the cursor.
func (s *Session) Current() (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return Entry{}, errors.ErrEmptyCollection
	}
	return s.entries[s.cursor], nil
}

// Pending returns the uncommitted transform for the current image.
func (s *Session) Pending() types.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// RatingFor returns the cached rating for an image path. The zero value
// means the rating has not been checked, or its last load failed.
func (s *Session) RatingFor(path string) types.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[path]
}

// Entries returns a copy of the collection in display order.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Snapshot returns a consistent copy of the full session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]EntryView, len(s.entries))
	for i, e := range s.entries {
		entries[i] = EntryView{Entry: e, Rating: s.cache[e.Path]}
	}
	state := Viewing
	if len(s.entries) == 0 {
		state = Empty
	}
	return Snapshot{
		Root:    s.root,
		State:   state.String(),
		Cursor:  s.cursor,
		Count:   len(s.entries),
		Pending: s.pending,
		Entries: entries,
	}
}

func newEntry(path string) Entry {
	name := filepath.Base(path)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return Entry{Path: path, Name: name, Ext: ext}
}
