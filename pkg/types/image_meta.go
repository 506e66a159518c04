package types

import (
	"path/filepath"
	"time"
)

// ImageMeta is what the codec learns about an image when probing it. The
// preview carries re-encoded JPEG bytes bounded by the configured preview
// size; it is never written back to disk.
type ImageMeta struct {
	Path        string     `json:"path"`
	Format      string     `json:"format"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	SizeBytes   int64      `json:"size_bytes"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	CameraModel string     `json:"camera_model,omitempty"`
	Preview     []byte     `json:"-"`
}

// Name returns the base name of the image file
func (m *ImageMeta) Name() string {
	return filepath.Base(m.Path)
}
