// Package codec implements the image codec the session depends on: probing
// metadata and preview bytes for display, and committing pending transforms
// back to the original file with a durable atomic replace.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"culld/internal/config"
	"culld/internal/errors"
	"culld/internal/log"
	"culld/pkg/types"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Codec decodes, probes, and re-encodes the formats the scanner admits.
// WebP can always be decoded; saving it needs cwebp on the PATH.
type Codec struct {
	preview  config.PreviewSettings
	save     config.SaveSettings
	registry *Registry
}

// New creates a codec. Encoder availability is probed once here.
func New(preview config.PreviewSettings, save config.SaveSettings) *Codec {
	return &Codec{
		preview:  preview,
		save:     save,
		registry: NewRegistry(),
	}
}

// Formats returns the format names this codec can save
func (c *Codec) Formats() []string {
	return c.registry.Available()
}

// Probe decodes the image at path and returns its display metadata: the
// oriented dimensions, content-derived format, byte size, a bounded preview
// JPEG, and camera EXIF data when present.
func (c *Codec) Probe(path string) (*types.ImageMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError("cannot read image", path, errors.ImageUnreadable, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewFileError("unsupported or corrupt image", path, errors.ImageUnreadable, err)
	}

	// Orientation is baked into the pixels here: committed saves drop EXIF,
	// so what the user sees must be what gets written back.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.NewFileError("cannot decode image", path, errors.ImageUnreadable, err)
	}

	meta := &types.ImageMeta{
		Path:      path,
		Format:    format,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		SizeBytes: int64(len(data)),
	}
	attachExif(meta, data)

	fitted := imaging.Fit(img, c.preview.MaxWidth, c.preview.MaxHeight, imaging.Lanczos)
	previewBytes, err := c.registry.Get("jpeg").Encode(fitted, c.preview.Quality)
	if err != nil {
		return nil, errors.NewFileError("cannot build preview", path, errors.ImageUnreadable, err)
	}
	meta.Preview = previewBytes

	return meta, nil
}

// Apply commits the transform to the file at path, re-encoding in the file's
// own format and atomically replacing the original. On any failure the
// original file is untouched. The identity transform is a no-op success.
func (c *Codec) Apply(path string, tr types.Transform) error {
	if tr.IsIdentity() {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewFileError("cannot read image", path, errors.TransformApplyFailed, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return errors.NewFileError("unsupported or corrupt image", path, errors.TransformApplyFailed, err)
	}

	enc := c.registry.Get(format)
	if enc == nil {
		msg := fmt.Sprintf("no %s encoder available", format)
		if format == "webp" {
			msg += ", install cwebp to save webp edits"
		}
		return errors.NewFileError(msg, path, errors.TransformApplyFailed, nil)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return errors.NewFileError("cannot decode image", path, errors.TransformApplyFailed, err)
	}

	encoded, err := enc.Encode(applyTransform(img, tr), c.save.JPEGQuality)
	if err != nil {
		return errors.NewFileError("cannot encode image", path, errors.TransformApplyFailed, err)
	}

	if err := replaceFile(path, encoded); err != nil {
		return errors.NewFileError("cannot replace image", path, errors.TransformApplyFailed, err)
	}

	log.LogWithFields(log.F("path", path), log.F("transform", tr.String())).Debug("transform committed")
	return nil
}

// applyTransform rotates first, then flips horizontally, then vertically.
// Transform rotation counts clockwise while the imaging rotate functions
// count counter-clockwise, so the mapping inverts.
func applyTransform(img image.Image, tr types.Transform) image.Image {
	out := img
	switch types.NormalizeRotation(tr.Rotation) {
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	}
	if tr.FlipH {
		out = imaging.FlipH(out)
	}
	if tr.FlipV {
		out = imaging.FlipV(out)
	}
	return out
}

// attachExif fills in capture time and camera model when the image carries
// EXIF; images without EXIF are fine as they are
func attachExif(meta *types.ImageMeta, data []byte) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	if taken, err := x.DateTime(); err == nil {
		meta.TakenAt = &taken
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			meta.CameraModel = model
		}
	}
}

// replaceFile writes data to a temp file in the target directory, syncs it,
// and renames it over path, keeping the original's permissions. The original
// survives byte-identical unless the rename itself succeeds.
func replaceFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := filepath.Join(filepath.Dir(path), ".culld-"+uuid.New().String()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	// OpenFile's mode passes through the umask; restate it so the replacement
	// really carries the original's permissions.
	if err := f.Chmod(mode); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
