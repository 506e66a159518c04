package testutils

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// CreateTestFilesWithContent creates test files with specific content
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// NewTestImage returns a deterministic gradient image so decoded pixels can
// be compared across encode/decode round trips
func NewTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: 180,
				A: 255,
			})
		}
	}
	return img
}

// NewQuadImage returns a 2x2 image with distinct corner colors:
// (0,0) red, (1,0) green, (0,1) blue, (1,1) white. Rotation and flip tests
// assert on where these corners end up.
func NewQuadImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

// WriteImage encodes img into path with the format implied by the extension
func WriteImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".jpg", ".jpeg":
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
	case ".gif":
		require.NoError(t, gif.Encode(f, img, nil))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	case ".tiff", ".tif":
		require.NoError(t, tiff.Encode(f, img, nil))
	default:
		t.Fatalf("unsupported test image extension: %s", path)
	}
}

// WritePNG writes a gradient PNG into dir and returns its path
func WritePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	WriteImage(t, path, NewTestImage(width, height))
	return path
}

// WriteJPEG writes a gradient JPEG into dir and returns its path
func WriteJPEG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	WriteImage(t, path, NewTestImage(width, height))
	return path
}

// WriteSidecar writes a rating sidecar next to imagePath and returns the
// sidecar path
func WriteSidecar(t *testing.T, imagePath, content string) string {
	t.Helper()
	path := imagePath + ".rating"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var result []rune
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result = append(result, r)
	}
	return string(result)
}
