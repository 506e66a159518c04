package scan_test

import (
	"os"
	"path/filepath"
	"testing"

	"culld/internal/config"
	"culld/internal/errors"
	"culld/internal/scan"
	"culld/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanner(t *testing.T, settings config.ScanSettings) *scan.Scanner {
	t.Helper()
	s, err := scan.New(settings)
	require.NoError(t, err)
	return s
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func TestScanOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"img10.png": "x",
		"img1.png":  "x",
		"IMG3.png":  "x",
		"img2.png":  "x",
	})

	files, err := newScanner(t, config.ScanSettings{}).Scan(dir)
	require.NoError(t, err)

	// Numeric runs compare by value and case is ignored, so 2 < 3 < 10
	assert.Equal(t, []string{"img1.png", "img2.png", "IMG3.png", "img10.png"}, baseNames(files))
}

func TestScanOrderIsStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"b.png":      "x",
		"a.png":      "x",
		"c.png":      "x",
		"sub/a.png":  "x",
		"sub2/a.png": "x",
	})

	s := newScanner(t, config.ScanSettings{})
	first, err := s.Scan(dir)
	require.NoError(t, err)
	second, err := s.Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Same base name in different folders: the full path breaks the tie
	assert.Equal(t, []string{"a.png", "a.png", "a.png", "b.png", "c.png"}, baseNames(first))
	assert.Equal(t, filepath.Join(dir, "a.png"), first[0])
	assert.Equal(t, filepath.Join(dir, "sub", "a.png"), first[1])
	assert.Equal(t, filepath.Join(dir, "sub2", "a.png"), first[2])
}

func TestScanFiltersNonImages(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"photo.jpg":        "x",
		"photo.jpg.rating": "4",
		"notes.txt":        "x",
		"clip.mp4":         "x",
		"pic.JPEG":         "x",
		"art.webp":         "x",
		"scan.tif":         "x",
	})

	files, err := newScanner(t, config.ScanSettings{}).Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"art.webp", "photo.jpg", "pic.JPEG", "scan.tif"}, baseNames(files))
}

func TestScanRecursesIntoSubfolders(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"zeta.png":            "x",
		"trip/alpha.jpg":      "x",
		"trip/nested/mid.gif": "x",
	})

	files, err := newScanner(t, config.ScanSettings{}).Scan(dir)
	require.NoError(t, err)

	// Ordering uses the base name only, so subfolder files interleave
	assert.Equal(t, []string{"alpha.jpg", "mid.gif", "zeta.png"}, baseNames(files))
	assert.Equal(t, filepath.Join(dir, "trip", "alpha.jpg"), files[0])
}

func TestScanHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"normal.png":        "x",
		".thumbs/cache.png": "x",
		".hidden.png":       "x",
	})

	// Included by default
	files, err := newScanner(t, config.ScanSettings{}).Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	// Skipped when configured
	files, err = newScanner(t, config.ScanSettings{SkipHidden: true}).Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"normal.png"}, baseNames(files))
}

func TestScanExcludes(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"keep.png":         "x",
		"shot_backup.png":  "x",
		"edits/redone.png": "x",
	})

	settings := config.ScanSettings{Excludes: []string{"edits", "*_backup.png"}}
	files, err := newScanner(t, settings).Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.png"}, baseNames(files))
}

func TestScanRejectsBadRoots(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing folder", func(t *testing.T) {
		_, err := newScanner(t, config.ScanSettings{}).Scan(filepath.Join(dir, "gone"))
		require.Error(t, err)
		assert.True(t, errors.IsNotADirectory(err))
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(dir, "solo.png")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		_, err := newScanner(t, config.ScanSettings{}).Scan(file)
		require.Error(t, err)
		assert.True(t, errors.IsNotADirectory(err))
	})
}

func TestScanEmptyFolder(t *testing.T) {
	files, err := newScanner(t, config.ScanSettings{}).Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanSkipsUnreadableSubfolder(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"open.png":          "x",
		"locked/hidden.png": "x",
	})
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	// The scan tolerates the unreadable subfolder and keeps going
	files, err := newScanner(t, config.ScanSettings{}).Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"open.png"}, baseNames(files))
}

func TestScanBadExcludePattern(t *testing.T) {
	_, err := scan.New(config.ScanSettings{Excludes: []string{"["}})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestIsImagePath(t *testing.T) {
	assert.True(t, scan.IsImagePath("/p/a.jpg"))
	assert.True(t, scan.IsImagePath("/p/a.JPG"))
	assert.True(t, scan.IsImagePath("a.webp"))
	assert.False(t, scan.IsImagePath("/p/a.jpg.rating"))
	assert.False(t, scan.IsImagePath("/p/a.txt"))
	assert.False(t, scan.IsImagePath("/p/noext"))
}
