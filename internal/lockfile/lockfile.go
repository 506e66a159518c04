// Package lockfile keeps two culld instances from editing the same folder at
// once. Each folder gets one lock file under the user cache directory, named
// by a hash of the folder's absolute path, held with an advisory flock for
// the lifetime of the interactive session.
package lockfile

import (
	"os"
	"path/filepath"
	"strconv"

	"culld/internal/errors"
	"culld/internal/log"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

// Lock guards one folder against concurrent culld instances.
type Lock struct {
	folder string
	path   string
	fl     *flock.Flock
}

// PathFor returns the lock file location for a folder.
func PathFor(folder string) (string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve folder %s", folder)
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot locate user cache directory")
	}
	name := strconv.FormatUint(xxhash.Sum64String(abs), 16) + ".lock"
	return filepath.Join(cacheDir, "culld", name), nil
}

// Acquire takes the per-folder lock without blocking. A folder already open
// in another instance fails with a LockHeld error.
func Acquire(folder string) (*Lock, error) {
	path, err := PathFor(folder)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "cannot create lock directory")
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot acquire lock for %s", folder)
	}
	if !ok {
		return nil, errors.NewFileError("folder is open in another culld instance", folder, errors.LockHeld, nil)
	}

	log.LogWithFields(log.F("folder", folder), log.F("lock", path)).Debug("folder lock acquired")
	return &Lock{folder: folder, path: path, fl: fl}, nil
}

// Release drops the lock. Safe on a nil lock, so hosts can defer it
// unconditionally.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	if err := l.fl.Unlock(); err != nil {
		log.LogWithError(err).Warn("could not release folder lock")
	}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Folder returns the locked folder.
func (l *Lock) Folder() string {
	return l.folder
}
