// Package watch notifies presentation layers when the images under the
// loaded folder change on disk. It never mutates a browse session itself:
// the notification is advisory and the user decides when to rescan. The
// watcher does not tell the application's own saves apart from external
// writes; hosts that care filter notifications around their own commits.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"culld/internal/errors"
	"culld/internal/log"
	"culld/internal/scan"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long changes coalesce before one staleness
// notification goes out.
const DefaultDebounce = 500 * time.Millisecond

// Notification reports that the collection on disk may have drifted from the
// loaded one.
type Notification struct {
	Root    string    // the watched folder
	Changes int       // filesystem events coalesced into this notification
	At      time.Time // when the last of them landed
}

// Watcher watches one folder tree for image changes. Subdirectories are
// watched individually because the underlying watcher is not recursive;
// directories that appear later are picked up from their create events.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	staleChan chan Notification
	stopChan  chan struct{}

	// dirs is touched by Watch before the loop starts and only by the
	// event loop afterwards.
	dirs map[string]struct{}

	mutex   sync.RWMutex
	root    string
	running bool
}

// New creates a watcher. A debounce of zero selects DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "could not create filesystem watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		debounce:  debounce,
		staleChan: make(chan Notification, 1),
		stopChan:  make(chan struct{}),
		dirs:      make(map[string]struct{}),
	}, nil
}

// Watch starts watching root and every directory below it. A Watcher serves
// one root for its lifetime; watching another folder means creating a new
// Watcher.
func (w *Watcher) Watch(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.NewFileError("cannot watch folder", root, errors.NotADirectory, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("cannot watch folder: not a directory", root, errors.NotADirectory, nil)
	}

	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.root = root
	w.mutex.Unlock()

	if err := w.addTree(root); err != nil {
		w.mutex.Lock()
		w.running = false
		w.mutex.Unlock()
		w.fsWatcher.Close()
		return errors.Wrapf(err, "cannot watch folder %s", root)
	}

	go w.loop()
	log.LogWithFields(log.F("root", root), log.F("dirs", len(w.dirs))).Debug("watching folder for changes")
	return nil
}

// Stale returns the channel staleness notifications arrive on. The channel
// holds at most one unread notification; it is closed when the watcher stops.
func (w *Watcher) Stale() <-chan Notification {
	return w.staleChan
}

// Stop halts the watcher and closes the notification channel.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithError(err).Warn("error closing filesystem watcher")
	}
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Root returns the folder under watch.
func (w *Watcher) Root() string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.root
}

// loop drains filesystem events, coalesces the relevant ones behind the
// debounce window, and emits staleness notifications. It owns staleChan.
func (w *Watcher) loop() {
	defer close(w.staleChan)

	var timer *time.Timer
	var timerC <-chan time.Time
	changes := 0
	var last time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.handle(event) {
				continue
			}
			changes++
			last = time.Now()
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			notification := Notification{Root: w.Root(), Changes: changes, At: last}
			timer = nil
			timerC = nil
			changes = 0
			select {
			case w.staleChan <- notification:
			default:
				// An unread notification already says stale; another adds nothing
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithError(err).Warn("filesystem watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// handle classifies one event and grows the watch set when directories
// appear. It reports whether the event makes the collection stale.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// A moved-in directory arrives as a single create event; its
			// contents are unknown, so it is stale by itself.
			if err := w.addTree(event.Name); err != nil {
				log.LogWithError(err).Warn("could not watch new subfolder")
			}
			return true
		}
		return scan.IsImagePath(event.Name)
	}
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		if _, ok := w.dirs[event.Name]; ok {
			// The kernel dropped the watch together with the directory
			delete(w.dirs, event.Name)
			return true
		}
		return scan.IsImagePath(event.Name)
	}
	if event.Op.Has(fsnotify.Write) {
		return scan.IsImagePath(event.Name)
	}
	// Chmod-only events are noise
	return false
}

// addTree puts root and every directory below it under watch. Unreadable
// subdirectories are skipped the same way the scanner skips them.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.LogWithFields(log.F("dir", path), log.F("error", err.Error())).Warn("skipping unwatchable directory")
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			log.LogWithFields(log.F("dir", path), log.F("error", err.Error())).Warn("could not watch directory")
			return nil
		}
		w.dirs[path] = struct{}{}
		return nil
	})
}
