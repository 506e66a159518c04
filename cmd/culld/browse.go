package main

import (
	"culld/internal/browse"
	"culld/internal/codec"
	"culld/internal/lockfile"
	"culld/internal/log"
	"culld/internal/rating"
	"culld/internal/scan"
	"culld/internal/tui"
	"culld/internal/watch"

	"github.com/spf13/cobra"
)

// NewBrowseCmd creates the browse command
func NewBrowseCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "browse [folder]",
		Short: "Browse, rate and edit the images in a folder",
		Long: `Browse opens a full-screen pass over the images in a folder. Arrow keys
move between images and save any pending edits, r/R rotate, f/F flip,
0-5 rate, s skips without saving, x deletes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := "."
			if len(args) > 0 {
				folder = args[0]
			}

			lock, err := lockfile.Acquire(folder)
			if err != nil {
				return err
			}
			defer lock.Release()

			session, err := newSession(folder)
			if err != nil {
				return err
			}

			var staleCh <-chan watch.Notification
			if !noWatch {
				watcher, err := watch.New(watch.DefaultDebounce)
				if err != nil {
					return err
				}
				if err := watcher.Watch(session.Root()); err != nil {
					return err
				}
				defer watcher.Stop()
				staleCh = watcher.Stale()
			}

			return tui.Run(session, staleCh)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the folder for outside changes")

	return cmd
}

// newSession wires the scanner, rating store and codec into a loaded
// session. Shared by browse and serve.
func newSession(folder string) (*browse.Session, error) {
	scanner, err := scan.New(cfg.Scan)
	if err != nil {
		return nil, err
	}

	session := browse.NewSession(scanner, rating.NewStore(), codec.New(cfg.Preview, cfg.Save))
	count, err := session.LoadFolder(folder)
	if err != nil {
		return nil, err
	}
	log.LogWithFields(log.F("folder", session.Root()), log.F("images", count)).Info("Folder loaded")
	return session, nil
}
