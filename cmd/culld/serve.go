package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"culld/internal/lockfile"
	"culld/internal/server"
	"culld/internal/watch"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var (
		addr    string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve [folder]",
		Short: "Serve the browsing session over HTTP",
		Long: `Serve exposes the same session the TUI drives as a small JSON API, for
a browser-based picker or remote control. Session state, previews, full
images and every edit operation live under /api.`,
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

			if addr == "" {
				addr = cfg.Server.Address
			}
			srv := server.New(session, addr)

			if !noWatch {
				watcher, err := watch.New(watch.DefaultDebounce)
				if err != nil {
					return err
				}
				if err := watcher.Watch(session.Root()); err != nil {
					return err
				}
				defer watcher.Stop()
				srv.TrackStaleness(watcher.Stale())
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			fmt.Println(infoText(fmt.Sprintf("Serving %s on http://%s", session.Root(), addr)))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				fmt.Println(infoText(fmt.Sprintf("Received %s, shutting down", sig)))
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the folder for outside changes")

	return cmd
}
