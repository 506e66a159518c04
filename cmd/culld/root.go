package main

import (
	"fmt"

	"culld/internal/config"
	"culld/internal/log"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	cfg     *config.Config
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "culld",
		Short: "Cull, rate and straighten photo folders from the terminal",
		Long: `Culld walks a folder of images and gives you a keyboard-driven pass
over every one of them: rate it, rotate it, flip it, or delete it.

Edits stay pending until you move to the next image, ratings live next to
the images in plain sidecar files, and nothing else on disk is touched.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			if cfgFile != "" {
				cfg, err = config.LoadConfigFile(cfgFile)
			} else {
				cfg, err = config.LoadConfig()
			}
			if err != nil {
				fmt.Println(errorText(fmt.Sprintf("Config error: %v", err)))
				fmt.Println(infoText("Continuing with default settings. Run 'culld config init --force' to write a fresh file."))
				cfg = config.New()
			}

			opts := []log.Option{log.WithLevel(cfg.Log.Level)}
			if debug {
				opts = []log.Option{log.WithLevel("debug")}
			}
			if cfg.Log.File != "" {
				opts = append(opts, log.WithFile(cfg.Log.File))
			}
			log.Configure(opts...)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/culld/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(NewBrowseCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewRateCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}
