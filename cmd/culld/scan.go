package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"culld/internal/codec"
	"culld/internal/rating"
	"culld/internal/scan"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type scanEntry struct {
	Path   string `json:"path"`
	Size   int64  `json:"size_bytes"`
	Stars  *int   `json:"stars,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// NewScanCmd creates the scan command
func NewScanCmd() *cobra.Command {
	var (
		jsonOutput bool
		probe      bool
	)

	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "List the images a browse of the folder would pick up",
		Long: `Scan walks a folder the same way browse does and lists every image it
finds, in display order, with its size and rating. Useful for checking
what the exclude patterns let through.

With --probe every image is also decoded for its dimensions, which is
slow on large folders.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := "."
			if len(args) > 0 {
				folder = args[0]
			}

			scanner, err := scan.New(cfg.Scan)
			if err != nil {
				return err
			}
			files, err := scanner.Scan(folder)
			if err != nil {
				return err
			}

			store := rating.NewStore()
			cdc := codec.New(cfg.Preview, cfg.Save)

			entries := make([]scanEntry, 0, len(files))
			for _, path := range files {
				entry := scanEntry{Path: path}
				if info, err := os.Stat(path); err == nil {
					entry.Size = info.Size()
				}
				if stars, ok := store.Read(path); ok {
					entry.Stars = &stars
				}
				if probe {
					if meta, err := cdc.Probe(path); err == nil {
						entry.Width = meta.Width
						entry.Height = meta.Height
					}
				}
				entries = append(entries, entry)
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				fmt.Println(renderScanTable(entries, probe))
			} else {
				for _, e := range entries {
					fmt.Printf("%s\t%s\t%s\n", e.Path, humanize.Bytes(uint64(e.Size)), starsColumn(e.Stars))
				}
			}
			fmt.Println(infoText(fmt.Sprintf("%d images", len(entries))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "output as JSON")
	cmd.Flags().BoolVar(&probe, "probe", false, "decode each image for its dimensions")

	return cmd
}

func renderScanTable(entries []scanEntry, probed bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"#", "image", "size", "rating"}
	if probed {
		header = append(header, "dimensions")
	}
	tw.AppendHeader(header)

	for i, e := range entries {
		row := table.Row{i + 1, e.Path, humanize.Bytes(uint64(e.Size)), starsColumn(e.Stars)}
		if probed {
			row = append(row, dimensionsColumn(e))
		}
		tw.AppendRow(row)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render()
}

func starsColumn(stars *int) string {
	if stars == nil {
		return "-"
	}
	return strconv.Itoa(*stars)
}

func dimensionsColumn(e scanEntry) string {
	if e.Width == 0 && e.Height == 0 {
		return "-"
	}
	return fmt.Sprintf("%d×%d", e.Width, e.Height)
}
