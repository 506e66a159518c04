package main

import (
	"fmt"
	"strconv"

	"culld/internal/rating"
	"culld/pkg/types"

	"github.com/spf13/cobra"
)

// NewRateCmd creates the rate command
func NewRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate <image> [stars]",
		Short: "Read or set the star rating of a single image",
		Long: `With one argument, prints the image's rating. With two, writes the
rating sidecar next to the image; 0 clears it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := rating.NewStore()
			path := args[0]

			if len(args) == 1 {
				stars, ok := store.Read(path)
				if !ok {
					fmt.Println("unrated")
					return nil
				}
				fmt.Println(types.NewRating(stars).String())
				return nil
			}

			stars, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("stars must be a number between 0 and %d", types.MaxStars)
			}
			if err := store.Write(path, stars); err != nil {
				return err
			}
			fmt.Println(successText(fmt.Sprintf("%s: %s", path, types.NewRating(stars).String())))
			return nil
		},
	}

	return cmd
}
