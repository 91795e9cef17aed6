package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pixelwatch/internal/check"
	"pixelwatch/internal/imagecmp"
)

func newCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "compare <image-a.png> <image-b.png>",
		Short:       "Compare two PNG images with the batch threshold",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			b, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			match, err := imagecmp.Compare(a, b, check.DefaultThreshold)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if match {
				fmt.Fprintf(out, "match (threshold %d)\n", check.DefaultThreshold)
				return nil
			}

			gridA, err := imagecmp.Decode(a)
			if err != nil {
				return err
			}
			gridB, err := imagecmp.Decode(b)
			if err != nil {
				return err
			}
			diff, err := imagecmp.DiffCount(gridA, gridB)
			if err != nil {
				return err
			}
			w, h := gridA.Size()
			fmt.Fprintf(out, "differ: %d of %d pixels (threshold %d)\n", diff, w*h, check.DefaultThreshold)
			return nil
		},
	}
}
