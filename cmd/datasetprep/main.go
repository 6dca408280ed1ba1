// datasetprep prepares the labeled leaf image corpus for offline training:
// it splits class folders into train/validation sets and removes files that
// are not decodable images.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/cropguard/internal/dataset"
)

func main() {
	root := &cobra.Command{
		Use:   "datasetprep",
		Short: "Prepare the crop leaf dataset for model training",
	}
	root.AddCommand(newSplitCmd(), newCleanCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSplitCmd() *cobra.Command {
	var (
		source string
		dest   string
		ratio  float64
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split class folders into train and validation sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			result, err := dataset.Split(source, dest, ratio, rng)
			if err != nil {
				return err
			}
			fmt.Printf("Split %d classes: %d train files, %d validation files\n",
				result.Classes, result.TrainFiles, result.ValFiles)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "dataset/PlantVillage", "directory of class folders to split")
	cmd.Flags().StringVar(&dest, "dest", "dataset", "directory to create train/ and validation/ under")
	cmd.Flags().Float64Var(&ratio, "ratio", 0.8, "fraction of images assigned to the training set")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (0 uses the current time)")
	return cmd
}

func newCleanCmd() *cobra.Command {
	var dirs []string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove corrupted or non-image files from dataset folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, dir := range dirs {
				removed, err := dataset.Clean(dir)
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d files from %s\n", removed, dir)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&dirs, "dir", []string{"dataset/train", "dataset/validation"}, "directories to clean (repeatable)")
	return cmd
}
