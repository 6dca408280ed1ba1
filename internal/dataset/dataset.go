// Package dataset prepares labeled image folders for offline model
// training: splitting a class-per-directory corpus into train/validation
// sets and pruning files that do not decode as images.
package dataset

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
)

// SplitResult reports what a Split run did.
type SplitResult struct {
	Classes    int
	TrainFiles int
	ValFiles   int
}

// Split copies every class directory under source into dest/train/<class>
// and dest/validation/<class>, assigning a shuffled ratio of the images to
// the training set. Source files are left untouched.
func Split(source, dest string, ratio float64, rng *rand.Rand) (SplitResult, error) {
	var result SplitResult
	if ratio <= 0 || ratio >= 1 {
		return result, fmt.Errorf("dataset: split ratio must be in (0,1), got %v", ratio)
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return result, fmt.Errorf("dataset: read source dir: %w", err)
	}

	trainDir := filepath.Join(dest, "train")
	valDir := filepath.Join(dest, "validation")

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		class := entry.Name()
		classPath := filepath.Join(source, class)

		files, err := os.ReadDir(classPath)
		if err != nil {
			return result, fmt.Errorf("dataset: read class dir %s: %w", class, err)
		}

		names := make([]string, 0, len(files))
		for _, f := range files {
			if !f.IsDir() {
				names = append(names, f.Name())
			}
		}
		rng.Shuffle(len(names), func(i, j int) {
			names[i], names[j] = names[j], names[i]
		})

		for _, dir := range []string{filepath.Join(trainDir, class), filepath.Join(valDir, class)} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return result, fmt.Errorf("dataset: create %s: %w", dir, err)
			}
		}

		split := int(float64(len(names)) * ratio)
		for i, name := range names {
			target := filepath.Join(trainDir, class, name)
			if i >= split {
				target = filepath.Join(valDir, class, name)
			}
			if err := copyFile(filepath.Join(classPath, name), target); err != nil {
				return result, err
			}
			if i < split {
				result.TrainFiles++
			} else {
				result.ValFiles++
			}
		}
		result.Classes++
	}
	return result, nil
}

// Clean walks dir and removes every file that cannot be decoded as an
// image. It returns the number of removed files.
func Clean(dir string) (int, error) {
	removed := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if decodable(path) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("dataset: remove %s: %w", path, err)
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}
	return removed, nil
}

func decodable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("dataset: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("dataset: copy %s: %w", src, err)
	}
	return out.Close()
}
