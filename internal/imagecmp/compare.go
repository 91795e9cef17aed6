package imagecmp

import (
	"fmt"

	"pixelwatch/internal/services"
)

// Compare decodes two PNG images and reports whether they differ in at most
// threshold pixels.
func Compare(a, b []byte, threshold int) (bool, error) {
	ga, err := Decode(a)
	if err != nil {
		return false, err
	}
	gb, err := Decode(b)
	if err != nil {
		return false, err
	}
	return MatchGrids(ga, gb, threshold)
}

// MatchGrids reports whether a and b differ in at most threshold pixels.
// Grids of different dimensions are a services.ErrBounds error regardless of
// threshold. Scanning stops as soon as the mismatch count exceeds threshold,
// so pixels past that point are never read.
func MatchGrids(a, b Grid, threshold int) (bool, error) {
	if threshold < 0 {
		return false, services.Wrap(services.ErrConfiguration, "compare", "match",
			fmt.Sprintf("threshold %d must be >= 0", threshold), nil)
	}
	if err := sameSize(a, b); err != nil {
		return false, err
	}

	width, height := a.Size()
	mismatches := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pa, err := a.Pixel(x, y)
			if err != nil {
				return false, err
			}
			pb, err := b.Pixel(x, y)
			if err != nil {
				return false, err
			}
			if pa != pb {
				mismatches++
			}
			if mismatches > threshold {
				return false, nil
			}
		}
	}
	return true, nil
}

// DiffCount returns the total number of differing pixels without early exit.
func DiffCount(a, b Grid) (int, error) {
	if err := sameSize(a, b); err != nil {
		return 0, err
	}
	width, height := a.Size()
	count := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pa, err := a.Pixel(x, y)
			if err != nil {
				return 0, err
			}
			pb, err := b.Pixel(x, y)
			if err != nil {
				return 0, err
			}
			if pa != pb {
				count++
			}
		}
	}
	return count, nil
}

func sameSize(a, b Grid) error {
	aw, ah := a.Size()
	bw, bh := b.Size()
	if aw != bw || ah != bh {
		return services.Wrap(services.ErrBounds, "compare", "match",
			fmt.Sprintf("image sizes differ: %dx%d vs %dx%d", aw, ah, bw, bh), nil)
	}
	return nil
}
