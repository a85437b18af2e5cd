package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"fringerestore/internal/models"
	"fringerestore/pkg/sparse"
)

// Viewer renders a restored phase map and extracts line profiles from it.
type Viewer struct {
	// phase holds the restored phase map
	phase *models.Grid

	// mask marks samples outside the aperture; nil means all valid
	mask *models.Mask

	// peaks is the [min, max] range used for normalization
	peaks [2]float64
}

// NewViewer creates a viewer for phase. The display range is taken from the
// valid samples.
func NewViewer(phase *models.Grid, mask *models.Mask) *Viewer {
	return &Viewer{
		phase: phase,
		mask:  mask,
		peaks: sparse.Peaks(phase, mask),
	}
}

// Peaks returns the display range.
func (v *Viewer) Peaks() [2]float64 {
	return v.peaks
}

// ExtractProfile returns the phase values along one row ("row"/"y") or one
// column ("col"/"x"). Invalid samples are returned as NaN.
func (v *Viewer) ExtractProfile(axis string, position int) ([]float64, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var profile []float64

	switch axis {
	case "row", "y", "Y":
		if position >= v.phase.Rows {
			return nil, fmt.Errorf("position %d exceeds rows %d", position, v.phase.Rows)
		}
		profile = make([]float64, v.phase.Cols)
		for c := range profile {
			profile[c] = v.value(position, c)
		}

	case "col", "x", "X":
		if position >= v.phase.Cols {
			return nil, fmt.Errorf("position %d exceeds cols %d", position, v.phase.Cols)
		}
		profile = make([]float64, v.phase.Rows)
		for r := range profile {
			profile[r] = v.value(r, position)
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be row or col)", axis)
	}

	return profile, nil
}

func (v *Viewer) value(r, c int) float64 {
	if v.mask.IsInvalid(r, c) {
		return math.NaN()
	}
	return v.phase.At(r, c)
}

// Image returns the phase map as a 16-bit grayscale image scaled to peaks.
func (v *Viewer) Image() *image.Gray16 {
	return ToImage(v.phase, v.mask, v.peaks[0], v.peaks[1])
}

// SaveImage writes the grayscale rendering as a PNG file.
func (v *Viewer) SaveImage(filename string) error {
	return SavePNG(v.Image(), filename)
}

// ToImage maps grid linearly from [lo, hi] to [0, 65535]. Invalid samples
// are black. A flat range renders mid-gray.
func ToImage(grid *models.Grid, mask *models.Mask, lo, hi float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, grid.Cols, grid.Rows))
	span := hi - lo

	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			if mask.IsInvalid(y, x) {
				continue
			}
			level := 0.5
			if span > 0 {
				level = (grid.At(y, x) - lo) / span
			}
			value := uint16(math.Max(0, math.Min(65535, level*65535)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}

	return img
}

// SavePNG encodes img to filename, creating parent directories.
func SavePNG(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}
