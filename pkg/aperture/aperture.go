// Package aperture restricts an interferogram to a circular region of interest.
package aperture

import (
	"fringerestore/internal/models"
)

// Margin widens the intensity disk relative to the validity mask so that
// samples just inside the reported aperture keep their neighbours through
// the band-pass stage.
const Margin = 2

// Mode selects whether an aperture is applied. It is either None or Masked.
type Mode interface {
	apertureMode()
}

// None leaves the interferogram untouched and produces no validity mask.
type None struct{}

// Masked restricts analysis to a disk of Radius pixels around the image center.
type Masked struct {
	Radius int
}

func (None) apertureMode()   {}
func (Masked) apertureMode() {}

// Apply masks a copy of grid according to mode.
//
// For Masked, intensities farther than Radius+Margin from the continuous
// center (Cols/2, Rows/2) are zeroed, and the returned mask marks every
// sample farther than Radius as invalid. For None the copy is unchanged and
// the mask is nil.
func Apply(grid *models.Grid, mode Mode) (*models.Grid, *models.Mask) {
	out := grid.Clone()

	m, ok := mode.(Masked)
	if !ok {
		return out, nil
	}

	disk := Disk(grid.Rows, grid.Cols, float64(m.Radius+Margin))
	for i := range out.Data {
		if !disk[i] {
			out.Data[i] = 0
		}
	}

	return out, ValidityMask(grid.Rows, grid.Cols, m.Radius)
}

// Disk returns a row-major indicator of the samples lying inside or on a
// circle of the given radius around the continuous image center.
func Disk(rows, cols int, radius float64) []bool {
	inside := make([]bool, rows*cols)
	r2 := radius * radius
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			inside[r*cols+c] = distance2(rows, cols, r, c) <= r2
		}
	}
	return inside
}

// ValidityMask marks every sample strictly farther than radius from the
// continuous image center as invalid.
func ValidityMask(rows, cols, radius int) *models.Mask {
	mask := models.NewMask(rows, cols)
	r2 := float64(radius) * float64(radius)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mask.Invalid[r*cols+c] = distance2(rows, cols, r, c) > r2
		}
	}
	return mask
}

func distance2(rows, cols, r, c int) float64 {
	dy := float64(r) - float64(rows)/2
	dx := float64(c) - float64(cols)/2
	return dx*dx + dy*dy
}
