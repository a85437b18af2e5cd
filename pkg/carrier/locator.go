// Package carrier locates the spectral sideband that carries the fringe
// phase and derives the orientation sign used to correct the restored map.
package carrier

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"fringerestore/internal/models"
)

// DefaultExclusionRadius keeps the automatic search away from the DC lobe.
const DefaultExclusionRadius = 5

var (
	// ErrOutOfBounds is returned when analytic parameters put the carrier
	// outside the spectrum.
	ErrOutOfBounds = errors.New("carrier: computed frequency outside spectrum")

	// ErrNotFound is returned when every bin lies inside the exclusion radius.
	ErrNotFound = errors.New("carrier: no bin outside exclusion radius")
)

// Mode selects how the carrier is found: Automatic or Analytic.
type Mode interface {
	carrierMode()
}

// Automatic picks the strongest bin outside the exclusion radius.
type Automatic struct{}

// Analytic computes the carrier from the optical setup.
type Analytic struct {
	// Wavelength in nanometres
	Wavelength float64

	// Size is the physical extent of the image in millimetres
	Size Size

	// Angle holds the tilt angles producing the fringes
	Angle Angle
}

func (Automatic) carrierMode() {}
func (Analytic) carrierMode()  {}

// Size is the physical image extent in millimetres. A zero field is
// treated as absent. Width wins when both are set.
type Size struct {
	Width  float64
	Height float64
}

// Angle is the pair of tilt angles (x, y).
type Angle struct {
	X float64
	Y float64
}

// IsZero reports whether both components are zero.
func (a Angle) IsZero() bool {
	return a.X == 0 && a.Y == 0
}

// Resolve returns the width and height, deriving the missing axis from the
// pixel aspect ratio of a rows x cols image.
func (s Size) Resolve(rows, cols int) (width, height float64) {
	if s.Width != 0 {
		return s.Width, s.Width * float64(rows) / float64(cols)
	}
	return s.Height * float64(cols) / float64(rows), s.Height
}

// Locate finds the carrier bin of a centered spectrum.
//
// Parameters:
//   - spectrum: Shifted spectrum with DC at (Rows/2, Cols/2)
//   - mode: Automatic or Analytic
//   - exclusionRadius: Radius around DC ignored by the automatic search
//
// Returns:
//   - The carrier bin, or ErrOutOfBounds / ErrNotFound
func Locate(spectrum *models.ComplexGrid, mode Mode, exclusionRadius float64) (models.Carrier, error) {
	switch m := mode.(type) {
	case Automatic:
		return findPeak(spectrum, exclusionRadius)
	case Analytic:
		return m.locate(spectrum.Rows, spectrum.Cols)
	default:
		return models.Carrier{}, fmt.Errorf("carrier: unsupported mode %T", mode)
	}
}

// locate converts tilt, size and wavelength into a bin index. Frequencies
// are rounded half-to-even, offset by the (possibly fractional) half
// dimension and truncated toward zero.
func (a Analytic) locate(rows, cols int) (models.Carrier, error) {
	width, height := a.Size.Resolve(rows, cols)
	wavelength := a.Wavelength * 1e-9

	col := math.Trunc(math.RoundToEven(width*1e-3*a.Angle.X/wavelength) + float64(cols)/2)
	row := math.Trunc(math.RoundToEven(height*1e-3*a.Angle.Y/wavelength) + float64(rows)/2)

	if !inRange(row, rows) || !inRange(col, cols) {
		return models.Carrier{}, fmt.Errorf("%w: (%g, %g) not within %dx%d", ErrOutOfBounds, row, col, rows, cols)
	}
	return models.Carrier{Row: int(row), Col: int(col)}, nil
}

func inRange(v float64, n int) bool {
	return !math.IsNaN(v) && v >= 0 && v < float64(n)
}

// findPeak scans the spectrum in row-major order and keeps the first bin
// with the largest magnitude among those farther than radius from DC.
func findPeak(spectrum *models.ComplexGrid, radius float64) (models.Carrier, error) {
	cr, cc := spectrum.Rows/2, spectrum.Cols/2
	best := models.Carrier{}
	bestMag := -1.0

	for r := 0; r < spectrum.Rows; r++ {
		for c := 0; c < spectrum.Cols; c++ {
			dr, dc := float64(r-cr), float64(c-cc)
			if math.Sqrt(dr*dr+dc*dc) <= radius {
				continue
			}
			if mag := cmplx.Abs(spectrum.At(r, c)); mag > bestMag {
				bestMag = mag
				best = models.Carrier{Row: r, Col: c}
			}
		}
	}

	if bestMag < 0 {
		return models.Carrier{}, fmt.Errorf("%w: %dx%d spectrum, radius %g", ErrNotFound, spectrum.Rows, spectrum.Cols, radius)
	}
	return best, nil
}
