package demodulation

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"

	"fringerestore/internal/models"
)

// Hann1D returns the raised-cosine sequence of length 2*radius+1, with
// zeros at both ends and 1 in the middle. A radius of 0 yields [1].
func Hann1D(radius int) []float64 {
	w := make([]float64, 2*radius+1)
	for k := range w {
		w[k] = 1
	}
	if radius == 0 {
		return w
	}
	return window.Hann(w)
}

// WindowRadius is the truncated distance between the carrier and the
// continuous spectrum center.
func WindowRadius(rows, cols int, c models.Carrier) int {
	dy := float64(rows)/2 - float64(c.Row)
	dx := float64(cols)/2 - float64(c.Col)
	return int(math.Sqrt(dx*dx + dy*dy))
}

// Synthesize builds a rows x cols band-pass window that is zero everywhere
// except for a (2*radius+1)² separable Hann patch centered on center. The
// patch is clipped at the array borders rather than wrapped.
//
// Parameters:
//   - rows, cols: Shape of the spectrum
//   - center: Bin the patch is centered on
//   - radius: Half-width of the patch
//
// Returns:
//   - The window as a real grid with values in [0, 1]
func Synthesize(rows, cols int, center models.Carrier, radius int) *models.Grid {
	out := models.NewGrid(rows, cols)
	hann := Hann1D(radius)

	for ky, wy := range hann {
		r := center.Row - radius + ky
		if r < 0 || r >= rows {
			continue
		}
		for kx, wx := range hann {
			c := center.Col - radius + kx
			if c < 0 || c >= cols {
				continue
			}
			out.Data[r*cols+c] = wy * wx
		}
	}

	return out
}
