package carrier

import "fringerestore/internal/models"

// Sgn returns -1 for negative n and 1 otherwise. Zero maps to 1.
func Sgn(n float64) int {
	if n < 0 {
		return -1
	}
	return 1
}

// Orientation returns the quadrant sign of carrier relative to the
// continuous spectrum center of a rows x cols array.
func Orientation(rows, cols int, c models.Carrier) int {
	return Sgn(float64(rows)/2-float64(c.Row)) * Sgn(float64(cols)/2-float64(c.Col))
}

// Correct returns phase multiplied by -sign. The input is not modified.
func Correct(phase *models.Grid, sign int) *models.Grid {
	out := phase.Clone()
	k := -float64(sign)
	for i := range out.Data {
		out.Data[i] *= k
	}
	return out
}
