// Package demodulation isolates the carrier sideband of a centered spectrum
// and brings it back to baseband to obtain the wrapped phase.
package demodulation

import (
	"fmt"

	"fringerestore/internal/models"
	"fringerestore/pkg/spectral"
)

// Demodulate band-passes spectrum with window, rolls the carrier to the DC
// position and returns the argument of the inverse transform.
//
// Parameters:
//   - t: Transformer planned for the spectrum shape
//   - spectrum: Centered spectrum (not modified)
//   - window: Band-pass window of the same shape
//   - c: Carrier bin the window is centered on
//
// Returns:
//   - The wrapped phase map with values in (-π, π]
func Demodulate(t *spectral.Transformer, spectrum *models.ComplexGrid, window *models.Grid, c models.Carrier) (*models.Grid, error) {
	if window.Rows != spectrum.Rows || window.Cols != spectrum.Cols {
		return nil, fmt.Errorf("%w: window %dx%d, spectrum %dx%d",
			spectral.ErrShapeMismatch, window.Rows, window.Cols, spectrum.Rows, spectrum.Cols)
	}

	filtered := Filter(spectrum, window)
	baseband := spectral.Roll(filtered, spectrum.Rows/2-c.Row, spectrum.Cols/2-c.Col)

	field, err := t.Inverse(baseband)
	if err != nil {
		return nil, fmt.Errorf("inverse transform: %w", err)
	}
	return field.Phase(), nil
}

// Filter multiplies spectrum by window elementwise into a new array.
func Filter(spectrum *models.ComplexGrid, window *models.Grid) *models.ComplexGrid {
	out := models.NewComplexGrid(spectrum.Rows, spectrum.Cols)
	for i, v := range spectrum.Data {
		out.Data[i] = v * complex(window.Data[i], 0)
	}
	return out
}
