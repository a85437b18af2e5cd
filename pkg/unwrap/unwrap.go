// Package unwrap turns wrapped phase maps into continuous ones.
package unwrap

import (
	"errors"

	"fringerestore/internal/models"
)

// ErrNonFinite is returned when the wrapped phase holds NaN or Inf values.
var ErrNonFinite = errors.New("unwrap: wrapped phase contains non-finite values")

// Unwrapper removes 2π discontinuities from a wrapped phase map. Samples
// marked invalid in mask are holes: they take no part in the unwrapping
// and their output values are unspecified.
type Unwrapper interface {
	Unwrap(wrapped *models.Grid, mask *models.Mask) (*models.Grid, error)
}

// Func adapts an ordinary function to the Unwrapper interface.
type Func func(wrapped *models.Grid, mask *models.Mask) (*models.Grid, error)

// Unwrap calls f(wrapped, mask).
func (f Func) Unwrap(wrapped *models.Grid, mask *models.Mask) (*models.Grid, error) {
	return f(wrapped, mask)
}
