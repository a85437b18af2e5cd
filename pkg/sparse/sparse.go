// Package sparse subsamples a restored phase map for compact transport.
package sparse

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"fringerestore/internal/models"
)

// DefaultStride is the sampling step along both axes.
const DefaultStride = 5

// ErrInvalidStride is returned for strides smaller than 1.
var ErrInvalidStride = errors.New("sparse: stride must be at least 1")

// Triple is one sampled pixel. It encodes as the JSON array [row, col, value].
type Triple struct {
	Row   int
	Col   int
	Value float64
}

// MarshalJSON implements json.Marshaler.
func (t Triple) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{t.Row, t.Col, t.Value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var raw [3]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sparse: decode triple: %w", err)
	}
	t.Row, t.Col, t.Value = int(raw[0]), int(raw[1]), raw[2]
	return nil
}

// Result is the wire form of a restoration: the sampled matrix plus the
// [min, max] range of the full phase map.
type Result struct {
	Matrix []Triple   `json:"matrix"`
	Peaks  [2]float64 `json:"peaks"`
}

// Sparsify samples phase at every (row, col) with row%stride == 0 and
// col%stride == 0, in row-major order. Invalid samples are emitted with
// value 0. Peaks cover every valid sample of phase, not only the sampled
// ones.
func Sparsify(phase *models.Grid, mask *models.Mask, stride int) (*Result, error) {
	if stride < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStride, stride)
	}

	capacity := ceilDiv(phase.Rows, stride) * ceilDiv(phase.Cols, stride)
	res := &Result{Matrix: make([]Triple, 0, capacity)}

	for r := 0; r < phase.Rows; r += stride {
		for c := 0; c < phase.Cols; c += stride {
			v := 0.0
			if !mask.IsInvalid(r, c) {
				v = phase.At(r, c)
			}
			res.Matrix = append(res.Matrix, Triple{Row: r, Col: c, Value: v})
		}
	}

	res.Peaks = Peaks(phase, mask)
	return res, nil
}

// Peaks returns [min, max] over the valid samples of phase. When no sample
// is valid the range of the whole map is used.
func Peaks(phase *models.Grid, mask *models.Mask) [2]float64 {
	values := phase.Data
	if mask != nil {
		values = make([]float64, 0, len(phase.Data))
		for i, v := range phase.Data {
			if !mask.Invalid[i] {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			values = phase.Data
		}
	}
	if len(values) == 0 {
		return [2]float64{}
	}
	return [2]float64{floats.Min(values), floats.Max(values)}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
