package spectral

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"fringerestore/internal/models"
)

var (
	// ErrNonFinite is returned when a transform input holds NaN or Inf values.
	ErrNonFinite = errors.New("spectral: input contains non-finite values")

	// ErrShapeMismatch is returned when an array does not match the plan dimensions.
	ErrShapeMismatch = errors.New("spectral: shape mismatch")
)

// Transformer computes centered 2D discrete Fourier transforms for a fixed
// array shape. It owns its FFT plans and scratch buffers, so a Transformer
// must not be shared between goroutines; create one per request instead.
type Transformer struct {
	rows int
	cols int

	// rowFFT works on sequences of length cols, colFFT on sequences of length rows
	rowFFT *fourier.CmplxFFT
	colFFT *fourier.CmplxFFT

	rowBuf []complex128
	colBuf []complex128
}

// NewTransformer creates a transformer for rows x cols arrays.
//
// Parameters:
//   - rows: Number of samples along Y
//   - cols: Number of samples along X
//
// Returns:
//   - A Transformer holding request-scoped FFT plans for both axes
func NewTransformer(rows, cols int) *Transformer {
	return &Transformer{
		rows:   rows,
		cols:   cols,
		rowFFT: fourier.NewCmplxFFT(cols),
		colFFT: fourier.NewCmplxFFT(rows),
		rowBuf: make([]complex128, cols),
		colBuf: make([]complex128, rows),
	}
}

// Dims returns the shape the transformer was planned for.
func (t *Transformer) Dims() (rows, cols int) {
	return t.rows, t.cols
}

// Forward computes the 2D DFT of src and shifts it so that the DC term
// lands at (rows/2, cols/2). src is left untouched.
func (t *Transformer) Forward(src *models.ComplexGrid) (*models.ComplexGrid, error) {
	if err := t.check(src); err != nil {
		return nil, err
	}

	out := src.Clone()
	t.fft2D(out.Data, false)
	return Shift(out), nil
}

// ForwardReal is Forward for a real-valued grid.
func (t *Transformer) ForwardReal(src *models.Grid) (*models.ComplexGrid, error) {
	if src.Rows != t.rows || src.Cols != t.cols {
		return nil, fmt.Errorf("%w: grid %dx%d, plan %dx%d", ErrShapeMismatch, src.Rows, src.Cols, t.rows, t.cols)
	}
	return t.Forward(models.FromReal(src))
}

// Inverse undoes Forward: it un-shifts the spectrum and applies the
// normalized inverse 2D DFT.
func (t *Transformer) Inverse(spectrum *models.ComplexGrid) (*models.ComplexGrid, error) {
	if err := t.check(spectrum); err != nil {
		return nil, err
	}

	out := Unshift(spectrum)
	t.fft2D(out.Data, true)

	scale := complex(1/float64(t.rows*t.cols), 0)
	for i := range out.Data {
		out.Data[i] *= scale
	}
	return out, nil
}

func (t *Transformer) check(g *models.ComplexGrid) error {
	if g.Rows != t.rows || g.Cols != t.cols || len(g.Data) != t.rows*t.cols {
		return fmt.Errorf("%w: array %dx%d, plan %dx%d", ErrShapeMismatch, g.Rows, g.Cols, t.rows, t.cols)
	}
	if !g.Finite() {
		return ErrNonFinite
	}
	return nil
}

// fft2D transforms data in place, rows first and then columns. The inverse
// direction is unnormalized.
func (t *Transformer) fft2D(data []complex128, inverse bool) {
	// Row-wise pass
	for i := 0; i < t.rows; i++ {
		row := data[i*t.cols : (i+1)*t.cols]
		copy(t.rowBuf, row)
		if inverse {
			t.rowFFT.Sequence(row, t.rowBuf)
		} else {
			t.rowFFT.Coefficients(row, t.rowBuf)
		}
	}

	// Column-wise pass over strided data
	for j := 0; j < t.cols; j++ {
		for i := 0; i < t.rows; i++ {
			t.colBuf[i] = data[i*t.cols+j]
		}
		if inverse {
			t.colFFT.Sequence(t.colBuf, t.colBuf)
		} else {
			t.colFFT.Coefficients(t.colBuf, t.colBuf)
		}
		for i := 0; i < t.rows; i++ {
			data[i*t.cols+j] = t.colBuf[i]
		}
	}
}
