package models

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Grid represents a 2D array of real samples (intensity or phase) stored
// in row-major order.
type Grid struct {
	// Rows is the number of samples along Y
	Rows int

	// Cols is the number of samples along X
	Cols int

	// Data holds Rows*Cols values, row by row
	Data []float64
}

// NewGrid allocates a zeroed grid with the given dimensions.
func NewGrid(rows, cols int) *Grid {
	return &Grid{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// At returns the sample at (row, col).
func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.Cols+col]
}

// Set stores v at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.Cols+col] = v
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// Validate checks that the grid is non-empty and that its backing slice
// matches the declared dimensions.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("grid is nil")
	}
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", g.Rows, g.Cols)
	}
	if len(g.Data) != g.Rows*g.Cols {
		return fmt.Errorf("grid data length %d does not match %dx%d", len(g.Data), g.Rows, g.Cols)
	}
	return nil
}

// Finite reports whether every sample is a finite number.
func (g *Grid) Finite() bool {
	for _, v := range g.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ComplexGrid is the complex counterpart of Grid. Spectra use it with the
// DC term at (Rows/2, Cols/2).
type ComplexGrid struct {
	Rows int
	Cols int
	Data []complex128
}

// NewComplexGrid allocates a zeroed complex grid.
func NewComplexGrid(rows, cols int) *ComplexGrid {
	return &ComplexGrid{
		Rows: rows,
		Cols: cols,
		Data: make([]complex128, rows*cols),
	}
}

// FromReal lifts a real grid into a new complex grid.
func FromReal(g *Grid) *ComplexGrid {
	out := NewComplexGrid(g.Rows, g.Cols)
	for i, v := range g.Data {
		out.Data[i] = complex(v, 0)
	}
	return out
}

// At returns the value at (row, col).
func (c *ComplexGrid) At(row, col int) complex128 {
	return c.Data[row*c.Cols+col]
}

// Set stores v at (row, col).
func (c *ComplexGrid) Set(row, col int, v complex128) {
	c.Data[row*c.Cols+col] = v
}

// Clone returns a deep copy.
func (c *ComplexGrid) Clone() *ComplexGrid {
	out := &ComplexGrid{Rows: c.Rows, Cols: c.Cols, Data: make([]complex128, len(c.Data))}
	copy(out.Data, c.Data)
	return out
}

// Magnitude returns |c| elementwise.
func (c *ComplexGrid) Magnitude() *Grid {
	out := NewGrid(c.Rows, c.Cols)
	for i, v := range c.Data {
		out.Data[i] = cmplx.Abs(v)
	}
	return out
}

// Phase returns the complex argument of every element in (-π, π].
func (c *ComplexGrid) Phase() *Grid {
	out := NewGrid(c.Rows, c.Cols)
	for i, v := range c.Data {
		p := cmplx.Phase(v)
		if p == -math.Pi {
			p = math.Pi
		}
		out.Data[i] = p
	}
	return out
}

// Finite reports whether every element has finite real and imaginary parts.
func (c *ComplexGrid) Finite() bool {
	for _, v := range c.Data {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

// Mask marks samples excluded by the aperture. A nil *Mask means every
// sample is valid.
type Mask struct {
	Rows int
	Cols int

	// Invalid is true for samples outside the aperture
	Invalid []bool
}

// NewMask allocates a mask with every sample valid.
func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Invalid: make([]bool, rows*cols)}
}

// IsInvalid reports whether (row, col) is excluded. Safe on a nil mask.
func (m *Mask) IsInvalid(row, col int) bool {
	if m == nil {
		return false
	}
	return m.Invalid[row*m.Cols+col]
}

// ValidCount returns the number of valid samples.
func (m *Mask) ValidCount() int {
	n := 0
	for _, inv := range m.Invalid {
		if !inv {
			n++
		}
	}
	return n
}

// Carrier is the spectrum bin (freq_y, freq_x) holding the chosen sideband.
type Carrier struct {
	Row int
	Col int
}

func (c Carrier) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}
