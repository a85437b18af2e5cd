package spectral

import "fringerestore/internal/models"

// Shift moves the zero-frequency term of an unshifted spectrum to
// (rows/2, cols/2). The result is a new array.
func Shift(src *models.ComplexGrid) *models.ComplexGrid {
	return Roll(src, src.Rows/2, src.Cols/2)
}

// Unshift is the exact inverse of Shift, also for odd dimensions.
func Unshift(src *models.ComplexGrid) *models.ComplexGrid {
	return Roll(src, -(src.Rows / 2), -(src.Cols / 2))
}

// Roll circularly shifts src by dr rows and dc columns: the element at
// (r, c) ends up at ((r+dr) mod rows, (c+dc) mod cols). Elements that leave
// one edge re-enter at the opposite one.
func Roll(src *models.ComplexGrid, dr, dc int) *models.ComplexGrid {
	out := models.NewComplexGrid(src.Rows, src.Cols)
	dr = mod(dr, src.Rows)
	dc = mod(dc, src.Cols)

	for r := 0; r < src.Rows; r++ {
		tr := (r + dr) % src.Rows
		for c := 0; c < src.Cols; c++ {
			tc := (c + dc) % src.Cols
			out.Data[tr*src.Cols+tc] = src.Data[r*src.Cols+c]
		}
	}
	return out
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
