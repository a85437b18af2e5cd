package spectral

import (
	"testing"

	"fringerestore/internal/models"
)

func indexGrid(rows, cols int) *models.ComplexGrid {
	g := models.NewComplexGrid(rows, cols)
	for i := range g.Data {
		g.Data[i] = complex(float64(i), 0)
	}
	return g
}

// TestShiftMovesOrigin checks the DC convention for odd and even sizes
func TestShiftMovesOrigin(t *testing.T) {
	for _, shape := range [][2]int{{4, 4}, {5, 7}, {1, 3}} {
		rows, cols := shape[0], shape[1]
		shifted := Shift(indexGrid(rows, cols))
		if real(shifted.At(rows/2, cols/2)) != 0 {
			t.Errorf("%dx%d: origin not moved to (%d,%d)", rows, cols, rows/2, cols/2)
		}
	}
}

// TestUnshiftInvertsShift verifies Unshift(Shift(x)) == x
func TestUnshiftInvertsShift(t *testing.T) {
	for _, shape := range [][2]int{{4, 6}, {5, 7}, {3, 8}} {
		src := indexGrid(shape[0], shape[1])
		back := Unshift(Shift(src))
		for i := range src.Data {
			if back.Data[i] != src.Data[i] {
				t.Fatalf("%dx%d: mismatch at %d", shape[0], shape[1], i)
			}
		}
	}
}

// TestRollWrapsAround checks circular semantics with negative offsets
func TestRollWrapsAround(t *testing.T) {
	src := indexGrid(3, 4)
	out := Roll(src, -1, 5)

	// (0,0) moves to ((0-1) mod 3, (0+5) mod 4) = (2,1)
	if real(out.At(2, 1)) != 0 {
		t.Errorf("Expected element 0 at (2,1), got %v", out.At(2, 1))
	}
	// (1,3) = 7 moves to (0, 0)
	if real(out.At(0, 0)) != 7 {
		t.Errorf("Expected element 7 at (0,0), got %v", out.At(0, 0))
	}
	// input untouched
	if real(src.At(0, 0)) != 0 {
		t.Errorf("Roll modified its input")
	}
}
