package sparse

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fringerestore/internal/models"
)

func rampGrid(rows, cols int) *models.Grid {
	g := models.NewGrid(rows, cols)
	for i := range g.Data {
		g.Data[i] = float64(i)
	}
	return g
}

// TestSparsifyCount checks ceil(Y/s) * ceil(X/s) triples
func TestSparsifyCount(t *testing.T) {
	cases := []struct{ rows, cols, stride int }{
		{10, 10, 5}, {11, 11, 5}, {1, 1, 5}, {7, 13, 3}, {4, 4, 1}, {64, 64, 5},
	}
	for _, tc := range cases {
		res, err := Sparsify(rampGrid(tc.rows, tc.cols), nil, tc.stride)
		if err != nil {
			t.Fatalf("Sparsify failed: %v", err)
		}
		want := ceilDiv(tc.rows, tc.stride) * ceilDiv(tc.cols, tc.stride)
		if len(res.Matrix) != want {
			t.Errorf("%dx%d stride %d: expected %d triples, got %d",
				tc.rows, tc.cols, tc.stride, want, len(res.Matrix))
		}
	}
}

// TestSparsifyOrderAndValues checks row-major sampling
func TestSparsifyOrderAndValues(t *testing.T) {
	res, err := Sparsify(rampGrid(6, 7), nil, 5)
	if err != nil {
		t.Fatalf("Sparsify failed: %v", err)
	}

	want := []Triple{
		{Row: 0, Col: 0, Value: 0},
		{Row: 0, Col: 5, Value: 5},
		{Row: 5, Col: 0, Value: 35},
		{Row: 5, Col: 5, Value: 40},
	}
	if diff := cmp.Diff(want, res.Matrix); diff != "" {
		t.Errorf("Matrix mismatch (-want +got):\n%s", diff)
	}
	if res.Peaks != [2]float64{0, 41} {
		t.Errorf("Expected peaks over the full map [0 41], got %v", res.Peaks)
	}
}

// TestSparsifyMaskedPixelsAreZero ensures invalid samples are emitted as 0
// and left out of the peaks
func TestSparsifyMaskedPixelsAreZero(t *testing.T) {
	phase := rampGrid(6, 6)
	for i := range phase.Data {
		phase.Data[i] += 100
	}
	mask := models.NewMask(6, 6)
	mask.Invalid[0] = true  // (0,0), sampled
	mask.Invalid[35] = true // (5,5), sampled and the maximum

	res, err := Sparsify(phase, mask, 5)
	if err != nil {
		t.Fatalf("Sparsify failed: %v", err)
	}

	for _, tr := range res.Matrix {
		masked := (tr.Row == 0 && tr.Col == 0) || (tr.Row == 5 && tr.Col == 5)
		if masked && tr.Value != 0 {
			t.Errorf("Expected 0 at masked (%d,%d), got %g", tr.Row, tr.Col, tr.Value)
		}
		if !masked && tr.Value == 0 {
			t.Errorf("Unexpected 0 at valid (%d,%d)", tr.Row, tr.Col)
		}
	}
	if res.Peaks != [2]float64{101, 134} {
		t.Errorf("Expected peaks [101 134], got %v", res.Peaks)
	}
}

func TestSparsifyInvalidStride(t *testing.T) {
	if _, err := Sparsify(rampGrid(2, 2), nil, 0); !errors.Is(err, ErrInvalidStride) {
		t.Errorf("Expected ErrInvalidStride, got %v", err)
	}
}

// TestResultJSON checks the wire format consumed by clients
func TestResultJSON(t *testing.T) {
	res := &Result{
		Matrix: []Triple{{Row: 0, Col: 5, Value: 1.5}},
		Peaks:  [2]float64{-1, 2.5},
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got, want := string(data), `{"matrix":[[0,5,1.5]],"peaks":[-1,2.5]}`; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(*res, back); diff != "" {
		t.Errorf("Decoded result mismatch (-want +got):\n%s", diff)
	}
}
