package unwrap

import (
	"fmt"
	"math"
	"sort"

	"fringerestore/internal/models"
)

// unreliable is the second-difference score given to pixels whose 3x3
// neighbourhood is incomplete (image border or next to a hole).
const unreliable = 1e9

// Reliability unwraps 2D phase by merging pixel groups along edges sorted
// from most to least reliable, where reliability is judged from the wrapped
// second differences around each pixel. Groups that stay disconnected
// (separated by holes) are unwrapped independently.
//
// Reliability holds no state and is safe for concurrent use.
type Reliability struct{}

// NewReliability returns the default unwrapper.
func NewReliability() *Reliability {
	return &Reliability{}
}

type edge struct {
	a, b   int
	weight float64
}

// Unwrap implements Unwrapper. Invalid samples are set to 0 in the result.
func (u *Reliability) Unwrap(wrapped *models.Grid, mask *models.Mask) (*models.Grid, error) {
	if !wrapped.Finite() {
		return nil, ErrNonFinite
	}
	if mask != nil && (mask.Rows != wrapped.Rows || mask.Cols != wrapped.Cols) {
		return nil, fmt.Errorf("unwrap: mask %dx%d does not match phase %dx%d",
			mask.Rows, mask.Cols, wrapped.Rows, wrapped.Cols)
	}

	rows, cols := wrapped.Rows, wrapped.Cols
	n := rows * cols
	phi := wrapped.Data

	valid := make([]bool, n)
	for i := range valid {
		valid[i] = mask == nil || !mask.Invalid[i]
	}

	score := secondDifferences(phi, valid, rows, cols)
	edges := buildEdges(score, valid, rows, cols)
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].weight < edges[j].weight
	})

	// turns[i] counts the 2π periods added to pixel i
	turns := make([]int, n)
	root := make([]int, n)
	members := make([][]int, n)
	for i := 0; i < n; i++ {
		root[i] = i
		members[i] = []int{i}
	}

	for _, e := range edges {
		ra, rb := root[e.a], root[e.b]
		if ra == rb {
			continue
		}

		ua := phi[e.a] + 2*math.Pi*float64(turns[e.a])
		ub := phi[e.b] + 2*math.Pi*float64(turns[e.b])
		k := int(math.Round((ua - ub) / (2 * math.Pi)))

		// move the smaller group into the larger one
		if len(members[ra]) < len(members[rb]) {
			ra, rb = rb, ra
			k = -k
		}
		for _, p := range members[rb] {
			turns[p] += k
			root[p] = ra
		}
		members[ra] = append(members[ra], members[rb]...)
		members[rb] = nil
	}

	out := models.NewGrid(rows, cols)
	for i := range out.Data {
		if valid[i] {
			out.Data[i] = phi[i] + 2*math.Pi*float64(turns[i])
		}
	}
	return out, nil
}

// secondDifferences scores each pixel by the magnitude of its wrapped
// horizontal, vertical and diagonal second differences. Lower is more
// reliable.
func secondDifferences(phi []float64, valid []bool, rows, cols int) []float64 {
	score := make([]float64, len(phi))
	for i := range score {
		score[i] = unreliable
	}

	at := func(r, c int) float64 { return phi[r*cols+c] }

	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			if !neighbourhoodValid(valid, rows, cols, r, c) {
				continue
			}
			p := at(r, c)
			h := wrap(at(r, c-1)-p) - wrap(p-at(r, c+1))
			v := wrap(at(r-1, c)-p) - wrap(p-at(r+1, c))
			d1 := wrap(at(r-1, c-1)-p) - wrap(p-at(r+1, c+1))
			d2 := wrap(at(r-1, c+1)-p) - wrap(p-at(r+1, c-1))
			score[r*cols+c] = math.Sqrt(h*h + v*v + d1*d1 + d2*d2)
		}
	}
	return score
}

func neighbourhoodValid(valid []bool, rows, cols, r, c int) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if !valid[(r+dr)*cols+c+dc] {
				return false
			}
		}
	}
	return true
}

// buildEdges links every valid pixel to its valid right and lower neighbours.
func buildEdges(score []float64, valid []bool, rows, cols int) []edge {
	edges := make([]edge, 0, 2*rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if !valid[i] {
				continue
			}
			if c+1 < cols && valid[i+1] {
				edges = append(edges, edge{a: i, b: i + 1, weight: score[i] + score[i+1]})
			}
			if r+1 < rows && valid[i+cols] {
				edges = append(edges, edge{a: i, b: i + cols, weight: score[i] + score[i+cols]})
			}
		}
	}
	return edges
}

// wrap maps x into [-π, π].
func wrap(x float64) float64 {
	return x - 2*math.Pi*math.Round(x/(2*math.Pi))
}
