package visualization

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"fringerestore/internal/models"
)

// phaseGrid adapts a phase map to plotter.GridXYZ. Invalid samples are
// drawn with the lowest valid value.
type phaseGrid struct {
	phase *models.Grid
	mask  *models.Mask
	fill  float64
}

func (g phaseGrid) Dims() (c, r int) { return g.phase.Cols, g.phase.Rows }
func (g phaseGrid) X(c int) float64  { return float64(c) }
func (g phaseGrid) Y(r int) float64  { return float64(r) }

func (g phaseGrid) Z(c, r int) float64 {
	if g.mask.IsInvalid(r, c) {
		return g.fill
	}
	return g.phase.At(r, c)
}

// SaveHeatmap renders the phase map as a colour heatmap. The image format
// follows the file extension (png, svg, pdf, ...).
func (v *Viewer) SaveHeatmap(filename, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "col"
	p.Y.Label.Text = "row"

	h := plotter.NewHeatMap(phaseGrid{phase: v.phase, mask: v.mask, fill: v.peaks[0]}, palette.Heat(32, 1))
	h.Min, h.Max = v.peaks[0], v.peaks[1]
	if h.Max <= h.Min {
		// flat maps still need a non-empty colour range
		h.Max = h.Min + 1
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, filename); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}
