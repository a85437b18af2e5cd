package restoration

import (
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"fringerestore/internal/models"
	"fringerestore/pkg/visualization"
)

// save writes a stage image to <IntermediaryDir>/<stage>/<id>.png when
// intermediary results are enabled. Failures are logged, not returned.
func (s *run) save(stage string, grid *models.Grid, mask *models.Mask) {
	if !s.params.SaveIntermediaryResults {
		return
	}

	lo, hi := rangeOf(grid)
	img := visualization.ToImage(grid, mask, lo, hi)
	filename := filepath.Join(s.params.IntermediaryDir, stage, fmt.Sprintf("%s.png", fileStem(s.id)))

	if err := visualization.SavePNG(img, filename); err != nil {
		s.log.WithError(err).Warnf("Failed to save intermediary result %s", stage)
		return
	}
	s.log.WithField("file", filename).Debug("Saved intermediary result")
}

// saveSpectrum stores log(1+|F|) so that the sidebands stay visible next to DC
func (s *run) saveSpectrum(stage string) {
	if !s.params.SaveIntermediaryResults {
		return
	}

	mag := s.spectrum.Magnitude()
	for i, v := range mag.Data {
		mag.Data[i] = math.Log1p(v)
	}
	s.save(stage, mag, nil)
}

func rangeOf(grid *models.Grid) (lo, hi float64) {
	if len(grid.Data) == 0 {
		return 0, 0
	}

	return floats.Min(grid.Data), floats.Max(grid.Data)
}

// fileStem keeps a request ID from naming anything outside the stage directory
func fileStem(id string) string {
	base := filepath.Base(filepath.Clean("/" + id))
	if base == "." || base == string(filepath.Separator) {
		return "restore"
	}
	return base
}
