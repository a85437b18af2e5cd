package restoration

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fringerestore/internal/models"
	"fringerestore/pkg/aperture"
	"fringerestore/pkg/carrier"
	"fringerestore/pkg/unwrap"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fringes builds I = 128 + 100·cos(2π·periods·x/cols)
func fringes(rows, cols int, periods float64) *models.Grid {
	g := models.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.Set(r, c, 128+100*math.Cos(2*math.Pi*periods*float64(c)/float64(cols)))
		}
	}
	return g
}

func TestRestoreFlatPhase(t *testing.T) {
	restorer := NewRestorer(&Params{Logger: quietLogger()})
	input := fringes(64, 64, 6)
	original := input.Clone()

	report, err := restorer.Restore(Request{ID: "flat", Intensity: input})
	require.NoError(t, err)

	assert.Equal(t, 32, report.Carrier.Row)
	assert.Contains(t, []int{26, 38}, report.Carrier.Col)
	assert.Equal(t, 6, report.WindowRadius)
	assert.Nil(t, report.Mask)

	require.Len(t, report.Result.Matrix, 13*13)
	c := report.Result.Matrix[0].Value
	for _, tr := range report.Result.Matrix {
		assert.InDelta(t, c, tr.Value, 0.05, "sample (%d,%d)", tr.Row, tr.Col)
	}
	assert.InDelta(t, report.Result.Peaks[0], report.Result.Peaks[1], 0.05)
	assert.LessOrEqual(t, report.Result.Peaks[0], report.Result.Peaks[1])

	assert.Equal(t, 64*64, report.Stats.ValidPixels)
	assert.Less(t, report.Stats.StdDev, 0.05)

	// the request intensity is left untouched
	assert.Equal(t, original.Data, input.Data)
}

func TestRestoreMatrixOrder(t *testing.T) {
	restorer := NewRestorer(&Params{Logger: quietLogger(), Stride: 10})

	report, err := restorer.Restore(Request{Intensity: fringes(32, 48, 8)})
	require.NoError(t, err)

	require.Len(t, report.Result.Matrix, 4*5)
	i := 0
	for r := 0; r < 32; r += 10 {
		for c := 0; c < 48; c += 10 {
			assert.Equal(t, r, report.Result.Matrix[i].Row)
			assert.Equal(t, c, report.Result.Matrix[i].Col)
			i++
		}
	}
}

func TestRestoreWithAperture(t *testing.T) {
	restorer := NewRestorer(&Params{Logger: quietLogger()})

	report, err := restorer.Restore(Request{
		Intensity: fringes(64, 64, 6),
		Aperture:  aperture.Masked{Radius: 20},
	})
	require.NoError(t, err)
	require.NotNil(t, report.Mask)

	assert.Equal(t, 32, report.Carrier.Row)
	assert.InDelta(t, 6, math.Abs(float64(report.Carrier.Col-32)), 1)

	for _, tr := range report.Result.Matrix {
		if report.Mask.IsInvalid(tr.Row, tr.Col) {
			assert.Zero(t, tr.Value, "masked sample (%d,%d)", tr.Row, tr.Col)
		}
	}
	for i, invalid := range report.Mask.Invalid {
		if invalid {
			assert.Zero(t, report.Phase.Data[i])
		}
	}

	assert.Equal(t, report.Mask.ValidCount(), report.Stats.ValidPixels)
	assert.LessOrEqual(t, report.Result.Peaks[0], report.Result.Peaks[1])
}

func TestRestoreZeroRadiusDisablesAperture(t *testing.T) {
	restorer := NewRestorer(&Params{Logger: quietLogger()})

	report, err := restorer.Restore(Request{
		Intensity: fringes(32, 32, 8),
		Aperture:  aperture.Masked{Radius: 0},
	})
	require.NoError(t, err)
	assert.Nil(t, report.Mask)
	assert.Equal(t, 32*32, report.Stats.ValidPixels)
}

func TestRestoreAnalyticCarrier(t *testing.T) {
	restorer := NewRestorer(&Params{Logger: quietLogger()})

	// 6 mm · 0.001 / 1000 nm = 6 fringes across the width
	report, err := restorer.Restore(Request{
		Intensity: fringes(64, 64, 6),
		Carrier: carrier.Analytic{
			Wavelength: 1000,
			Size:       carrier.Size{Width: 6},
			Angle:      carrier.Angle{X: 0.001},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.Carrier{Row: 32, Col: 38}, report.Carrier)
	assert.Equal(t, -1, report.Sign)
	for _, tr := range report.Result.Matrix {
		assert.InDelta(t, report.Result.Matrix[0].Value, tr.Value, 0.05)
	}
}

func TestRestoreErrors(t *testing.T) {
	nan := fringes(16, 16, 3)
	nan.Data[5] = math.NaN()

	tests := []struct {
		name string
		req  Request
		want Kind
	}{
		{
			name: "nil intensity",
			req:  Request{},
			want: KindInput,
		},
		{
			name: "short data",
			req:  Request{Intensity: &models.Grid{Rows: 4, Cols: 4, Data: make([]float64, 3)}},
			want: KindInput,
		},
		{
			name: "negative radius",
			req:  Request{Intensity: fringes(16, 16, 3), Aperture: aperture.Masked{Radius: -1}},
			want: KindInput,
		},
		{
			name: "zero wavelength",
			req: Request{Intensity: fringes(16, 16, 3), Carrier: carrier.Analytic{
				Size: carrier.Size{Width: 10}, Angle: carrier.Angle{X: 1},
			}},
			want: KindInput,
		},
		{
			name: "zero size",
			req: Request{Intensity: fringes(16, 16, 3), Carrier: carrier.Analytic{
				Wavelength: 500, Angle: carrier.Angle{X: 0.01},
			}},
			want: KindInput,
		},
		{
			name: "negative width",
			req: Request{Intensity: fringes(16, 16, 3), Carrier: carrier.Analytic{
				Wavelength: 500, Size: carrier.Size{Width: -10}, Angle: carrier.Angle{X: 0.01},
			}},
			want: KindInput,
		},
		{
			name: "carrier outside spectrum",
			req: Request{Intensity: fringes(16, 16, 3), Carrier: carrier.Analytic{
				Wavelength: 1, Size: carrier.Size{Width: 10}, Angle: carrier.Angle{X: 1},
			}},
			want: KindConfiguration,
		},
		{
			name: "no bin outside exclusion radius",
			req:  Request{Intensity: fringes(3, 3, 1)},
			want: KindNotFound,
		},
		{
			name: "non-finite intensity",
			req:  Request{Intensity: nan},
			want: KindNumerical,
		},
	}

	restorer := NewRestorer(&Params{Logger: quietLogger()})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := restorer.Restore(tt.req)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, tt.want, KindOf(err), "error: %v", err)
		})
	}
}

func TestRestoreCustomUnwrapper(t *testing.T) {
	var called bool
	ones := unwrap.Func(func(wrapped *models.Grid, mask *models.Mask) (*models.Grid, error) {
		called = true
		out := models.NewGrid(wrapped.Rows, wrapped.Cols)
		for i := range out.Data {
			out.Data[i] = 1
		}
		return out, nil
	})

	restorer := NewRestorer(&Params{Logger: quietLogger(), Unwrapper: ones})
	report, err := restorer.Restore(Request{Intensity: fringes(32, 32, 8)})
	require.NoError(t, err)
	require.True(t, called)

	want := -float64(report.Sign)
	for _, v := range report.Phase.Data {
		assert.Equal(t, want, v)
	}
	assert.Equal(t, [2]float64{want, want}, report.Result.Peaks)
}

func TestRestoreUnwrapperFailure(t *testing.T) {
	failing := unwrap.Func(func(*models.Grid, *models.Mask) (*models.Grid, error) {
		return nil, errors.New("diverged")
	})

	restorer := NewRestorer(&Params{Logger: quietLogger(), Unwrapper: failing})
	_, err := restorer.Restore(Request{Intensity: fringes(32, 32, 8)})
	require.Error(t, err)
	assert.Equal(t, KindNumerical, KindOf(err))
	assert.ErrorContains(t, err, "diverged")
}

func TestRestoreIntermediaryResults(t *testing.T) {
	dir := t.TempDir()
	restorer := NewRestorer(&Params{
		Logger:                  quietLogger(),
		SaveIntermediaryResults: true,
		IntermediaryDir:         dir,
	})

	_, err := restorer.Restore(Request{
		ID:        "req-1",
		Intensity: fringes(32, 32, 8),
		Aperture:  aperture.Masked{Radius: 12},
	})
	require.NoError(t, err)

	for _, stage := range []string{
		"01_masked_intensity",
		"02_spectrum_magnitude",
		"03_bandpass_window",
		"04_wrapped_phase",
		"05_restored_phase",
	} {
		_, err := os.Stat(filepath.Join(dir, stage, "req-1.png"))
		assert.NoError(t, err, "stage %s", stage)
	}
}

func TestRestoreIntermediaryStaysInDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "a", "b")
	restorer := NewRestorer(&Params{
		Logger:                  quietLogger(),
		SaveIntermediaryResults: true,
		IntermediaryDir:         dir,
	})

	_, err := restorer.Restore(Request{
		ID:        "../../../escaped",
		Intensity: fringes(32, 32, 8),
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "escaped.png"))
	assert.True(t, os.IsNotExist(err), "file written outside the intermediary dir")
	_, err = os.Stat(filepath.Join(dir, "05_restored_phase", "escaped.png"))
	assert.NoError(t, err)
}

func TestFileStem(t *testing.T) {
	tests := map[string]string{
		"req-1":          "req-1",
		"../../escaped":  "escaped",
		"/etc/passwd":    "passwd",
		"..":             "restore",
		"/":              "restore",
		"a/b/../../../c": "c",
	}
	for id, want := range tests {
		assert.Equal(t, want, fileStem(id), "id %q", id)
	}
}

func TestRangeOf(t *testing.T) {
	lo, hi := rangeOf(&models.Grid{Rows: 1, Cols: 4, Data: []float64{2, -1.5, 7, 0}})
	assert.Equal(t, -1.5, lo)
	assert.Equal(t, 7.0, hi)

	lo, hi = rangeOf(&models.Grid{})
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestRestoreConcurrent(t *testing.T) {
	restorer := NewRestorer(&Params{Logger: quietLogger()})
	input := fringes(32, 32, 8)

	want, err := restorer.Restore(Request{Intensity: input})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Report, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = restorer.Restore(Request{Intensity: input})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.Result, results[i].Result)
	}
}

func TestNewRestorerDefaults(t *testing.T) {
	r := NewRestorer(&Params{Stride: 0, ExclusionRadius: -1})
	assert.Equal(t, 5, r.params.Stride)
	assert.Equal(t, float64(carrier.DefaultExclusionRadius), r.params.ExclusionRadius)

	// the zero value must not disable the DC exclusion
	assert.Equal(t, float64(carrier.DefaultExclusionRadius), NewRestorer(&Params{}).params.ExclusionRadius)
	assert.Equal(t, 2.5, NewRestorer(&Params{ExclusionRadius: 2.5}).params.ExclusionRadius)
	assert.NotNil(t, r.params.Unwrapper)
	assert.NotNil(t, r.params.Logger)

	assert.NotNil(t, NewRestorer(nil).params.Unwrapper)
}
