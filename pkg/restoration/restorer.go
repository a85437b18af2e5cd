// Package restoration runs the full phase restoration pipeline: aperture
// masking, spectral demodulation, unwrapping, orientation correction and
// sparsification.
package restoration

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"fringerestore/internal/models"
	"fringerestore/pkg/aperture"
	"fringerestore/pkg/carrier"
	"fringerestore/pkg/demodulation"
	"fringerestore/pkg/sparse"
	"fringerestore/pkg/spectral"
	"fringerestore/pkg/unwrap"
)

// Params holds the restoration configuration shared by every request.
type Params struct {
	// Stride is the sampling step of the sparse result.
	// Values below 1 fall back to sparse.DefaultStride.
	Stride int

	// ExclusionRadius is the radius around DC ignored by the automatic
	// carrier search. Zero or negative values fall back to carrier.DefaultExclusionRadius.
	ExclusionRadius float64

	// Unwrapper turns the wrapped phase into a continuous one.
	// Defaults to the reliability-sorted unwrapper.
	Unwrapper unwrap.Unwrapper

	// SaveIntermediaryResults writes stage images under IntermediaryDir.
	SaveIntermediaryResults bool

	// IntermediaryDir is the root directory for stage images.
	IntermediaryDir string

	// Logger receives step-level diagnostics. Defaults to the logrus standard logger.
	Logger *logrus.Logger
}

// Request describes one restoration.
type Request struct {
	// ID identifies the request in logs and intermediary file names
	ID string

	// Intensity is the interferogram. It is not modified.
	Intensity *models.Grid

	// Aperture is aperture.None{} or aperture.Masked{}. Nil means None.
	Aperture aperture.Mode

	// Carrier is carrier.Automatic{} or carrier.Analytic{}. Nil means Automatic.
	Carrier carrier.Mode
}

// Stats summarizes the valid samples of the restored phase.
type Stats struct {
	ValidPixels int
	Mean        float64
	StdDev      float64
}

// Report is the outcome of a restoration.
type Report struct {
	// Result is the sparse wire form
	Result *sparse.Result

	// Carrier is the sideband bin that was demodulated
	Carrier models.Carrier

	// WindowRadius is the half-width of the band-pass window
	WindowRadius int

	// Sign is the orientation sign; the phase was multiplied by -Sign
	Sign int

	// Phase is the full restored phase map after sign correction
	Phase *models.Grid

	// Mask is the validity mask, nil without an aperture
	Mask *models.Mask

	Stats   Stats
	Elapsed time.Duration
}

// Restorer runs restorations. It keeps no per-request state and is safe
// for concurrent use; every call plans its own transforms.
type Restorer struct {
	params Params
}

// NewRestorer creates a restorer with the provided parameters, filling in
// defaults for unset fields.
func NewRestorer(params *Params) *Restorer {
	p := Params{}
	if params != nil {
		p = *params
	}
	if p.Stride < 1 {
		p.Stride = sparse.DefaultStride
	}
	if p.ExclusionRadius <= 0 {
		p.ExclusionRadius = carrier.DefaultExclusionRadius
	}
	if p.Unwrapper == nil {
		p.Unwrapper = unwrap.NewReliability()
	}
	if p.Logger == nil {
		p.Logger = logrus.StandardLogger()
	}
	return &Restorer{params: p}
}

// run carries the intermediate arrays of a single restoration
type run struct {
	params *Params
	log    *logrus.Entry
	id     string

	intensity *models.Grid
	mask      *models.Mask
	tr        *spectral.Transformer
	spectrum  *models.ComplexGrid
	carrier   models.Carrier
	radius    int
	window    *models.Grid
	wrapped   *models.Grid
	sign      int
	phase     *models.Grid
}

// Restore runs the complete pipeline for req.
func (r *Restorer) Restore(req Request) (*Report, error) {
	start := time.Now()

	if err := validate(&req); err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = "restore"
	}
	state := &run{
		params: &r.params,
		log:    r.params.Logger.WithField("request_id", id),
		id:     id,
	}

	// Step 1: Restrict the interferogram to the aperture
	state.intensity, state.mask = aperture.Apply(req.Intensity, req.Aperture)
	state.log.WithFields(logrus.Fields{
		"rows":   req.Intensity.Rows,
		"cols":   req.Intensity.Cols,
		"masked": state.mask != nil,
	}).Debug("Step 1: aperture applied")
	state.save("01_masked_intensity", state.intensity, nil)

	// Step 2: Forward transform
	if err := state.transform(); err != nil {
		return nil, err
	}

	// Step 3: Carrier localization
	if err := state.locate(req.Carrier); err != nil {
		return nil, err
	}

	// Step 4: Band-pass and demodulation
	if err := state.demodulate(); err != nil {
		return nil, err
	}

	// Step 5: Unwrapping
	if err := state.unwrap(); err != nil {
		return nil, err
	}

	// Step 6: Orientation correction and sparsification
	state.sign = carrier.Orientation(req.Intensity.Rows, req.Intensity.Cols, state.carrier)
	state.phase = carrier.Correct(state.phase, state.sign)
	state.save("05_restored_phase", state.phase, state.mask)

	result, err := sparse.Sparsify(state.phase, state.mask, r.params.Stride)
	if err != nil {
		return nil, wrap("sparsify", err)
	}

	report := &Report{
		Result:       result,
		Carrier:      state.carrier,
		WindowRadius: state.radius,
		Sign:         state.sign,
		Phase:        state.phase,
		Mask:         state.mask,
		Stats:        summarize(state.phase, state.mask),
		Elapsed:      time.Since(start),
	}

	state.log.WithFields(logrus.Fields{
		"carrier": report.Carrier.String(),
		"radius":  report.WindowRadius,
		"sign":    report.Sign,
		"min":     result.Peaks[0],
		"max":     result.Peaks[1],
		"triples": len(result.Matrix),
		"elapsed": report.Elapsed,
	}).Info("Restoration completed")

	return report, nil
}

func validate(req *Request) error {
	if err := req.Intensity.Validate(); err != nil {
		return InputError("validate", err)
	}

	if req.Aperture == nil {
		req.Aperture = aperture.None{}
	}
	if m, ok := req.Aperture.(aperture.Masked); ok {
		switch {
		case m.Radius < 0:
			return InputError("validate", fmt.Errorf("aperture radius must be non-negative, got %d", m.Radius))
		case m.Radius == 0:
			// a zero radius disables the aperture
			req.Aperture = aperture.None{}
		}
	}

	if req.Carrier == nil {
		req.Carrier = carrier.Automatic{}
	}
	if a, ok := req.Carrier.(carrier.Analytic); ok {
		if a.Wavelength <= 0 {
			return InputError("validate", fmt.Errorf("wavelength must be positive, got %g", a.Wavelength))
		}
		if a.Size.Width < 0 || a.Size.Height < 0 || (a.Size.Width == 0 && a.Size.Height == 0) {
			return InputError("validate", fmt.Errorf("analytic mode needs a positive width or height, got %gx%g",
				a.Size.Width, a.Size.Height))
		}
	}
	return nil
}

func (s *run) transform() error {
	s.tr = spectral.NewTransformer(s.intensity.Rows, s.intensity.Cols)

	spectrum, err := s.tr.ForwardReal(s.intensity)
	if err != nil {
		return wrap("forward transform", err)
	}
	s.spectrum = spectrum

	s.log.Debug("Step 2: forward transform computed")
	s.saveSpectrum("02_spectrum_magnitude")
	return nil
}

func (s *run) locate(mode carrier.Mode) error {
	c, err := carrier.Locate(s.spectrum, mode, s.params.ExclusionRadius)
	if err != nil {
		return wrap("locate carrier", err)
	}
	s.carrier = c

	s.log.WithFields(logrus.Fields{
		"mode":    fmt.Sprintf("%T", mode),
		"carrier": c.String(),
	}).Debug("Step 3: carrier located")
	return nil
}

func (s *run) demodulate() error {
	rows, cols := s.spectrum.Rows, s.spectrum.Cols
	s.radius = demodulation.WindowRadius(rows, cols, s.carrier)
	s.window = demodulation.Synthesize(rows, cols, s.carrier, s.radius)
	s.save("03_bandpass_window", s.window, nil)

	wrapped, err := demodulation.Demodulate(s.tr, s.spectrum, s.window, s.carrier)
	if err != nil {
		return wrap("demodulate", err)
	}
	s.wrapped = wrapped

	s.log.WithField("radius", s.radius).Debug("Step 4: carrier demodulated")
	s.save("04_wrapped_phase", s.wrapped, s.mask)
	return nil
}

func (s *run) unwrap() error {
	phase, err := s.params.Unwrapper.Unwrap(s.wrapped, s.mask)
	if err != nil {
		return wrap("unwrap", err)
	}
	if phase == nil || phase.Rows != s.wrapped.Rows || phase.Cols != s.wrapped.Cols {
		return wrap("unwrap", fmt.Errorf("unwrapper returned a map of the wrong shape"))
	}
	s.phase = phase

	s.log.Debug("Step 5: phase unwrapped")
	return nil
}

// summarize computes statistics over the valid samples
func summarize(phase *models.Grid, mask *models.Mask) Stats {
	values := make([]float64, 0, len(phase.Data))
	for i, v := range phase.Data {
		if mask == nil || !mask.Invalid[i] {
			values = append(values, v)
		}
	}

	st := Stats{ValidPixels: len(values)}
	switch len(values) {
	case 0:
	case 1:
		st.Mean = values[0]
	default:
		st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
	}
	return st
}
