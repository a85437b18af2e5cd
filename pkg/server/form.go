package server

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"fringerestore/pkg/aperture"
	"fringerestore/pkg/carrier"
	"fringerestore/pkg/imageio"
	"fringerestore/pkg/restoration"
)

const (
	msgNoFile        = "No image file provided"
	msgEmptyFilename = "Empty filename"
)

// formError is a user-facing 400 message
type formError struct {
	msg string
}

func (e *formError) Error() string { return e.msg }

func badForm(format string, args ...interface{}) error {
	return &formError{msg: fmt.Sprintf(format, args...)}
}

// parseRestoreForm reads the multipart upload and the optional numeric
// fields into a restoration request.
//
// Fields:
//   - file: the interferogram image (required)
//   - lambda: wavelength in nanometres
//   - radius: aperture radius in pixels, 0 disables the aperture
//   - xAngle, yAngle: tilt angles, default 0
//   - xSize, ySize: physical extent in millimetres; ySize only counts when xSize is absent
//
// The analytic carrier is used only when lambda, a size and a non-zero
// angle are all present.
func parseRestoreForm(r *http.Request, maxBytes int64) (restoration.Request, error) {
	var req restoration.Request

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return req, badForm("Upload exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, http.ErrNotMultipart):
			return req, &formError{msg: msgNoFile}
		default:
			return req, badForm("Malformed form: %v", err)
		}
	}

	file, err := uploadedFile(r.MultipartForm)
	if err != nil {
		return req, err
	}
	defer file.Close()

	intensity, _, err := imageio.Decode(file)
	if err != nil {
		return req, badForm("Image processing failed: %v", err)
	}
	req.Intensity = intensity

	values := formValues(r.MultipartForm.Value)

	lambda, hasLambda, err := values.number("lambda")
	if err != nil {
		return req, err
	}
	if hasLambda && lambda <= 0 {
		return req, badForm("Invalid 'lambda' parameter: must be positive")
	}

	radius, hasRadius, err := values.integer("radius")
	if err != nil {
		return req, err
	}
	req.Aperture = aperture.None{}
	if hasRadius {
		if radius < 0 {
			return req, badForm("Invalid 'radius' parameter: must be non-negative")
		}
		if radius > 0 {
			req.Aperture = aperture.Masked{Radius: radius}
		}
	}

	var angle carrier.Angle
	if angle.X, _, err = values.number("xAngle"); err != nil {
		return req, err
	}
	if angle.Y, _, err = values.number("yAngle"); err != nil {
		return req, err
	}

	var size carrier.Size
	xSize, hasX, err := values.number("xSize")
	if err != nil {
		return req, err
	}
	hasSize := hasX
	if hasX {
		size.Width = xSize
	} else {
		ySize, hasY, err := values.number("ySize")
		if err != nil {
			return req, err
		}
		size.Height = ySize
		hasSize = hasY
	}

	req.Carrier = carrier.Automatic{}
	if hasLambda && hasSize && !angle.IsZero() {
		req.Carrier = carrier.Analytic{Wavelength: lambda, Size: size, Angle: angle}
	}

	return req, nil
}

func uploadedFile(form *multipart.Form) (multipart.File, error) {
	if headers := form.File["file"]; len(headers) > 0 {
		if headers[0].Filename == "" {
			return nil, &formError{msg: msgEmptyFilename}
		}
		f, err := headers[0].Open()
		if err != nil {
			return nil, badForm("Image processing failed: %v", err)
		}
		return f, nil
	}
	// a part without a filename is stored as a plain value
	if _, ok := form.Value["file"]; ok {
		return nil, &formError{msg: msgEmptyFilename}
	}
	return nil, &formError{msg: msgNoFile}
}

type formValues map[string][]string

func (v formValues) get(key string) (string, bool) {
	vals := v[key]
	if len(vals) == 0 {
		return "", false
	}
	s := strings.TrimSpace(vals[0])
	return s, s != ""
}

func (v formValues) number(key string) (float64, bool, error) {
	s, ok := v.get(key)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, badForm("Invalid '%s' parameter: %q is not a number", key, s)
	}
	return f, true, nil
}

func (v formValues) integer(key string) (int, bool, error) {
	s, ok := v.get(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, badForm("Invalid '%s' parameter: %q is not an integer", key, s)
	}
	return n, true, nil
}
