package restoration

import (
	"errors"
	"fmt"

	"fringerestore/pkg/carrier"
	"fringerestore/pkg/imageio"
	"fringerestore/pkg/spectral"
	"fringerestore/pkg/unwrap"
)

// Kind classifies restoration failures.
type Kind int

const (
	// KindUnknown is any error not produced by this package
	KindUnknown Kind = iota

	// KindInput is a user-correctable problem with the request
	KindInput

	// KindConfiguration means analytic parameters put the carrier outside the spectrum
	KindConfiguration

	// KindNotFound means the automatic search found no carrier
	KindNotFound

	// KindNumerical is a failure inside the transform or the unwrapper
	KindNumerical
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not found"
	case KindNumerical:
		return "numerical"
	default:
		return "unknown"
	}
}

// Error is a classified restoration failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InputError wraps err as a KindInput failure of op.
func InputError(op string, err error) error {
	return &Error{Kind: KindInput, Op: op, Err: err}
}

// KindOf classifies err. Errors carrying an *Error report its Kind; known
// sentinels from the pipeline packages are mapped to their kinds.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}

	switch {
	case errors.Is(err, carrier.ErrOutOfBounds):
		return KindConfiguration
	case errors.Is(err, carrier.ErrNotFound):
		return KindNotFound
	case errors.Is(err, spectral.ErrNonFinite), errors.Is(err, unwrap.ErrNonFinite):
		return KindNumerical
	case errors.Is(err, imageio.ErrEmptyImage):
		return KindInput
	}
	return KindUnknown
}

// wrap classifies err and attaches the pipeline step name.
func wrap(op string, err error) error {
	kind := KindOf(err)
	if kind == KindUnknown {
		kind = KindNumerical
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
