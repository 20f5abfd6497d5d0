package props

import (
	"errors"
	"fmt"
)

// ErrPropertyResolution marks states the oracle cannot resolve. Callers
// classify with errors.Is; the wrapped ResolutionError carries the request.
var ErrPropertyResolution = errors.New("property resolution failed")

// ErrUnknownFluid marks lookups against a fluid the oracle does not model.
var ErrUnknownFluid = errors.New("unknown fluid")

// ResolutionError describes a state request outside the fluid's valid
// envelope.
type ResolutionError struct {
	Fluid  string
	Target Prop
	In1    Prop
	V1     float64
	In2    Prop
	V2     float64
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("props: cannot resolve %s of %s at %s=%g %s=%g: %s",
		e.Target, e.Fluid, e.In1, e.V1, e.In2, e.V2, e.Reason)
}

// Unwrap ties the error to the ErrPropertyResolution sentinel.
func (e *ResolutionError) Unwrap() error { return ErrPropertyResolution }
