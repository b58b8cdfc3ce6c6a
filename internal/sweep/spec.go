package sweep

import (
	"errors"
	"fmt"
	"math"

	"turbocycle/internal/models"
)

var (
	// ErrInvalidRange is returned for empty or inverted ranges
	ErrInvalidRange = errors.New("invalid sweep range")
	// ErrUnknownKind is returned for kinds without a driver
	ErrUnknownKind = errors.New("unknown sweep kind")
)

// MaxPoints caps the grid size of a single sweep
const MaxPoints = 100_000

// Spec describes the grid of a sweep. One-dimensional kinds use From/To/Step,
// the envelope uses the Mach and altitude fields.
type Spec struct {
	Kind models.SweepKind `mapstructure:"kind" json:"kind"`

	From float64 `mapstructure:"from" json:"from,omitempty"`
	To   float64 `mapstructure:"to" json:"to,omitempty"`
	Step float64 `mapstructure:"step" json:"step,omitempty"`

	// SFCCutoff drops points with a higher SFC, zero disables the cut
	SFCCutoff float64 `mapstructure:"sfc_cutoff" json:"sfc_cutoff,omitempty"`

	MaxMach     float64 `mapstructure:"max_mach" json:"max_mach,omitempty"`
	MaxAltitude float64 `mapstructure:"max_altitude" json:"max_altitude,omitempty"` // km
	MachSteps   int     `mapstructure:"mach_steps" json:"mach_steps,omitempty"`
	AltSteps    int     `mapstructure:"alt_steps" json:"alt_steps,omitempty"`
}

// DefaultSpec returns the standard grid for a kind
func DefaultSpec(kind models.SweepKind) (Spec, error) {
	switch kind {
	case models.SweepOPR:
		return Spec{Kind: kind, From: 5, To: 80, Step: 1, SFCCutoff: 15}, nil
	case models.SweepBypass:
		return Spec{Kind: kind, From: 0, To: 12, Step: 0.5}, nil
	case models.SweepTt4:
		return Spec{Kind: kind, From: 1000, To: 2500, Step: 50}, nil
	case models.SweepEnvelope:
		return Spec{Kind: kind, SFCCutoff: 5, MaxMach: 3.5, MaxAltitude: 20, MachSteps: 60, AltSteps: 50}, nil
	default:
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Validate checks the grid for the spec's kind
func (s Spec) Validate() error {
	switch s.Kind {
	case models.SweepOPR, models.SweepBypass, models.SweepTt4:
		if !(s.Step > 0) || math.IsInf(s.Step, 0) {
			return fmt.Errorf("%w: step must be greater than 0", ErrInvalidRange)
		}
		if !isFinite(s.From) || !isFinite(s.To) {
			return fmt.Errorf("%w: from and to must be finite", ErrInvalidRange)
		}
		if s.To < s.From {
			return fmt.Errorf("%w: to (%g) is below from (%g)", ErrInvalidRange, s.To, s.From)
		}
		// float count first, the int conversion overflows for tiny steps
		if n := (s.To-s.From)/s.Step + 1; n > MaxPoints {
			return fmt.Errorf("%w: %.0f points exceed the limit of %d", ErrInvalidRange, n, MaxPoints)
		}
	case models.SweepEnvelope:
		if s.MachSteps < 2 || s.AltSteps < 2 {
			return fmt.Errorf("%w: envelope needs at least 2 steps per axis", ErrInvalidRange)
		}
		if !(s.MaxMach > 0) || !(s.MaxAltitude > 0) || math.IsInf(s.MaxMach, 0) || math.IsInf(s.MaxAltitude, 0) {
			return fmt.Errorf("%w: max_mach and max_altitude must be greater than 0", ErrInvalidRange)
		}
		if s.MachSteps > MaxPoints || s.AltSteps > MaxPoints || s.MachSteps*s.AltSteps > MaxPoints {
			return fmt.Errorf("%w: %d x %d points exceed the limit of %d", ErrInvalidRange, s.MachSteps, s.AltSteps, MaxPoints)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, s.Kind)
	}
	if s.SFCCutoff < 0 || math.IsNaN(s.SFCCutoff) {
		return fmt.Errorf("%w: sfc_cutoff must not be negative", ErrInvalidRange)
	}
	return nil
}

// Values expands From/To/Step into the swept values
func (s Spec) Values() []float64 {
	n := int(math.Floor((s.To-s.From)/s.Step+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = s.From + float64(i)*s.Step
	}
	return values
}

// Size is the number of grid points before any are skipped
func (s Spec) Size() int {
	if s.Kind == models.SweepEnvelope {
		return s.MachSteps * s.AltSteps
	}
	return len(s.Values())
}

// MachAt and AltitudeAt map envelope indices to the flight condition
func (s Spec) MachAt(j int) float64 {
	return float64(j) / float64(s.MachSteps-1) * s.MaxMach
}

func (s Spec) AltitudeAt(i int) float64 {
	return float64(i) / float64(s.AltSteps-1) * s.MaxAltitude
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
