package cycle

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned by Validate for inputs outside the solver's domain
var ErrInvalidInput = errors.New("invalid engine input")

type namedValue struct {
	name  string
	value float64
}

// Validate rejects inputs the solver cannot evaluate to finite figures.
// Degraded but physical conditions (Tt4 below Tt3 and the like) are left to Solve.
func (in EngineInputs) Validate() error {
	all := []namedValue{
		{"altitude_km", in.AltitudeKm},
		{"mach", in.Mach},
		{"mass_flow_design", in.MassFlowDesign},
		{"bypass_ratio", in.BypassRatio},
		{"fan_pressure_ratio", in.FanPressureRatio},
		{"hpc_pressure_ratio", in.HPCPressureRatio},
		{"tt4", in.Tt4},
		{"tt_ab", in.TtAB},
		{"bleed", in.Bleed},
		{"cooling_hpt", in.CoolingHPT},
		{"cooling_lpt", in.CoolingLPT},
	}
	for _, v := range all {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidInput, v.name)
		}
	}

	if in.AltitudeKm < 0 || in.AltitudeKm > 30 {
		return fmt.Errorf("%w: altitude_km must be between 0 and 30", ErrInvalidInput)
	}
	if in.Mach < 0 {
		return fmt.Errorf("%w: mach must not be negative", ErrInvalidInput)
	}
	if in.MassFlowDesign <= 0 {
		return fmt.Errorf("%w: mass_flow_design must be greater than 0", ErrInvalidInput)
	}
	if in.BypassRatio < 0 {
		return fmt.Errorf("%w: bypass_ratio must not be negative", ErrInvalidInput)
	}
	if in.FanPressureRatio < 1 || in.HPCPressureRatio < 1 {
		return fmt.Errorf("%w: pressure ratios must be at least 1", ErrInvalidInput)
	}
	if in.Tt4 <= 0 || in.TtAB <= 0 {
		return fmt.Errorf("%w: temperatures must be greater than 0", ErrInvalidInput)
	}

	// checked in declaration order so the reported field is stable
	unit := []namedValue{
		{"eta_fan", in.EtaFan},
		{"eta_hpc", in.EtaHPC},
		{"eta_hpt", in.EtaHPT},
		{"eta_lpt", in.EtaLPT},
		{"eta_mech", in.EtaMech},
		{"eta_burner", in.EtaBurner},
		{"sigma_inlet", in.SigmaInlet},
		{"sigma_burner", in.SigmaBurner},
		{"sigma_bypass", in.SigmaBypass},
		{"sigma_mixer", in.SigmaMixer},
		{"sigma_nozzle", in.SigmaNozzle},
		{"sigma_ab_dry", in.SigmaABDry},
		{"sigma_ab_wet", in.SigmaABWet},
	}
	for _, v := range unit {
		if !(v.value > 0 && v.value <= 1) {
			return fmt.Errorf("%w: %s must be in (0, 1], got %g", ErrInvalidInput, v.name, v.value)
		}
	}

	if in.Bleed < 0 || in.CoolingHPT < 0 || in.CoolingLPT < 0 || in.Bleed+in.CoolingHPT+in.CoolingLPT >= 1 {
		return fmt.Errorf("%w: bleed and cooling fractions must be non-negative and sum below 1", ErrInvalidInput)
	}
	return nil
}
