package cycle

import "strings"

// Degradation records which clamps fired while solving a point
type Degradation uint8

const (
	// CombustionInfeasible: Tt3 is at or above the requested Tt4, no fuel was added
	CombustionInfeasible Degradation = 1 << iota
	// HPTPressureHeld: the HPT pressure-ratio base was not positive, Pt4.5 = Pt4
	HPTPressureHeld
	// LPTPressureHeld: the LPT pressure-ratio base was not positive, Pt5 = Pt4.5
	LPTPressureHeld
	// NozzleFloored: nozzle total pressure was raised to ambient static pressure
	NozzleFloored
	// NonPositiveThrust: SFC is the penalty value and propulsive efficiency is zero
	NonPositiveThrust
	// StaticCondition: zero flight speed, propulsive efficiency is zero
	StaticCondition
)

var degradationNames = []string{
	"combustion_infeasible",
	"hpt_pressure_held",
	"lpt_pressure_held",
	"nozzle_floored",
	"non_positive_thrust",
	"static_condition",
}

// Has reports whether every bit of d2 is set in d
func (d Degradation) Has(d2 Degradation) bool {
	return d&d2 == d2
}

// Names lists the set conditions
func (d Degradation) Names() []string {
	names := make([]string, 0)
	for i, n := range degradationNames {
		if d&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	return names
}

func (d Degradation) String() string {
	if d == 0 {
		return "none"
	}
	return strings.Join(d.Names(), ",")
}

// MarshalText lets Degradation appear as a readable list in JSON
func (d Degradation) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// EngineResult is the aggregate output of one solve
type EngineResult struct {
	Inputs   EngineInputs               `json:"inputs"` // effective inputs, overrides applied
	Stations [NumStations]StationResult `json:"stations"`

	SpecificThrust       float64 `json:"fs"`         // N/(kg/s)
	SFC                  float64 `json:"sfc"`        // kg/(N*h)
	FuelMassRel          float64 `json:"f_total"`    // combustor plus afterburner fuel fraction
	MassFlowActual       float64 `json:"w_actual"`   // kg/s
	NetThrust            float64 `json:"net_thrust"` // N
	ExitVelocity         float64 `json:"v9"`         // m/s
	OverallPressureRatio float64 `json:"pi_total"`
	PropulsiveEfficiency float64 `json:"eta_p"`

	// Limited is set when the HPC exit temperature exceeds the configured Tt4,
	// SFC and thrust should not be trusted.
	Limited  bool        `json:"limited"`
	Degraded Degradation `json:"degraded"`
}

// Station returns the state at one station
func (r EngineResult) Station(id StationID) StationResult {
	return r.Stations[id]
}

// ThermallyValid is the envelope criterion: Tt3 does not exceed the configured Tt4
func (r EngineResult) ThermallyValid() bool {
	return !r.Limited
}

// ReferenceDelta compares specific thrust and SFC against the reference figures
// for the current afterburner state. Zero references yield zero deltas.
func (r EngineResult) ReferenceDelta() (dFs, dSFC float64) {
	fs, sfc := r.Inputs.Reference()
	if fs != 0 {
		dFs = (r.SpecificThrust - fs) / fs
	}
	if sfc != 0 {
		dSFC = (r.SFC - sfc) / sfc
	}
	return dFs, dSFC
}
