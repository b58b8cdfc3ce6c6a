package cycle

import (
	"encoding/json"
	"fmt"
)

// StationID identifies a point along the gas path. The numeric order is the
// order in which stations are computed.
type StationID uint8

const (
	StationFreeStream StationID = iota // 0
	StationFanInlet                    // 2
	StationFanExit                     // 2.5
	StationHPCExit                     // 3
	StationBurnerExit                  // 4
	StationHPTExit                     // 4.5
	StationLPTExit                     // 5
	StationMixerExit                   // 6
	StationABExit                      // 7
	StationNozzleExit                  // 9

	NumStations = int(StationNozzleExit) + 1
)

var stationLabels = [NumStations]string{"0", "2", "2.5", "3", "4", "4.5", "5", "6", "7", "9"}

// Stations lists every station in computation order
func Stations() []StationID {
	ids := make([]StationID, NumStations)
	for i := range ids {
		ids[i] = StationID(i)
	}
	return ids
}

func (id StationID) String() string {
	if int(id) < NumStations {
		return stationLabels[id]
	}
	return fmt.Sprintf("StationID(%d)", uint8(id))
}

// ParseStationID maps a station label such as "4.5" back to its ID
func ParseStationID(label string) (StationID, error) {
	for i, l := range stationLabels {
		if l == label {
			return StationID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown station %q", label)
}

// Field marks an optional quantity that is meaningful at a station
type Field uint8

const (
	FieldP Field = 1 << iota
	FieldT
	FieldV
	FieldFuelAir
	FieldMassRel
	FieldCp
	FieldK
)

// StationResult is the working-fluid state at one station. Pt and Tt are
// always set, the rest only where Fields says so.
type StationResult struct {
	ID StationID
	Pt float64 // total pressure, Pa
	Tt float64 // total temperature, K

	P       float64 // static pressure, Pa
	T       float64 // static temperature, K
	V       float64 // velocity, m/s
	FuelAir float64 // fuel-air ratio
	MassRel float64 // mass flow relative to core intake flow
	Cp      float64 // J/(kg*K)
	K       float64 // specific heat ratio

	Fields Field
}

// Has reports whether an optional field was populated
func (s StationResult) Has(f Field) bool {
	return s.Fields&f != 0
}

func (s *StationResult) set(f Field, dst *float64, v float64) {
	*dst = v
	s.Fields |= f
}

type stationJSON struct {
	ID      string   `json:"id"`
	Pt      float64  `json:"pt"`
	Tt      float64  `json:"tt"`
	P       *float64 `json:"p,omitempty"`
	T       *float64 `json:"t,omitempty"`
	V       *float64 `json:"v,omitempty"`
	FuelAir *float64 `json:"f,omitempty"`
	MassRel *float64 `json:"m_rel,omitempty"`
	Cp      *float64 `json:"cp,omitempty"`
	K       *float64 `json:"k,omitempty"`
}

// MarshalJSON omits fields that are not meaningful at the station
func (s StationResult) MarshalJSON() ([]byte, error) {
	out := stationJSON{ID: s.ID.String(), Pt: s.Pt, Tt: s.Tt}
	opt := func(f Field, v float64) *float64 {
		if !s.Has(f) {
			return nil
		}
		return &v
	}
	out.P = opt(FieldP, s.P)
	out.T = opt(FieldT, s.T)
	out.V = opt(FieldV, s.V)
	out.FuelAir = opt(FieldFuelAir, s.FuelAir)
	out.MassRel = opt(FieldMassRel, s.MassRel)
	out.Cp = opt(FieldCp, s.Cp)
	out.K = opt(FieldK, s.K)
	return json.Marshal(out)
}
