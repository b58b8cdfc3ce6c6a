package models

import (
	"fmt"
	"strings"
	"time"

	"turbocycle/internal/cycle"
)

// SweepKind names the axis (or axes) a sweep varies
type SweepKind string

const (
	SweepOPR      SweepKind = "opr"      // overall pressure ratio at fixed fan PR and Tt4
	SweepBypass   SweepKind = "bypass"   // bypass ratio
	SweepTt4      SweepKind = "tt4"      // turbine inlet temperature
	SweepEnvelope SweepKind = "envelope" // Mach x altitude grid
)

// SweepKinds lists every supported kind
func SweepKinds() []SweepKind {
	return []SweepKind{SweepOPR, SweepBypass, SweepTt4, SweepEnvelope}
}

// ParseSweepKind accepts a kind name, case-insensitively
func ParseSweepKind(s string) (SweepKind, error) {
	k := SweepKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SweepKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sweep kind: %s (must be opr, bypass, tt4, or envelope)", s)
}

// AxisLabel is the x axis name used in reports
func (k SweepKind) AxisLabel() string {
	switch k {
	case SweepOPR:
		return "Overall pressure ratio"
	case SweepBypass:
		return "Bypass ratio"
	case SweepTt4:
		return "Tt4 (K)"
	case SweepEnvelope:
		return "Mach"
	default:
		return string(k)
	}
}

// SweepRun is one execution of a sweep driver over a base configuration
type SweepRun struct {
	ID         string             `json:"id"`
	Kind       SweepKind          `json:"kind"`
	CreatedAt  time.Time          `json:"created_at"`
	Inputs     cycle.EngineInputs `json:"inputs"`
	PointCount int                `json:"point_count"`

	// Optimum is the valid point with the lowest SFC
	HasOptimum bool    `json:"has_optimum"`
	OptimumX   float64 `json:"optimum_x"`
	OptimumY   float64 `json:"optimum_y"`
}

// SweepPoint is one evaluated grid point. X is the swept value (Mach for the
// envelope) and Y the second axis (altitude in km for the envelope, else 0).
type SweepPoint struct {
	RunID     string  `json:"run_id,omitempty"`
	Index     int     `json:"index"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Fs        float64 `json:"fs"`
	SFC       float64 `json:"sfc"`
	NetThrust float64 `json:"net_thrust"` // N
	EtaP      float64 `json:"eta_p"`
	Tt3       float64 `json:"tt3"`
	Limited   bool    `json:"limited"` // Tt3 exceeds the configured Tt4
	Valid     bool    `json:"valid"`
	Reason    string  `json:"reason,omitempty"` // why the point is invalid
}

// NewSweepPoint copies the reported figures of a solved point
func NewSweepPoint(index int, x, y float64, res cycle.EngineResult) SweepPoint {
	return SweepPoint{
		Index:     index,
		X:         x,
		Y:         y,
		Fs:        res.SpecificThrust,
		SFC:       res.SFC,
		NetThrust: res.NetThrust,
		EtaP:      res.PropulsiveEfficiency,
		Tt3:       res.Station(cycle.StationHPCExit).Tt,
		Limited:   res.Limited,
	}
}

// Invalidate marks the point as unusable with a reason
func (p *SweepPoint) Invalidate(reason string) {
	p.Valid = false
	p.Reason = reason
}
