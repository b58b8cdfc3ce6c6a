package cycle

import "math"

// Ambient holds the free-stream static state at a flight condition
type Ambient struct {
	T  float64 // static temperature, K
	P  float64 // static pressure, Pa
	A  float64 // speed of sound, m/s
	C  float64 // flight velocity, m/s
	Tt float64 // total temperature, K
	Pt float64 // total pressure, Pa
}

// Atmosphere returns the standard-atmosphere static temperature (K) and pressure (Pa)
// at an altitude given in km.
func Atmosphere(altitudeKm float64) (T, P float64) {
	if altitudeKm <= TropopauseAltitude {
		T = SeaLevelTemperature - lapseRate*altitudeKm
		P = SeaLevelPressure * math.Pow(1-altitudeKm/barometricScale, barometricExponent)
		return T, P
	}

	T = TropopauseTemp
	if math.Abs(altitudeKm-TropopauseAltitude) >= tropopauseBand {
		P = TropopausePressure * math.Exp(-stratosphereDecay*(altitudeKm-TropopauseAltitude))
	} else {
		P = TropopausePressure
	}
	return T, P
}

// CorrectedMassFlow scales a sea-level design mass flow to the ambient state
// using the corrected-flow law W = W_design * delta / sqrt(theta).
func CorrectedMassFlow(design, T, P float64) float64 {
	theta := T / SeaLevelTemperature
	delta := P / SeaLevelPressure
	if theta <= 0 {
		return 0
	}
	return design * delta / math.Sqrt(theta)
}

// FreeStream resolves the ambient and stagnation state for a flight condition.
func FreeStream(altitudeKm, mach float64) Ambient {
	T, P := Atmosphere(altitudeKm)
	a := math.Sqrt(KAir * R * T)
	ratio := 1 + (KAir-1)/2*mach*mach
	return Ambient{
		T:  T,
		P:  P,
		A:  a,
		C:  mach * a,
		Tt: T * ratio,
		Pt: P * math.Pow(ratio, KAir/(KAir-1)),
	}
}

// InletRecovery is the empirical total-pressure recovery of the intake:
// constant when subsonic, falling off with (M-1)^1.35 above Mach 1.
func InletRecovery(mach float64) float64 {
	if mach <= 1.0 {
		return subsonicRecovery
	}
	return subsonicRecovery * (1.0 - recoveryLossCoeff*math.Pow(mach-1, recoveryLossExponent))
}
