package cycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtmosphere(t *testing.T) {
	tests := []struct {
		name     string
		altitude float64
		wantT    float64
		wantP    float64
	}{
		{name: "sea level", altitude: 0, wantT: 288.15, wantP: 101325},
		{name: "5 km", altitude: 5, wantT: 255.65, wantP: 101325 * math.Pow(1-5/44.308, 5.25588)},
		{name: "inside tropopause band", altitude: 11.05, wantT: 216.65, wantP: 22632},
		{name: "15 km", altitude: 15, wantT: 216.65, wantP: 22632 * math.Exp(-0.1577*4)},
		{name: "20 km", altitude: 20, wantT: 216.65, wantP: 22632 * math.Exp(-0.1577*9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			T, P := Atmosphere(tt.altitude)
			assert.InDelta(t, tt.wantT, T, 1e-9)
			assert.InDelta(t, tt.wantP, P, 1e-6)
		})
	}
}

func TestAtmosphere_TropopauseContinuity(t *testing.T) {
	T1, P1 := Atmosphere(11.0)
	for _, eps := range []float64{1e-9, 1e-6, 1e-3, 0.05, 0.0999} {
		T2, P2 := Atmosphere(11.0 + eps)
		assert.InDelta(t, T1, T2, 1e-9, "temperature jump at 11+%g km", eps)
		assert.InEpsilon(t, P1, P2, 2e-3, "pressure jump at 11+%g km", eps)
	}

	// leaving the band switches to the exponential law without a step
	_, Pin := Atmosphere(11.0999)
	_, Pout := Atmosphere(11.1)
	assert.InEpsilon(t, Pin, Pout, 2e-2)
}

func TestCorrectedMassFlow(t *testing.T) {
	assert.InDelta(t, 100.0, CorrectedMassFlow(100, SeaLevelTemperature, SeaLevelPressure), 1e-12)

	T, P := Atmosphere(11)
	w := CorrectedMassFlow(100, T, P)
	assert.Less(t, w, 100.0)
	assert.InDelta(t, 100*(P/101325)/math.Sqrt(T/288.15), w, 1e-9)

	assert.Equal(t, 0.0, CorrectedMassFlow(100, 0, P))
}

func TestFreeStream(t *testing.T) {
	amb := FreeStream(0, 0)
	assert.Equal(t, 0.0, amb.C)
	assert.InDelta(t, amb.T, amb.Tt, 1e-12)
	assert.InDelta(t, amb.P, amb.Pt, 1e-9)
	assert.InDelta(t, 340.29, amb.A, 0.01)

	amb = FreeStream(11, 2)
	assert.InDelta(t, 216.65*1.8, amb.Tt, 1e-9)
	assert.InDelta(t, amb.P*math.Pow(1.8, 3.5), amb.Pt, 1e-6)
	assert.InDelta(t, 2*amb.A, amb.C, 1e-12)
}

func TestInletRecovery(t *testing.T) {
	tests := []struct {
		mach float64
		want float64
	}{
		{0, 0.97},
		{0.8, 0.97},
		{1.0, 0.97},
		{2.0, 0.97 * (1 - 0.075)},
		{3.0, 0.97 * (1 - 0.075*math.Pow(2, 1.35))},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, InletRecovery(tt.mach), 1e-12, "mach %g", tt.mach)
	}
}
