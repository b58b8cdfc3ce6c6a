package cycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *EngineInputs)
		errMsg string
	}{
		{"defaults", func(in *EngineInputs) {}, ""},
		{"low tt4 is a solver limit", func(in *EngineInputs) { in.Tt4 = 500 }, ""},
		{"zero fan efficiency", func(in *EngineInputs) { in.EtaFan = 0 }, "eta_fan must be in (0, 1]"},
		{"recovery above one", func(in *EngineInputs) { in.SigmaMixer = 1.01 }, "sigma_mixer"},
		{"nan efficiency", func(in *EngineInputs) { in.EtaHPT = math.NaN() }, "eta_hpt"},
		{"infinite mach", func(in *EngineInputs) { in.Mach = math.Inf(1) }, "mach must be finite"},
		{"negative bypass", func(in *EngineInputs) { in.BypassRatio = -1 }, "bypass_ratio"},
		{"hpc ratio below one", func(in *EngineInputs) { in.HPCPressureRatio = 0.5 }, "pressure ratios"},
		{"zero mass flow", func(in *EngineInputs) { in.MassFlowDesign = 0 }, "mass_flow_design"},
		{"cooling sum", func(in *EngineInputs) { in.CoolingHPT = 0.6; in.CoolingLPT = 0.4 }, "bleed and cooling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultInputs()
			tt.mutate(&in)
			err := in.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_ReportsFirstCoefficientInOrder(t *testing.T) {
	in := DefaultInputs()
	in.EtaFan = 0
	in.EtaLPT = 2
	in.SigmaNozzle = 0
	in.SigmaABWet = -1

	for i := 0; i < 20; i++ {
		err := in.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "eta_fan")
	}
}
