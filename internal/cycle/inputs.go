package cycle

// EngineInputs is the complete configuration of one cycle point.
// It is passed by value and never modified by Solve.
type EngineInputs struct {
	// Flight condition
	AltitudeKm float64 `mapstructure:"altitude_km" json:"altitude_km"`
	Mach       float64 `mapstructure:"mach" json:"mach"`

	// Reference performance, only used to display deltas
	RefFsWet  float64 `mapstructure:"ref_fs_wet" json:"ref_fs_wet"`
	RefSfcWet float64 `mapstructure:"ref_sfc_wet" json:"ref_sfc_wet"`
	RefFsDry  float64 `mapstructure:"ref_fs_dry" json:"ref_fs_dry"`
	RefSfcDry float64 `mapstructure:"ref_sfc_dry" json:"ref_sfc_dry"`

	MassFlowDesign   float64 `mapstructure:"mass_flow_design" json:"mass_flow_design"` // kg/s at sea level
	BypassRatio      float64 `mapstructure:"bypass_ratio" json:"bypass_ratio"`
	FanPressureRatio float64 `mapstructure:"fan_pressure_ratio" json:"fan_pressure_ratio"`
	HPCPressureRatio float64 `mapstructure:"hpc_pressure_ratio" json:"hpc_pressure_ratio"`
	Tt4              float64 `mapstructure:"tt4" json:"tt4"` // K

	AfterburnerOn bool    `mapstructure:"afterburner_on" json:"afterburner_on"`
	TtAB          float64 `mapstructure:"tt_ab" json:"tt_ab"` // K

	// TextbookMode selects the configured inlet recovery and fixed hot-gas
	// nozzle properties instead of the empirical correlations.
	TextbookMode bool `mapstructure:"textbook_mode" json:"textbook_mode"`

	// Polytropic, mechanical and burner efficiencies
	EtaFan    float64 `mapstructure:"eta_fan" json:"eta_fan"`
	EtaHPC    float64 `mapstructure:"eta_hpc" json:"eta_hpc"`
	EtaHPT    float64 `mapstructure:"eta_hpt" json:"eta_hpt"`
	EtaLPT    float64 `mapstructure:"eta_lpt" json:"eta_lpt"`
	EtaMech   float64 `mapstructure:"eta_mech" json:"eta_mech"`
	EtaBurner float64 `mapstructure:"eta_burner" json:"eta_burner"`

	// Total-pressure recovery coefficients
	SigmaInlet  float64 `mapstructure:"sigma_inlet" json:"sigma_inlet"`
	SigmaBurner float64 `mapstructure:"sigma_burner" json:"sigma_burner"`
	SigmaBypass float64 `mapstructure:"sigma_bypass" json:"sigma_bypass"`
	SigmaMixer  float64 `mapstructure:"sigma_mixer" json:"sigma_mixer"`
	SigmaNozzle float64 `mapstructure:"sigma_nozzle" json:"sigma_nozzle"`
	SigmaABDry  float64 `mapstructure:"sigma_ab_dry" json:"sigma_ab_dry"`
	SigmaABWet  float64 `mapstructure:"sigma_ab_wet" json:"sigma_ab_wet"`

	// Flow splits relative to core intake flow
	Bleed      float64 `mapstructure:"bleed" json:"bleed"`             // overhead bleed, beta
	CoolingHPT float64 `mapstructure:"cooling_hpt" json:"cooling_hpt"` // delta 1
	CoolingLPT float64 `mapstructure:"cooling_lpt" json:"cooling_lpt"` // delta 2
}

// DefaultInputs returns the textbook reference engine: a low-bypass mixed
// turbofan at 11 km, Mach 1.6 with the afterburner lit.
func DefaultInputs() EngineInputs {
	return EngineInputs{
		AltitudeKm: 11,
		Mach:       1.6,

		RefFsWet:  1095.0,
		RefSfcWet: 0.1735,
		RefFsDry:  643.0,
		RefSfcDry: 0.1275,

		MassFlowDesign:   100,
		BypassRatio:      0.4,
		FanPressureRatio: 3.8,
		HPCPressureRatio: 4.474,
		Tt4:              1800,

		AfterburnerOn: true,
		TtAB:          2000,
		TextbookMode:  true,

		EtaFan:    0.868,
		EtaHPC:    0.878,
		EtaHPT:    0.89,
		EtaLPT:    0.91,
		EtaMech:   0.98,
		EtaBurner: 0.98,

		SigmaInlet:  0.97,
		SigmaBurner: 0.97,
		SigmaBypass: 0.98,
		SigmaMixer:  0.97,
		SigmaNozzle: 0.98,
		SigmaABDry:  0.98,
		SigmaABWet:  0.95,

		Bleed:      0.01,
		CoolingHPT: 0.05,
		CoolingLPT: 0.05,
	}
}

// OverallPressureRatio is the product of fan and HPC pressure ratios
func (in EngineInputs) OverallPressureRatio() float64 {
	return in.FanPressureRatio * in.HPCPressureRatio
}

// Reference returns the reference specific thrust and SFC matching the afterburner state
func (in EngineInputs) Reference() (fs, sfc float64) {
	if in.AfterburnerOn {
		return in.RefFsWet, in.RefSfcWet
	}
	return in.RefFsDry, in.RefSfcDry
}
