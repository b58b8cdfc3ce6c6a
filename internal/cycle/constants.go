package cycle

// Working fluid and fuel properties
const (
	CpAir = 1005.0 // J/(kg*K), cold air
	KAir  = 1.4    // specific heat ratio, cold air
	CpGas = 1244.0 // J/(kg*K), combustion gas
	KGas  = 1.3    // specific heat ratio, combustion gas
	R     = 287.0  // J/(kg*K), gas constant

	// FuelHeatingValue is the lower heating value of kerosene in J/kg
	FuelHeatingValue = 42900.0 * 1000

	// AccessoryPower is the electrical/accessory draw on the low spool in kW per kg/s of intake flow
	AccessoryPower = 3.0

	// AfterburnerEfficiency is fixed, only the main burner efficiency is configurable
	AfterburnerEfficiency = 0.97
)

// Standard atmosphere reference values
const (
	SeaLevelTemperature = 288.15   // K
	SeaLevelPressure    = 101325.0 // Pa
	TropopauseAltitude  = 11.0     // km
	TropopauseTemp      = 216.65   // K
	TropopausePressure  = 22632.0  // Pa

	lapseRate          = 6.5     // K/km
	barometricScale    = 44.308  // km
	barometricExponent = 5.25588 // g/(R*L)
	stratosphereDecay  = 0.1577  // 1/km

	// within this distance of the tropopause the reference pressure is used as is
	tropopauseBand = 0.1 // km
)

// Empirical inlet recovery correlation
const (
	subsonicRecovery     = 0.97
	recoveryLossCoeff    = 0.075
	recoveryLossExponent = 1.35
)

// SFCPenalty is reported instead of infinity when net thrust is not positive
const SFCPenalty = 99.0
