package cycle

import "math"

// Solve evaluates one steady-state cycle point. Stations are computed in a
// single pass from free stream to nozzle exit; no station looks downstream.
// Solve never fails: physically invalid intermediates are clamped and reported
// through EngineResult.Degraded and EngineResult.Limited.
func Solve(base EngineInputs, ov Overrides) EngineResult {
	in := ov.Apply(base)
	res := EngineResult{Inputs: in}
	st := &res.Stations
	for i := range st {
		st[i].ID = StationID(i)
	}

	// Free stream and intake
	amb := FreeStream(in.AltitudeKm, in.Mach)
	res.MassFlowActual = CorrectedMassFlow(in.MassFlowDesign, amb.T, amb.P)

	st[StationFreeStream].Pt = amb.Pt
	st[StationFreeStream].Tt = amb.Tt
	st[StationFreeStream].set(FieldP, &st[StationFreeStream].P, amb.P)
	st[StationFreeStream].set(FieldT, &st[StationFreeStream].T, amb.T)
	st[StationFreeStream].set(FieldV, &st[StationFreeStream].V, amb.C)

	sigmaInlet := in.SigmaInlet
	if !in.TextbookMode {
		sigmaInlet = InletRecovery(in.Mach)
	}
	pt2 := amb.Pt * sigmaInlet
	tt2 := amb.Tt
	st[StationFanInlet].Pt = pt2
	st[StationFanInlet].Tt = tt2

	// Fan and HPC
	pt25, tt25 := compress(pt2, tt2, in.FanPressureRatio, in.EtaFan)
	st[StationFanExit].Pt = pt25
	st[StationFanExit].Tt = tt25

	pt3, tt3 := compress(pt25, tt25, in.HPCPressureRatio, in.EtaHPC)
	m3 := 1.0 - in.Bleed - in.CoolingHPT - in.CoolingLPT
	st[StationHPCExit].Pt = pt3
	st[StationHPCExit].Tt = tt3
	st[StationHPCExit].set(FieldMassRel, &st[StationHPCExit].MassRel, m3)
	res.Limited = tt3 > in.Tt4

	// Combustor
	pt4 := pt3 * in.SigmaBurner
	f, tt4, ok := burnerFuelAir(tt3, in.Tt4, in.EtaBurner)
	if !ok {
		res.Degraded |= CombustionInfeasible
	}
	m4 := m3 * (1 + f)
	st[StationBurnerExit].Pt = pt4
	st[StationBurnerExit].Tt = tt4
	st[StationBurnerExit].set(FieldFuelAir, &st[StationBurnerExit].FuelAir, f)
	st[StationBurnerExit].set(FieldMassRel, &st[StationBurnerExit].MassRel, m4)

	// HPT: cooling air delta 1 mixed in ahead of the rotor, work matches the HPC
	m4a := m4 + in.CoolingHPT
	tt4a := coolingMix(m4, tt4, in.CoolingHPT, tt3)
	dtHPT := CpAir * (tt3 - tt25) / (m4a * CpGas * in.EtaMech)
	tt45 := math.Max(tt4a-dtHPT, amb.Tt)
	pt45, ok := expand(pt4, tt4a, tt45, in.EtaHPT)
	if !ok {
		res.Degraded |= HPTPressureHeld
	}
	st[StationHPTExit].Pt = pt45
	st[StationHPTExit].Tt = tt45
	st[StationHPTExit].set(FieldMassRel, &st[StationHPTExit].MassRel, m4a)

	// LPT: cooling air delta 2, work matches the fan plus accessory draw
	mLPT := m4a + in.CoolingLPT
	ttLPT := coolingMix(m4a, tt45, in.CoolingLPT, tt3)
	wFan := (1 + in.BypassRatio) * (CpAir*(tt25-tt2) + AccessoryPower*1000/in.EtaMech)
	tt5 := math.Max(ttLPT-wFan/(mLPT*CpGas*in.EtaMech), amb.Tt)
	pt5, ok := expand(pt45, ttLPT, tt5, in.EtaLPT)
	if !ok {
		res.Degraded |= LPTPressureHeld
	}
	st[StationLPTExit].Pt = pt5
	st[StationLPTExit].Tt = tt5
	st[StationLPTExit].set(FieldMassRel, &st[StationLPTExit].MassRel, mLPT)

	// Mixer
	mBypass := in.BypassRatio
	mTotal := mLPT + mBypass
	cpMix := (mLPT*CpGas + mBypass*CpAir) / mTotal
	kMix := cpMix / (cpMix - R)
	tt6 := (mLPT*CpGas*tt5 + mBypass*CpAir*tt25) / (mTotal * cpMix)
	pt6 := ((mLPT*pt5 + mBypass*pt25*in.SigmaBypass) / mTotal) * in.SigmaMixer
	st[StationMixerExit].Pt = pt6
	st[StationMixerExit].Tt = tt6
	st[StationMixerExit].set(FieldCp, &st[StationMixerExit].Cp, cpMix)
	st[StationMixerExit].set(FieldK, &st[StationMixerExit].K, kMix)

	// Afterburner
	pt7, tt7, fAB := pt6*in.SigmaABDry, tt6, 0.0
	if in.AfterburnerOn {
		pt7 = pt6 * in.SigmaABWet
		tt7 = in.TtAB
		fAB = math.Max(mTotal*(CpGas*tt7-cpMix*tt6)/(AfterburnerEfficiency*FuelHeatingValue), 0)
	}
	cpNoz, kNoz := cpMix, kMix
	if in.AfterburnerOn || in.TextbookMode {
		cpNoz, kNoz = CpGas, KGas
	}
	mNozzle := mTotal + fAB
	st[StationABExit].Pt = pt7
	st[StationABExit].Tt = tt7
	st[StationABExit].set(FieldMassRel, &st[StationABExit].MassRel, mNozzle)
	st[StationABExit].set(FieldFuelAir, &st[StationABExit].FuelAir, fAB)
	st[StationABExit].set(FieldCp, &st[StationABExit].Cp, cpNoz)
	st[StationABExit].set(FieldK, &st[StationABExit].K, kNoz)

	// Nozzle, fully expanded to ambient static pressure
	pt9 := pt7 * in.SigmaNozzle
	if pt9 < amb.P {
		pt9 = amb.P
		res.Degraded |= NozzleFloored
	}
	p9 := amb.P
	expansion := math.Max(pt9/p9, 1.0)
	ma9 := math.Sqrt((2 / (kNoz - 1)) * (math.Pow(expansion, (kNoz-1)/kNoz) - 1))
	t9 := tt7 / (1 + (kNoz-1)/2*ma9*ma9)
	v9 := ma9 * math.Sqrt(kNoz*R*t9)
	st[StationNozzleExit].Pt = pt9
	st[StationNozzleExit].Tt = tt7
	st[StationNozzleExit].set(FieldP, &st[StationNozzleExit].P, p9)
	st[StationNozzleExit].set(FieldT, &st[StationNozzleExit].T, t9)
	st[StationNozzleExit].set(FieldV, &st[StationNozzleExit].V, v9)

	// Performance
	mIn := 1.0 + in.BypassRatio
	thrust := mNozzle*v9 - mIn*amb.C
	res.SpecificThrust = thrust / mIn
	res.FuelMassRel = f*m3 + fAB
	res.ExitVelocity = v9
	res.NetThrust = res.SpecificThrust * res.MassFlowActual
	res.OverallPressureRatio = in.OverallPressureRatio()

	if thrust > 0 {
		res.SFC = res.FuelMassRel * 3600 / thrust
	} else {
		res.SFC = SFCPenalty
		res.Degraded |= NonPositiveThrust
	}

	switch {
	case amb.C == 0:
		res.Degraded |= StaticCondition
	case thrust > 0:
		addedKE := 0.5*mNozzle*v9*v9 - 0.5*mIn*amb.C*amb.C
		if addedKE > 0 {
			res.PropulsiveEfficiency = thrust * amb.C / addedKE
		}
	}

	return res
}

// compress applies a pressure ratio with polytropic efficiency eta to cold air
func compress(ptIn, ttIn, pi, eta float64) (pt, tt float64) {
	pt = ptIn * pi
	tt = ttIn * (1 + (math.Pow(pi, (KAir-1)/KAir)-1)/eta)
	return pt, tt
}

// burnerFuelAir solves the combustor energy balance. When the requested
// outlet temperature is not above the inlet no heat can be added: the fuel-air
// ratio is zero and the outlet temperature is capped at the inlet.
func burnerFuelAir(tt3, tt4, etaB float64) (f, tt4Eff float64, ok bool) {
	if tt4 <= tt3 || CpGas*tt4 <= CpAir*tt3 {
		return 0, tt3, false
	}
	f = (CpGas*tt4 - CpAir*tt3) / (etaB*FuelHeatingValue - CpGas*tt4)
	return math.Max(f, 0), tt4, true
}

// coolingMix blends a hot gas stream with cooling air taken at HPC exit
func coolingMix(mGas, ttGas, mCool, ttCool float64) float64 {
	return (mGas*CpGas*ttGas + mCool*CpAir*ttCool) / ((mGas + mCool) * CpGas)
}

// expand recovers turbine exit total pressure from the temperature ratio.
// It reports false and keeps the inlet pressure when the base is not positive.
func expand(ptIn, ttIn, ttOut, eta float64) (float64, bool) {
	base := 1 - (1-ttOut/ttIn)/eta
	if base <= 0 {
		return ptIn, false
	}
	return ptIn / math.Pow(base, KGas/(1-KGas)), true
}
