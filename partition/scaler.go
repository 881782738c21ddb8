package partition

import "math"

// kelvin converts a Celsius temperature to Kelvin using
// energy_params.ZeroCelsiusInKelvin's convention.
func kelvin(temperatureInCelsius float64) float64 {
	return temperatureInCelsius + 273.15
}

// PrepareScaling implements spec.md §4.1: it derives the per-base Boltzmann
// rescaling factor sigma (from model.PFScale, or automatically from the
// temperature when PFScale is the -1 sentinel), then fills scale[0..n] and
// expMLbase[0..n] by repeated halving rather than calling math.Pow at every
// length, which is the source of the precision drift the halving technique
// avoids.
//
// wMLBase is the Boltzmann weight of a single unpaired multibranch base,
// e^{-MultiLoopUnpairedNucleotideBonus/(10*kT)}.
func PrepareScaling(n int, model ModelDetails, wMLBase float64) ScalingVectors {
	kT := GasConstant * kelvin(model.TemperatureInCelsius) // cal/mol

	var sigma float64
	if model.PFScale < 0 {
		// log(sigma) ~= -(E_avg)/(kT*n); the -185 + (T-37)*7.27 term is an
		// empirical per-base average free energy estimate (in cal/mol, the
		// unit of kT) used to keep Z around O(1) regardless of sequence length.
		avgEnergyPerBase := -185.0 + (model.TemperatureInCelsius-37)*7.27
		sigma = math.Exp(-avgEnergyPerBase / kT)
		if sigma < 1 {
			sigma = 1
		}
	} else {
		sigma = model.PFScale
	}

	scale := make([]float64, n+2)
	expMLBase := make([]float64, n+2)
	scale[0] = 1
	expMLBase[0] = 1
	if n >= 1 {
		scale[1] = 1 / sigma
		expMLBase[1] = wMLBase * scale[1]
	}
	for u := 2; u <= n+1; u++ {
		half := u / 2
		scale[u] = scale[half] * scale[u-half]
		expMLBase[u] = expMLBase[half] * expMLBase[u-half]
	}

	return ScalingVectors{Scale: scale, ExpMLBase: expMLBase, Sigma: sigma}
}
