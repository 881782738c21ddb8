package partition

import (
	"math"

	"github.com/bebop/rnapart/energy_params"
)

// forbiddenEnergy mirrors energy_params' internal "inf" sentinel
// (10000000, used by newRawEnergyParams for geometrically impossible
// entries such as hairpin[0..2]); any tabulated energy at or above half of
// it is treated as a hard-forbidden geometry rather than scaled.
const forbiddenEnergy = 10000000 / 2

// EnergyOracle computes Boltzmann weights for loop geometries by
// consulting an *energy_params.EnergyParams table. It holds no mutable
// state beyond the precomputed kT it needs to convert tabulated
// deca-cal/mol energies into weights, so a single instance may be shared
// across concurrent FoldContexts (spec.md §5).
type EnergyOracle struct {
	Params      *energy_params.EnergyParams
	Model       ModelDetails
	kTCalPerMol float64 // R*T in cal/mol
}

// NewEnergyOracle derives the oracle's kT from the model's temperature.
func NewEnergyOracle(params *energy_params.EnergyParams, model ModelDetails) *EnergyOracle {
	return &EnergyOracle{
		Params:      params,
		Model:       model,
		kTCalPerMol: GasConstant * kelvin(model.TemperatureInCelsius),
	}
}

// boltzmann converts a tabulated energy in deca-cal/mol into a Boltzmann
// weight. energy/100 is kcal/mol per energy_params' documented convention,
// so energy*10 is cal/mol; dividing by kT (also in cal/mol) gives the
// dimensionless exponent.
func (o *EnergyOracle) boltzmann(energyDecaCal int) float64 {
	if energyDecaCal >= forbiddenEnergy {
		return 0
	}
	return math.Exp(-float64(energyDecaCal) * 10 / o.kTCalPerMol * o.Model.BetaScaleOrOne())
}

// BetaScaleOrOne returns BetaScale, defaulting to 1 when unset (the zero
// value of ModelDetails).
func (m ModelDetails) BetaScaleOrOne() float64 {
	if m.BetaScale == 0 {
		return 1
	}
	return m.BetaScale
}

// terminalAUGU returns the AU/GU terminal penalty energy (deca-cal/mol)
// for an AU, UA, GU or UG pair, and 0 for any other pair type.
func (o *EnergyOracle) terminalAUGU(pairType energy_params.BasePairType) int {
	switch pairType {
	case energy_params.AU, energy_params.UA, energy_params.GU, energy_params.UG:
		return o.Params.TerminalAUPenalty
	default:
		return 0
	}
}

// HairpinWeight computes the Boltzmann weight of a hairpin loop closed by
// pairType, of unpaired length u, with 5' and 3' mismatch bases
// mismatch5/mismatch3 (encoded per energy_params.NucleotideEncodedIntMap),
// and loopSequence the literal loop substring (including the closing
// pair) used for tetra/tri/hexaloop motif lookups.
func (o *EnergyOracle) HairpinWeight(u int, pairType energy_params.BasePairType, mismatch5, mismatch3 int, loopSequence string) float64 {
	if u < TURN {
		return 0
	}

	var energy int
	if u <= energy_params.MaxLenLoop {
		energy = o.Params.HairpinLoop[u]
	} else {
		extra := o.Params.LogExtrapolationConstant * math.Log(float64(u)/float64(energy_params.MaxLenLoop)) * 10
		energy = o.Params.HairpinLoop[energy_params.MaxLenLoop] + int(extra)
	}

	if o.Model.SpecialHairpins {
		if u == 4 {
			if bonus, ok := o.Params.TetraLoop[loopSequence]; ok {
				energy = bonus
			}
		} else if u == 6 {
			if bonus, ok := o.Params.HexaLoop[loopSequence]; ok {
				energy = bonus
			}
		} else if u == 3 {
			if bonus, ok := o.Params.TriLoop[loopSequence]; ok {
				energy = bonus
			}
		}
	}

	if u == 3 {
		energy += o.terminalAUGU(pairType)
	} else {
		energy += o.Params.MismatchHairpinLoop[pairType][mismatch5][mismatch3]
	}

	return o.boltzmann(energy)
}

// InteriorWeight computes the Boltzmann weight of an interior/bulge loop
// with u1, u2 unpaired bases on each side, closing pair type outerType
// (i,j) and enclosed pair type innerType (k,l) already expressed in the
// i->j, k->l orientation energy_params expects, and the four flanking
// bases (encoded) adjacent to the two pairs in 5'->3' order.
func (o *EnergyOracle) InteriorWeight(u1, u2 int, outerType, innerType energy_params.BasePairType, flank5Outer, flank3Outer, flank5Inner, flank3Inner int) float64 {
	switch {
	case u1 == 0 && u2 == 0:
		return o.boltzmann(o.Params.StackingPair[outerType][innerType])
	case u1 == 0 || u2 == 0:
		u := u1 + u2
		energy := o.Params.Bulge[min(u, energy_params.MaxLenLoop)]
		if u > energy_params.MaxLenLoop {
			extra := o.Params.LogExtrapolationConstant * math.Log(float64(u)/float64(energy_params.MaxLenLoop)) * 10
			energy += int(extra)
		}
		if u == 1 {
			energy += o.Params.StackingPair[outerType][innerType]
		} else {
			energy += o.terminalAUGU(outerType) + o.terminalAUGU(innerType)
		}
		return o.boltzmann(energy)
	case u1 == 1 && u2 == 1:
		return o.boltzmann(o.Params.Interior1x1Loop[outerType][innerType][flank5Outer][flank3Outer])
	case (u1 == 2 && u2 == 1) || (u1 == 1 && u2 == 2):
		return o.boltzmann(o.Params.Interior2x1Loop[outerType][innerType][flank5Outer][flank3Outer][flank5Inner])
	case u1 == 2 && u2 == 2:
		return o.boltzmann(o.Params.Interior2x2Loop[outerType][innerType][flank5Outer][flank3Outer][flank5Inner][flank3Inner])
	default:
		u := u1 + u2
		energy := o.Params.InteriorLoop[min(u, energy_params.MaxLenLoop)]
		if u > energy_params.MaxLenLoop {
			extra := o.Params.LogExtrapolationConstant * math.Log(float64(u)/float64(energy_params.MaxLenLoop)) * 10
			energy += int(extra)
		}
		switch {
		case u1 == 1 || u2 == 1:
			energy += o.Params.Mismatch1xnInteriorLoop[outerType][flank5Outer][flank3Outer] +
				o.Params.Mismatch1xnInteriorLoop[innerType][flank5Inner][flank3Inner]
		case (u1 == 2 && u2 == 3) || (u1 == 3 && u2 == 2):
			energy += o.Params.Mismatch2x3InteriorLoop[outerType][flank5Outer][flank3Outer] +
				o.Params.Mismatch2x3InteriorLoop[innerType][flank5Inner][flank3Inner]
		default:
			energy += o.Params.MismatchInteriorLoop[outerType][flank5Outer][flank3Outer] +
				o.Params.MismatchInteriorLoop[innerType][flank5Inner][flank3Inner]
		}
		return o.boltzmann(energy)
	}
}

// MLStemWeight computes the Boltzmann weight of a single stem inside a
// multibranch loop: the per-stem closing penalty, terminal AU/GU, and
// (when Model.Dangles != 0) the dangling-end contributions from the two
// flanking bases. flank5/flank3 of -1 denote a boundary with no flanking
// base (e.g. at a chain end in linear mode); dangles are skipped there.
func (o *EnergyOracle) MLStemWeight(pairType energy_params.BasePairType, flank5, flank3 int) float64 {
	energy := o.Params.MultiLoopIntern[pairType] + o.terminalAUGU(pairType)
	if o.Model.Dangles != 0 {
		if flank5 >= 0 {
			energy += o.Params.DanglingEndsFivePrime[pairType][flank5]
		}
		if flank3 >= 0 {
			energy += o.Params.DanglingEndsThreePrime[pairType][flank3]
		}
	}
	return o.boltzmann(energy)
}

// ExtStemWeight computes the Boltzmann weight of a single stem inside the
// exterior loop: terminal AU/GU plus optional dangling ends, no per-stem
// closing penalty (exterior loops aren't penalized for stem count the way
// multibranch loops are).
func (o *EnergyOracle) ExtStemWeight(pairType energy_params.BasePairType, flank5, flank3 int) float64 {
	energy := o.terminalAUGU(pairType)
	if o.Model.Dangles != 0 {
		if flank5 >= 0 {
			energy += o.Params.DanglingEndsFivePrime[pairType][flank5]
		}
		if flank3 >= 0 {
			energy += o.Params.DanglingEndsThreePrime[pairType][flank3]
		}
	}
	return o.boltzmann(energy)
}

// GQuadInteriorWeight computes the weight of an interior loop whose
// "inner pair" is replaced by a G-quadruplex. G-quadruplex energetics are
// the responsibility of the MFE module this core excludes per spec.md's
// Non-goals; here G[i,j] is taken as an opaque, externally supplied
// partition sum and this function only folds in the interior-loop
// coupling (closing-pair dependent terms), returning 0 when gquad support
// is disabled.
func (o *EnergyOracle) GQuadInteriorWeight(pairType energy_params.BasePairType) float64 {
	if !o.Model.GQuad {
		return 0
	}
	return o.boltzmann(o.terminalAUGU(pairType))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
