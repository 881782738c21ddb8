package partition

import (
	"math"

	"github.com/bebop/rnapart/energy_params"
	"golang.org/x/exp/slices"
)

// EnsembleFreeEnergy implements spec.md §4.7's F = -(ln Z + n*ln sigma)*kT/1000,
// choosing the root cell named by ctx.Model.BacktrackType.
func EnsembleFreeEnergy(ctx *FoldContext) (float64, error) {
	var z float64
	switch ctx.Model.BacktrackType {
	case BacktrackCirc:
		z = ctx.QO
	case BacktrackPair:
		z = ctx.QB.AddrIJ(1, ctx.N)
	case BacktrackML:
		z = ctx.QM.AddrIJ(1, ctx.N)
	default:
		if ctx.Model.Circular {
			z = ctx.QO
		} else {
			z = ctx.Q.AddrIJ(1, ctx.N)
		}
	}

	if z <= math.SmallestNonzeroFloat64 {
		return 0, &Underflow{}
	}

	kT := GasConstant * kelvin(ctx.Model.TemperatureInCelsius)
	n := float64(ctx.N)
	sigma := ctx.Scaling.Sigma
	return -(math.Log(z) + n*math.Log(sigma)) * kT / 1000, nil
}

// CentroidSymbol implements the symbol rule of spec.md §6: given the
// probability that column j is unpaired (x0), the total probability that j
// pairs with something > j (x1, j opens the pair), and the total
// probability that j pairs with something < j (x2, j closes the pair),
// choose one of
// {'.','(',')','{','}','|',',',':'}.
func CentroidSymbol(x0, x1, x2 float64) byte {
	const threshold = 0.667
	switch {
	case x0 > threshold:
		return '.'
	case x1 > threshold:
		return '('
	case x2 > threshold:
		return ')'
	case x1+x2 > x0:
		switch {
		case x1/(x1+x2) > threshold:
			return '{'
		case x2/(x1+x2) > threshold:
			return '}'
		default:
			return '|'
		}
	case x0 > x1+x2:
		return ','
	default:
		return ':'
	}
}

// CentroidStructure computes the per-column centroid symbol string for the
// whole sequence from ctx.Probs.
func CentroidStructure(ctx *FoldContext) string {
	n := ctx.N
	out := make([]byte, n)
	for j := 1; j <= n; j++ {
		var x1, x2 float64
		for k := j + 1; k <= n; k++ {
			x1 += ctx.Probs.AddrIJ(j, k)
		}
		for i := 1; i < j; i++ {
			x2 += ctx.Probs.AddrIJ(i, j)
		}
		x0 := 1 - x1 - x2
		if x0 < 0 {
			x0 = 0
		}
		out[j-1] = CentroidSymbol(x0, x1, x2)
	}
	return string(out)
}

// MeanBasePairDistance implements spec.md §4.7's
// 2 * sum_{i<j} probs[i,j]*(1-probs[i,j]).
func MeanBasePairDistance(ctx *FoldContext) float64 {
	n := ctx.N
	var sum float64
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			p := ctx.Probs.AddrIJ(i, j)
			sum += p * (1 - p)
		}
	}
	return 2 * sum
}

// StackProbability implements spec.md §4.7's p_stack(i,j), the probability
// that (i,j) is stacked directly on (i+1,j-1). Returns 0 (not an error)
// when either qb cell is below the smallest representable float, per the
// spec's "skip" instruction.
func StackProbability(ctx *FoldContext, oracle *EnergyOracle, i, j int) float64 {
	qbIJ := ctx.QB.AddrIJ(i, j)
	qbInner := ctx.QB.AddrIJ(i+1, j-1)
	if qbIJ < math.SmallestNonzeroFloat64 || qbInner < math.SmallestNonzeroFloat64 {
		return 0
	}
	outerType := energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1])
	innerType := reversePairType(energy_params.EncodeBasePair(ctx.Sequence[i], ctx.Sequence[j-2]))
	weight := oracle.InteriorWeight(0, 0, outerType, innerType, base(ctx, i+1), base(ctx, j-1), base(ctx, i), base(ctx, j))
	return ctx.Probs.AddrIJ(i, j) * qbInner / qbIJ * weight * ctx.Scaling.Scale[2]
}

// PairProbability is a single entry in a PList export: the probability
// that i pairs with j, and (when the cell is a G-quadruplex) its type tag.
type PairProbability struct {
	I, J int
	P    float64
	GQuad bool
}

// PList implements spec.md §4.7's plist export: every (i,j) with
// probability >= cutoff, sorted by decreasing probability (ties broken by
// position) via golang.org/x/exp/slices.SortFunc, with a separate
// aggregate entry for each nonzero G-quadruplex cell.
func PList(ctx *FoldContext, cutoff float64) []PairProbability {
	n := ctx.N
	var out []PairProbability
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			p := ctx.Probs.AddrIJ(i, j)
			if p >= cutoff {
				out = append(out, PairProbability{I: i, J: j, P: p})
			}
			if ctx.Model.GQuad && ctx.G != nil {
				if g := ctx.G.AddrIJ(i, j); g > 0 {
					out = append(out, PairProbability{I: i, J: j, P: g, GQuad: true})
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b PairProbability) bool {
		if a.P != b.P {
			return a.P > b.P
		}
		if a.I != b.I {
			return a.I < b.I
		}
		return a.J < b.J
	})
	return out
}
