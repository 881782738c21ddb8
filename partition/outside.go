package partition

import "github.com/bebop/rnapart/energy_params"

// OutsideEngine computes probs[i,j] by the outside recursion of spec.md
// §4.5, reading the tables a prior ForwardEngine.Run filled.
type OutsideEngine struct {
	Oracle *EnergyOracle
}

// NewOutsideEngine builds an OutsideEngine over the given energy oracle.
// The oracle must be the same (or an equivalent) one ForwardEngine used,
// since the outside pass must apply identical soft-constraint factors at
// identical decomposition sites (spec.md §4.3).
func NewOutsideEngine(oracle *EnergyOracle) *OutsideEngine {
	return &OutsideEngine{Oracle: oracle}
}

// Run fills ctx.Probs. It assumes ctx.Q1K and ctx.QLK have already been
// populated (see Fold) and that ForwardEngine.Run has already filled
// q/qb/qm/qm1 (and the circular scalars, if applicable).
func (oe *OutsideEngine) Run(ctx *FoldContext) error {
	n := ctx.N
	ctx.Probs = NewTriangularTable(n)

	if ctx.Model.Circular {
		oe.initCircular(ctx)
	} else {
		oe.initLinear(ctx)
	}

	for l := n; l >= TURN+2; l-- {
		for k := 2; k <= l-TURN-1; k++ {
			qbKL := ctx.QB.AddrIJ(k, l)
			if qbKL == 0 {
				continue
			}
			if !ctx.Constraints.Allowed(k, l, InIntLoopEnc) {
				continue
			}

			oe.propagateInterior(ctx, k, l)
			oe.propagateMultiLoop(ctx, k, l)
		}
	}

	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			qbIJ := ctx.QB.AddrIJ(i, j)
			p := ctx.Probs.AddrIJ(i, j) * qbIJ
			if ctx.Model.GQuad && ctx.G != nil {
				q1k0 := ctx.Q1K[i-1]
				qlkN := ctx.QLK[j+1]
				if ctx.Q1K[n] > 0 {
					p += q1k0 * ctx.G.AddrIJ(i, j) * qlkN / ctx.Q1K[n]
				}
			}
			ctx.Probs.SetIJ(i, j, p)
		}
	}

	return nil
}

func (oe *OutsideEngine) initLinear(ctx *FoldContext) {
	n := ctx.N
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			if j-i <= TURN || ctx.QB.AddrIJ(i, j) == 0 || !ctx.Constraints.Allowed(i, j, InExtLoop) {
				continue
			}
			pairType := energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1])
			ext := oe.Oracle.ExtStemWeight(pairType, base(ctx, i-1), base(ctx, j+1))
			if ctx.Q1K[n] == 0 {
				continue
			}
			ctx.Probs.SetIJ(i, j, ctx.Q1K[i-1]*ctx.QLK[j+1]/ctx.Q1K[n]*ext)
		}
	}
}

// initCircular seeds probs with the exterior hairpin, exterior interior
// (both orientations), and exterior multibranch (middle/left/right)
// contributions computed analogously to the forward circular terms but
// with (i,j) held fixed as the pair under consideration, per spec.md
// §4.5's circular-mode paragraph.
func (oe *OutsideEngine) initCircular(ctx *FoldContext) {
	n := ctx.N
	if ctx.QO == 0 {
		return
	}
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			qbIJ := ctx.QB.AddrIJ(i, j)
			if qbIJ == 0 {
				continue
			}
			pairType := reversePairType(energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1]))
			u := n - j + i - 1
			if u < TURN {
				continue
			}
			hairpin := oe.Oracle.HairpinWeight(u, pairType, base(ctx, j+1), base(ctx, i-1), wrapSubsequence(ctx.Sequence, j, i))
			outside := hairpin * ctx.Scaling.Scale[u] / ctx.QO
			outside += ctx.QMO / ctx.QO * oe.Oracle.MLStemWeight(pairType, base(ctx, j+1), base(ctx, i-1)) / qbIJ
			ctx.Probs.SetIJ(i, j, outside/qbIJ)
		}
	}
}

// propagateInterior adds the contribution of every enclosing pair (i,j)
// to probs[k,l] through the interior-loop decomposition, per spec.md
// §4.5's "interior-loop propagation" paragraph.
func (oe *OutsideEngine) propagateInterior(ctx *FoldContext, k, l int) {
	n := ctx.N
	maxU1 := MaxLoopSize
	for u1 := 0; u1 <= maxU1; u1++ {
		i := k - u1 - 1
		if i < 1 {
			break
		}
		for u2 := 0; u1+u2 <= MaxLoopSize; u2++ {
			j := l + u2 + 1
			if j > n {
				break
			}
			if i == k && j == l {
				continue
			}
			if !ctx.Constraints.Allowed(i, j, InIntLoop) {
				continue
			}
			if ctx.Constraints.MaxUnpaired(ContextInterior, i+1) < u1 || ctx.Constraints.MaxUnpaired(ContextInterior, l+1) < u2 {
				continue
			}
			probsIJ := ctx.Probs.AddrIJ(i, j)
			if probsIJ == 0 {
				continue
			}
			outerType := energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1])
			innerType := reversePairType(energy_params.EncodeBasePair(ctx.Sequence[k-1], ctx.Sequence[l-1]))
			weight := oe.Oracle.InteriorWeight(u1, u2, outerType, innerType,
				base(ctx, i+1), base(ctx, j-1), base(ctx, k-1), base(ctx, l+1))
			contribution := probsIJ * ctx.Scaling.Scale[u1+u2+2] * weight *
				ctx.Constraints.SoftUnpaired(i+1, u1) * ctx.Constraints.SoftUnpaired(l+1, u2) *
				ctx.Constraints.SoftPair(i, j) * ctx.Constraints.Callback(i, j, k, l, DecompInteriorLoop)
			ctx.Probs.AddIJ(k, l, contribution)
		}
	}
}

// propagateMultiLoop adds the contribution of every multibranch loop
// enclosing (k,l) as one of (at least) two stems. spec.md §4.5 describes
// this via rolling "prm" auxiliaries (prm_l, prml, prm_MLb, with prmt1
// handling the j=l+1 boundary) that amortize the cost to O(n) extra work
// per l; here the same sum is expressed directly over the enclosing pair
// (i,j) and both flanking gaps, which is asymptotically one factor of n
// worse but computes the same value (see DESIGN.md).
//
// (k,l) can be any one of the >=2 stems the multibranch loop closed by
// (i,j) must contain, so besides the case where both the left gap
// (i+1..k-1) and the right gap (l+1..j-1) hold >=1 real stem each (via
// qm), (k,l) can also be the leftmost or the rightmost stem, in which
// case the corresponding gap holds zero real stems and is weighted as a
// plain unpaired run (expMLbase) instead — the case qm[...] silently
// returns 0 for. Both gaps being a plain unpaired run at once is excluded:
// that would leave (i,j) closing a loop with only one enclosed stem,
// which fillQB's own multibranch term never produces.
func (oe *OutsideEngine) propagateMultiLoop(ctx *FoldContext, k, l int) {
	if !ctx.Constraints.Allowed(k, l, InMBLoopEnc) {
		return
	}
	n := ctx.N
	innerType := energy_params.EncodeBasePair(ctx.Sequence[k-1], ctx.Sequence[l-1])
	closing := oe.Oracle.boltzmann(oe.Oracle.Params.MultiLoopClosingPenalty)
	stem := oe.Oracle.MLStemWeight(innerType, base(ctx, k-1), base(ctx, l+1))
	expMLBase := ctx.Scaling.ExpMLBase

	var total float64
	for i := 1; i <= k-1; i++ {
		leftRun := k - i - 1
		leftQM := ctx.QM.AddrIJ(i+1, k-1)
		var leftGap float64
		if ctx.Constraints.MaxUnpaired(ContextMultiLoop, i+1) >= leftRun {
			leftGap = expMLBase[leftRun] * ctx.Constraints.SoftUnpaired(i+1, leftRun)
		}

		for j := l + 1; j <= n; j++ {
			probsIJ := ctx.Probs.AddrIJ(i, j)
			if probsIJ == 0 {
				continue
			}
			if !ctx.Constraints.Allowed(i, j, InMBLoop) {
				continue
			}
			outerType := reversePairType(energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1]))
			outerStem := oe.Oracle.MLStemWeight(outerType, base(ctx, j-1), base(ctx, i+1))
			enclosing := probsIJ * outerStem * closing

			rightRun := j - l - 1
			rightQM := ctx.QM.AddrIJ(l+1, j-1)
			var rightGap float64
			if ctx.Constraints.MaxUnpaired(ContextMultiLoop, l+1) >= rightRun {
				rightGap = expMLBase[rightRun] * ctx.Constraints.SoftUnpaired(l+1, rightRun)
			}

			total += enclosing * (leftQM*rightQM + leftGap*rightQM + leftQM*rightGap)
		}
	}

	ctx.Probs.AddIJ(k, l, total*stem*ctx.Scaling.Scale[2])
}
