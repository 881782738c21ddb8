package partition

import (
	"math"

	"github.com/bebop/rnapart/energy_params"
)

// ForwardEngine fills q, qb, qm, qm1 (and, when enabled, the circular
// scalars qo/qho/qio/qmo and qm2) following the recurrences in spec.md
// §4.4. It owns no state of its own beyond the energy oracle it was built
// with; all DP tables live on the FoldContext it is run against.
type ForwardEngine struct {
	Oracle *EnergyOracle
}

// NewForwardEngine builds a ForwardEngine over the given energy oracle.
func NewForwardEngine(oracle *EnergyOracle) *ForwardEngine {
	return &ForwardEngine{Oracle: oracle}
}

func (fe *ForwardEngine) pairType(ctx *FoldContext, i, j int) energy_params.BasePairType {
	return energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1])
}

// base returns the encoded nucleotide at position i (1-indexed), or -1 for
// an out-of-range boundary (used as the dangling-end "no flanking base"
// sentinel).
func base(ctx *FoldContext, i int) int {
	if i < 1 || i > ctx.N {
		return -1
	}
	return ctx.EncodedSequence[i-1]
}

const overflowThreshold = math.MaxFloat64 / 10
const unusedDecompIndex = -1

func (fe *ForwardEngine) checkOverflow(ctx *FoldContext, i, j int, value float64) error {
	if value >= math.MaxFloat64 {
		return &Overflow{I: i, J: j, Value: value}
	}
	if value >= overflowThreshold {
		ctx.OverflowCount++
		ctx.Sink.Warnf("cell (%d,%d) near overflow: %g", i, j, value)
	}
	return nil
}

// Run fills every forward table on ctx. ctx must already have its tables,
// scaling vectors, encoded sequence, oracle-compatible params, and
// constraints populated (see Fold, which builds a FoldContext from raw
// inputs and calls Run).
func (fe *ForwardEngine) Run(ctx *FoldContext) error {
	n := ctx.N
	buffers := NewRollingBuffers(n)
	scale := ctx.Scaling.Scale

	// Empty-segment law: q[i,i-1] is conceptually 1 (not stored), and for
	// j in [i, i+TURN] every cell is all-unpaired.
	for i := 1; i <= n; i++ {
		for j := i; j <= min(i+TURN, n); j++ {
			u := j - i + 1
			ctx.Q.SetIJ(i, j, scale[u]*ctx.Constraints.SoftUnpaired(i, u))
		}
	}

	for j := TURN + 2; j <= n; j++ {
		if err := fe.checkCancel(ctx); err != nil {
			return err
		}

		for i := j - TURN - 1; i >= 1; i-- {
			qb := fe.fillQB(ctx, i, j)
			ctx.QB.SetIJ(i, j, qb)
			if err := fe.checkOverflow(ctx, i, j, qb); err != nil {
				return err
			}

			qqmVal := fe.fillQQM(ctx, buffers, i, j, qb)
			buffers.qqm[i] = qqmVal
			ctx.QM1.SetIJ(i, j, qqmVal) // qm1[i,j]: the last-stem form of [i..j]

			buffers.qq[i] = fe.fillQQ(ctx, buffers, i, j, qb)
		}

		fe.fillQMColumn(ctx, buffers, j)
		fe.fillQColumn(ctx, buffers, j)

		buffers.Swap()
	}

	if ctx.Model.Circular {
		fe.runCircular(ctx)
	}

	return nil
}

func (fe *ForwardEngine) checkCancel(ctx *FoldContext) error {
	if ctx.Cancel == nil {
		return nil
	}
	select {
	case <-ctx.Cancel.Done():
		return &Cancelled{}
	default:
		return nil
	}
}

// fillQB computes qb[i,j]: hairpin + interior/bulge + multibranch-closing
// contributions, gated by the hard-constraint decomposition mask.
func (fe *ForwardEngine) fillQB(ctx *FoldContext, i, j int) float64 {
	u := j - i - 1
	if !ctx.Constraints.Allowed(i, j, InHPLoop|InIntLoop|InMBLoop) {
		return 0
	}
	if ctx.Model.MaxBPSpan > 0 && j-i+1 > ctx.Model.MaxBPSpan {
		return 0
	}
	pairType := fe.pairType(ctx, i, j)
	if pairType == energy_params.NoPair {
		return 0
	}
	if ctx.Model.NoGU && (pairType == energy_params.GU || pairType == energy_params.UG) {
		return 0
	}

	var qb float64

	// 1. Hairpin.
	if ctx.Constraints.Allowed(i, j, InHPLoop) && ctx.Constraints.MaxUnpaired(ContextHairpin, i+1) >= u {
		weight := fe.Oracle.HairpinWeight(u, pairType, base(ctx, i+1), base(ctx, j-1), ctx.Sequence[i-1:j])
		qb += weight * ctx.Scaling.Scale[u+2] * ctx.Constraints.SoftUnpaired(i+1, u) *
			ctx.Constraints.SoftPair(i, j) * ctx.Constraints.Callback(i, j, unusedDecompIndex, unusedDecompIndex, DecompHairpinLoop)
	}

	// 2. Interior / bulge.
	if ctx.Constraints.Allowed(i, j, InIntLoop) {
		maxK := i + 1 + MaxLoopSize + 1
		if bound := j - TURN - 2; bound < maxK {
			maxK = bound
		}
		if bound := i + 1 + ctx.Constraints.MaxUnpaired(ContextInterior, i+1); bound < maxK {
			maxK = bound
		}
		for k := i + 1; k <= maxK; k++ {
			u1 := k - i - 1
			minL := k + TURN + 1
			maxL := j - 1
			if bound := j - 1 - MaxLoopSize + u1; bound > minL {
				minL = bound
			}
			for l := minL; l <= maxL; l++ {
				u2 := j - l - 1
				if u1+u2 > MaxLoopSize {
					continue
				}
				if ctx.Constraints.MaxUnpaired(ContextInterior, l+1) < u2 {
					continue
				}
				if !ctx.Constraints.Allowed(k, l, InIntLoopEnc) {
					continue
				}
				qbKL := ctx.QB.AddrIJ(k, l)
				if qbKL == 0 {
					continue
				}
				innerType := reversePairType(fe.pairType(ctx, k, l))
				weight := fe.Oracle.InteriorWeight(u1, u2, pairType, innerType,
					base(ctx, i+1), base(ctx, j-1), base(ctx, k-1), base(ctx, l+1))
				qb += qbKL * weight * ctx.Scaling.Scale[u1+u2+2] *
					ctx.Constraints.SoftUnpaired(i+1, u1) * ctx.Constraints.SoftUnpaired(l+1, u2) *
					ctx.Constraints.SoftPair(i, j) * ctx.Constraints.Callback(i, j, k, l, DecompInteriorLoop)
			}
		}
	}

	// 3. Multibranch closing: the enclosed segment [i+1,j-1] must contain
	// at least two stems, so the split point k leaves qm[i+1,k-1]
	// non-empty and qqm1[k] (the previous column's last-stem form) as the
	// final stem.
	if ctx.Constraints.Allowed(i, j, InMBLoop) {
		var sum float64
		for k := i + 2; k <= j-1; k++ {
			sum += ctx.QM.AddrIJ(i+1, k-1) * ctx.QM1.AddrIJ(k, j-1)
		}
		mlStem := fe.Oracle.MLStemWeight(reversePairType(pairType), base(ctx, j-1), base(ctx, i+1))
		qb += sum * fe.Oracle.boltzmann(fe.Oracle.Params.MultiLoopClosingPenalty) * mlStem * ctx.Scaling.Scale[2]
		if ctx.Model.GQuad {
			qb += fe.Oracle.GQuadInteriorWeight(pairType) * ctx.G.AddrIJ(i+1, j-1)
		}
	}

	return qb
}

// reversePairType returns rtype[t]: the pair type of (j,i) given the pair
// type of (i,j), i.e. the orientation flip used when a pair is viewed from
// the enclosed side.
func reversePairType(t energy_params.BasePairType) energy_params.BasePairType {
	switch t {
	case energy_params.CG:
		return energy_params.GC
	case energy_params.GC:
		return energy_params.CG
	case energy_params.GU:
		return energy_params.UG
	case energy_params.UG:
		return energy_params.GU
	case energy_params.AU:
		return energy_params.UA
	case energy_params.UA:
		return energy_params.AU
	default:
		return t
	}
}

// fillQQM computes the rolling qqm[i] value (stem-ending-at-j form) used by
// qm, qb's multibranch term (via qqm1, the previous column), and qm1.
func (fe *ForwardEngine) fillQQM(ctx *FoldContext, buffers *RollingBuffers, i, j int, qb float64) float64 {
	var v float64
	if ctx.Constraints.MaxUnpaired(ContextMultiLoop, j) >= 1 {
		v += buffers.qqm1[i] * ctx.Scaling.ExpMLBase[1] * ctx.Constraints.SoftUnpaired(j, 1) *
			ctx.Constraints.Callback(i, j, i, j-1, DecompMultiLoopUnpaired)
	}
	if qb > 0 && ctx.Constraints.Allowed(i, j, InMBLoopEnc) {
		pairType := fe.pairType(ctx, i, j)
		v += qb * fe.Oracle.MLStemWeight(pairType, base(ctx, i-1), base(ctx, j+1))
	}
	if ctx.Model.GQuad {
		v += ctx.G.AddrIJ(i, j) * fe.Oracle.MLStemWeight(0, -1, -1)
	}
	return v
}

// fillQMColumn computes qm[i,j] for every i given the just-filled qqm
// column, per spec.md's qm recurrence: at least one stem (qqm[i] itself),
// one stem preceded by more stems (qm[i,k-1]*qqm[k]), or a leading
// unpaired run before the first stem.
func (fe *ForwardEngine) fillQMColumn(ctx *FoldContext, buffers *RollingBuffers, j int) {
	for i := 1; i <= j; i++ {
		v := buffers.qqm[i]
		for k := i + 1; k <= j; k++ {
			v += ctx.QM.AddrIJ(i, k-1) * buffers.qqm[k]
		}
		maxRun := ctx.Constraints.MaxUnpaired(ContextMultiLoop, i)
		limit := i + maxRun
		if limit > j {
			limit = j
		}
		for k := i + 1; k <= limit; k++ {
			ii := k - i
			v += ctx.Scaling.ExpMLBase[ii] * buffers.qqm[k]
		}
		ctx.QM.SetIJ(i, j, v)
	}
}

// fillQQ computes the rolling qq[i] value (exterior form ending at j).
func (fe *ForwardEngine) fillQQ(ctx *FoldContext, buffers *RollingBuffers, i, j int, qb float64) float64 {
	var v float64
	if qb > 0 && ctx.Constraints.Allowed(i, j, InExtLoop) {
		pairType := fe.pairType(ctx, i, j)
		v += qb * fe.Oracle.ExtStemWeight(pairType, base(ctx, i-1), base(ctx, j+1))
	}
	if ctx.Constraints.MaxUnpaired(ContextExterior, j) >= 1 {
		v += buffers.qq1[i] * ctx.Scaling.Scale[1] * ctx.Constraints.SoftUnpaired(j, 1) *
			ctx.Constraints.Callback(i, j, i, j-1, DecompExteriorUnpaired)
	}
	if ctx.Model.GQuad {
		v += ctx.G.AddrIJ(i, j)
	}
	return v
}

// fillQColumn computes q[i,j] for every i: the rolling qq[i] form, plus the
// all-unpaired term when admissible, plus the split sum.
func (fe *ForwardEngine) fillQColumn(ctx *FoldContext, buffers *RollingBuffers, j int) {
	for i := j; i >= 1; i-- {
		v := buffers.qq[i]
		run := j - i + 1
		if ctx.Constraints.MaxUnpaired(ContextExterior, i) >= run {
			v += ctx.Scaling.Scale[run] * ctx.Constraints.SoftUnpaired(i, run) *
				ctx.Constraints.Callback(i, j, i, j, DecompExteriorUnpaired)
		}
		for k := i; k <= j-1; k++ {
			v += ctx.Q.AddrIJ(i, k) * buffers.qq[k+1]
		}
		ctx.Q.SetIJ(i, j, v)
	}
}

// runCircular performs the circular post-processing pass described in
// spec.md §4.4, assuming the linear pass above has already filled qb, qm,
// qm1 for the whole sequence. The exterior interior-loop term qio is
// computed as a bounded sweep over the enclosing pair (p,q) and the 5' end
// k of the other pair, whose 3' end is always taken as n; exterior
// interior loops whose other pair ends before n are not counted in qio.
// The cost is O(n^2 * MaxLoopSize); see DESIGN.md.
func (fe *ForwardEngine) runCircular(ctx *FoldContext) {
	n := ctx.N
	ctx.QM2 = make([]float64, n+2)
	for k := 1; k <= n; k++ {
		var v float64
		for u := k + TURN + 1; u <= n-TURN-2; u++ {
			v += ctx.QM1.AddrIJ(k, u) * ctx.QM1.AddrIJ(u+1, n)
		}
		ctx.QM2[k] = v
	}

	var qho, qio, qmo float64

	for p := 1; p <= n; p++ {
		for q := p + 1; q <= n; q++ {
			qbPQ := ctx.QB.AddrIJ(p, q)
			if qbPQ == 0 {
				continue
			}
			pairType := fe.pairType(ctx, p, q)
			if ctx.Model.NoGUClosure && (pairType == energy_params.GU || pairType == energy_params.UG) {
				continue
			}
			u := n - q + p - 1
			if u < TURN {
				continue
			}
			weight := fe.Oracle.HairpinWeight(u, reversePairType(pairType), base(ctx, q+1), base(ctx, p-1), wrapSubsequence(ctx.Sequence, q, p))
			qho += qbPQ * weight * ctx.Scaling.Scale[u]

			// Exterior interior loop: the other enclosed pair (k,l) lies
			// entirely within (q,n] U [1,p), so l<k in the wrapped sense;
			// scan the admissible k just past q and bound u1 by MAXLOOP.
			for k := q + 1; k <= n && k-q-1 <= MaxLoopSize; k++ {
				u1 := k - q - 1
				qbKn := ctx.QB.AddrIJ(k, n)
				if qbKn == 0 {
					continue
				}
				u2 := p - 1
				if u1+u2 > MaxLoopSize {
					continue
				}
				innerType := reversePairType(fe.pairType(ctx, k, n))
				weight := fe.Oracle.InteriorWeight(u1, u2, reversePairType(pairType), innerType,
					base(ctx, q+1), base(ctx, p-1), base(ctx, k-1), base(ctx, 1))
				qio += qbPQ * qbKn * weight * ctx.Scaling.Scale[u1+u2+2]
			}
		}
	}

	for k := TURN + 2; k <= n-2*TURN-3; k++ {
		qmo += ctx.QM.AddrIJ(1, k) * ctx.QM2[k+1] * fe.Oracle.boltzmann(fe.Oracle.Params.MultiLoopClosingPenalty)
	}

	ctx.QHO, ctx.QIO, ctx.QMO = qho, qio, qmo
	ctx.QO = qho + qio + qmo + ctx.Scaling.Scale[n]
}

// wrapSubsequence returns the loop substring for an exterior hairpin,
// which wraps around the sequence ends: positions q+1..n followed by
// 1..p-1.
func wrapSubsequence(sequence string, q, p int) string {
	return sequence[q:] + sequence[:p-1]
}
