package partition

import (
	"fmt"
	"math/rand"

	"github.com/bebop/rnapart/energy_params"
	"github.com/mroth/weightedrand"
)

// Sampler performs the stochastic traceback of spec.md §4.6: starting from
// the forward tables, recursively choose decompositions weighted by their
// contribution to the partition function, producing a dot-bracket sample.
type Sampler struct {
	Oracle *EnergyOracle
	Rand   *rand.Rand
}

// NewSampler builds a Sampler over the given oracle, using src as the
// entropy source (pass rand.NewSource(seed) for a reproducible sampler).
func NewSampler(oracle *EnergyOracle, src rand.Source) *Sampler {
	return &Sampler{Oracle: oracle, Rand: rand.New(src)}
}

// alternative is one weighted choice in a decomposition: pick chooses it
// when invoked.
type alternative struct {
	weight float64
	pick   func([]byte)
}

// choose implements the "draw r uniformly in [0,total), walk the
// alternatives summing their masses, pick the first alternative whose
// cumulative sum exceeds r" rule, via weightedrand.NewChooser so the
// actual draw is delegated to a real weighted-sampling implementation
// rather than a hand-rolled cumulative scan. Float masses are quantized to
// weightedrand's uint weight scale relative to the largest alternative;
// total must be > 0.
func (s *Sampler) choose(region string, alts []alternative) (func([]byte), error) {
	var total float64
	for _, a := range alts {
		total += a.weight
	}
	if total <= 0 {
		return nil, &SampleFailure{Region: region}
	}

	const precision = 1 << 24
	choices := make([]weightedrand.Choice, 0, len(alts))
	for idx, a := range alts {
		if a.weight <= 0 {
			continue
		}
		w := uint(a.weight / total * precision)
		if w == 0 {
			w = 1
		}
		choices = append(choices, weightedrand.NewChoice(idx, w))
	}
	if len(choices) == 0 {
		return nil, &SampleFailure{Region: region}
	}

	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, &SampleFailure{Region: region}
	}
	picked := chooser.PickSource(s.Rand).(int)
	return alts[picked].pick, nil
}

// SampleLinear produces one dot-bracket sample for a non-circular fold,
// walking i from 1 to n per spec.md §4.6's "Linear" rule.
func (s *Sampler) SampleLinear(ctx *FoldContext) (string, error) {
	n := ctx.N
	out := make([]byte, n)
	for i := range out {
		out[i] = '.'
	}

	i := 1
	for i <= n {
		if ctx.Q1K[n] == 0 {
			return "", &SampleFailure{Region: "root"}
		}
		qln := ctx.QLK
		var alts []alternative
		// i unpaired: advance to i+1 with weight q[i+1,n]*scale[1]; the
		// sentinel QLK[n+1]=1 gives the unpaired tail when i == n.
		alts = append(alts, alternative{
			weight: qln[i+1] * ctx.Scaling.Scale[1],
			pick:   func([]byte) {},
		})
		for j := i + 1; j <= n; j++ {
			qbIJ := ctx.QB.AddrIJ(i, j)
			if qbIJ == 0 {
				continue
			}
			pairType := energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1])
			ext := s.Oracle.ExtStemWeight(pairType, base(ctx, i-1), base(ctx, j+1))
			weight := qbIJ * ext * qln[j+1]
			jCopy := j
			alts = append(alts, alternative{
				weight: weight,
				pick: func(buf []byte) {
					buf[i-1] = '('
					buf[jCopy-1] = ')'
					s.backtrack(ctx, buf, i, jCopy)
				},
			})
		}

		pick, err := s.choose(fmt.Sprintf("linear[%d]", i), alts)
		if err != nil {
			return "", err
		}
		before := i
		pick(out)
		// Determine how far the chosen alternative advances i: if it paired,
		// find the matching ')' to the right of i-1; otherwise step by one.
		if out[before-1] == '(' {
			depth := 0
			for k := before - 1; k < n; k++ {
				if out[k] == '(' {
					depth++
				} else if out[k] == ')' {
					depth--
					if depth == 0 {
						i = k + 2
						break
					}
				}
			}
		} else {
			i = before + 1
		}
	}

	return string(out), nil
}

// backtrack implements spec.md §4.6's backtrack(i,j): given qb[i,j], choose
// among hairpin, interior-loop, and multibranch decompositions.
func (s *Sampler) backtrack(ctx *FoldContext, out []byte, i, j int) {
	qbIJ := ctx.QB.AddrIJ(i, j)
	if qbIJ == 0 {
		return
	}
	pairType := energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[j-1])
	u := j - i - 1

	var alts []alternative
	hpWeight := s.Oracle.HairpinWeight(u, pairType, base(ctx, i+1), base(ctx, j-1), ctx.Sequence[i-1:j]) * ctx.Scaling.Scale[u+2]
	alts = append(alts, alternative{weight: hpWeight, pick: func([]byte) {}})

	maxK := i + 1 + MaxLoopSize + 1
	if j-TURN-2 < maxK {
		maxK = j - TURN - 2
	}
	for k := i + 1; k <= maxK; k++ {
		u1 := k - i - 1
		for l := k + TURN + 1; l <= j-1; l++ {
			u2 := j - l - 1
			if u1+u2 > MaxLoopSize {
				continue
			}
			qbKL := ctx.QB.AddrIJ(k, l)
			if qbKL == 0 {
				continue
			}
			innerType := reversePairType(energy_params.EncodeBasePair(ctx.Sequence[k-1], ctx.Sequence[l-1]))
			weight := qbKL * s.Oracle.InteriorWeight(u1, u2, pairType, innerType,
				base(ctx, i+1), base(ctx, j-1), base(ctx, k-1), base(ctx, l+1)) * ctx.Scaling.Scale[u1+u2+2]
			kCopy, lCopy := k, l
			alts = append(alts, alternative{
				weight: weight,
				pick: func(buf []byte) {
					buf[kCopy-1] = '('
					buf[lCopy-1] = ')'
					s.backtrack(ctx, buf, kCopy, lCopy)
				},
			})
		}
	}

	// Multibranch: draw a split k weighted by qm[i+1,k-1]*qm1[k,j-1].
	var mbWeight float64
	for k := i + 2; k <= j-1; k++ {
		mbWeight += ctx.QM.AddrIJ(i+1, k-1) * ctx.QM1.AddrIJ(k, j-1)
	}
	alts = append(alts, alternative{
		weight: mbWeight,
		pick: func(buf []byte) {
			s.backtrackMultiBranch(ctx, buf, i, j)
		},
	})

	pick, err := s.choose(fmt.Sprintf("pair(%d,%d)", i, j), alts)
	if err != nil {
		return
	}
	pick(out)
}

// backtrackMultiBranch chooses the split k per backtrack_qm/backtrack_qm1,
// then recurses into qm(i+1,k-1) and qm1(k,j-1).
func (s *Sampler) backtrackMultiBranch(ctx *FoldContext, out []byte, i, j int) {
	var alts []alternative
	for k := i + 2; k <= j-1; k++ {
		weight := ctx.QM.AddrIJ(i+1, k-1) * ctx.QM1.AddrIJ(k, j-1)
		kCopy := k
		alts = append(alts, alternative{
			weight: weight,
			pick: func(buf []byte) {
				s.backtrackQM(ctx, buf, i+1, kCopy-1)
				s.backtrackQM1(ctx, buf, kCopy, j-1)
			},
		})
	}
	pick, err := s.choose(fmt.Sprintf("mb(%d,%d)", i, j), alts)
	if err != nil {
		return
	}
	pick(out)
}

// backtrackQM splits [i,j] into an optional unpaired prefix followed by a
// qm1 suffix, or a qm prefix followed by a qm1 suffix.
func (s *Sampler) backtrackQM(ctx *FoldContext, out []byte, i, j int) {
	if i > j {
		return
	}
	var alts []alternative
	for k := i; k <= j; k++ {
		ii := k - i
		weight := ctx.Scaling.ExpMLBase[ii] * ctx.QM1.AddrIJ(k, j)
		kCopy := k
		alts = append(alts, alternative{weight: weight, pick: func(buf []byte) {
			s.backtrackQM1(ctx, buf, kCopy, j)
		}})
	}
	for k := i + 1; k <= j; k++ {
		weight := ctx.QM.AddrIJ(i, k-1) * ctx.QM1.AddrIJ(k, j)
		kCopy := k
		alts = append(alts, alternative{weight: weight, pick: func(buf []byte) {
			s.backtrackQM(ctx, buf, i, kCopy-1)
			s.backtrackQM1(ctx, buf, kCopy, j)
		}})
	}
	pick, err := s.choose(fmt.Sprintf("qm(%d,%d)", i, j), alts)
	if err != nil {
		return
	}
	pick(out)
}

// backtrackQM1 chooses the pair partner l weighted by
// qb[i,l]*MLstem*expMLbase[j-l], then recurses into backtrack(i,l).
func (s *Sampler) backtrackQM1(ctx *FoldContext, out []byte, i, j int) {
	var alts []alternative
	for l := i + TURN + 1; l <= j; l++ {
		qbIL := ctx.QB.AddrIJ(i, l)
		if qbIL == 0 {
			continue
		}
		pairType := energy_params.EncodeBasePair(ctx.Sequence[i-1], ctx.Sequence[l-1])
		stem := s.Oracle.MLStemWeight(pairType, base(ctx, i-1), base(ctx, l+1))
		weight := qbIL * stem * ctx.Scaling.ExpMLBase[j-l]
		lCopy := l
		alts = append(alts, alternative{weight: weight, pick: func(buf []byte) {
			buf[i-1] = '('
			buf[lCopy-1] = ')'
			s.backtrack(ctx, buf, i, lCopy)
		}})
	}
	pick, err := s.choose(fmt.Sprintf("qm1(%d,%d)", i, j), alts)
	if err != nil {
		return
	}
	pick(out)
}
