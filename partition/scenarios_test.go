package partition

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestNonNegativity checks spec.md §8 invariant 1 on a sequence with a
// real hairpin (scenario S2).
func TestNonNegativity(t *testing.T) {
	result, err := Fold(FoldRequest{Sequence: "GGGAAACCC"})
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	ctx := result.Context
	n := ctx.N
	for i := 1; i <= n; i++ {
		for j := i; j <= n; j++ {
			if v := ctx.Q.AddrIJ(i, j); v < 0 {
				t.Errorf("q[%d,%d] = %v, want >= 0", i, j, v)
			}
			if v := ctx.QB.AddrIJ(i, j); v < 0 {
				t.Errorf("qb[%d,%d] = %v, want >= 0", i, j, v)
			}
			if v := ctx.QM.AddrIJ(i, j); v < 0 {
				t.Errorf("qm[%d,%d] = %v, want >= 0", i, j, v)
			}
			if v := ctx.QM1.AddrIJ(i, j); v < 0 {
				t.Errorf("qm1[%d,%d] = %v, want >= 0", i, j, v)
			}
			if v := ctx.Probs.AddrIJ(i, j); v < 0 {
				t.Errorf("probs[%d,%d] = %v, want >= 0", i, j, v)
			}
		}
	}
}

// TestMarginalProbability checks spec.md §8 invariant 2 (scenario S4): the
// total pairing probability of any position never exceeds 1 by more than
// the stated tolerance.
func TestMarginalProbability(t *testing.T) {
	seq := strings.Repeat("ACGU", 5) // length 20
	result, err := Fold(FoldRequest{Sequence: seq})
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	ctx := result.Context
	n := ctx.N
	for i := 1; i <= n; i++ {
		var total float64
		for j := 1; j <= n; j++ {
			if j > i {
				total += ctx.Probs.AddrIJ(i, j)
			} else if j < i {
				total += ctx.Probs.AddrIJ(j, i)
			}
		}
		if total > 1+1e-6 {
			t.Errorf("sum of pair probabilities at %d = %v, want <= 1+1e-6", i, total)
		}
	}
}

// TestForwardOutsideIdempotent checks spec.md §8 invariant 7: running the
// forward and outside passes twice on the same input yields bit-identical
// tables.
func TestForwardOutsideIdempotent(t *testing.T) {
	req := FoldRequest{Sequence: "GGGAAACCC"}
	first, err := Fold(req)
	if err != nil {
		t.Fatalf("Fold (first): %v", err)
	}
	second, err := Fold(req)
	if err != nil {
		t.Fatalf("Fold (second): %v", err)
	}

	n := first.Context.N
	for i := 1; i <= n; i++ {
		for j := i; j <= n; j++ {
			if a, b := first.Context.Q.AddrIJ(i, j), second.Context.Q.AddrIJ(i, j); a != b {
				t.Fatalf("q[%d,%d] not idempotent: %v != %v", i, j, a, b)
			}
			if a, b := first.Context.Probs.AddrIJ(i, j), second.Context.Probs.AddrIJ(i, j); a != b {
				t.Fatalf("probs[%d,%d] not idempotent: %v != %v", i, j, a, b)
			}
		}
	}
	if diff := cmp.Diff(first.Z, second.Z); diff != "" {
		t.Errorf("Z not idempotent (-first +second):\n%s", diff)
	}
}

// TestCircularDegenerateShortSequence checks spec.md §8 invariant 8's
// "length-5" example from the other direction: at n=5 (TURN=3) the only
// geometrically possible pair is (1,n), which would leave zero bases on
// the circular complement arc — below the minimum loop size — so no
// circular structure beats the open chain, and qo must reduce to the same
// scale[n] the linear fold assigns to an all-unpaired sequence (the S1
// scenario), not to some spurious nonzero contribution from (1,n).
func TestCircularDegenerateShortSequence(t *testing.T) {
	model := DefaultModelDetails()
	model.Circular = true
	result, err := Fold(FoldRequest{Sequence: "GCGCG", Model: model})
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	ctx := result.Context
	wantZ := ctx.Scaling.Scale[ctx.N]
	if diff := result.Z - wantZ; diff > 1e-9*wantZ || diff < -1e-9*wantZ {
		t.Errorf("Z = %v, want %v (qho/qio/qmo should all be 0 at this length)", result.Z, wantZ)
	}
}

// TestSingleHairpinDominant checks scenario S2: "GGGAAACCC" admits
// essentially one structure, the outer hairpin stack, so each of its three
// stacked pairs should carry nearly all the ensemble's probability mass and
// every other cell should carry almost none.
func TestSingleHairpinDominant(t *testing.T) {
	result, err := Fold(FoldRequest{Sequence: "GGGAAACCC"})
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	ctx := result.Context
	for _, pair := range [][2]int{{1, 9}, {2, 8}, {3, 7}} {
		if p := ctx.Probs.AddrIJ(pair[0], pair[1]); p < 0.95 {
			t.Errorf("probs[%d,%d] = %v, want > 0.95", pair[0], pair[1], p)
		}
	}
	for i := 1; i <= ctx.N; i++ {
		for j := i + 1; j <= ctx.N; j++ {
			isStack := (i == 1 && j == 9) || (i == 2 && j == 8) || (i == 3 && j == 7)
			if isStack {
				continue
			}
			if p := ctx.Probs.AddrIJ(i, j); p > 0.05 {
				t.Errorf("probs[%d,%d] = %v, want < 0.05", i, j, p)
			}
		}
	}
}

// TestSoftUnpairedBonusShiftsFreeEnergyExactly checks scenario S6: applying
// a 1e-30 soft-constraint factor to each of positions 4, 5, and 6
// individually (the only place this sequence can be unpaired inside a loop)
// compounds into a (1e-30)^3 factor on the hairpin's unpaired run — it must
// still leave the outer hairpin essentially certain (the loop has nowhere
// else to put those three bases), and must shift F by exactly
// 3*ln(1e30)*kT/1000 relative to the unconstrained fold, since the dominant
// structure pays that compounded factor exactly once.
func TestSoftUnpairedBonusShiftsFreeEnergyExactly(t *testing.T) {
	seq := "GGGAAACCC"
	unconstrained, err := Fold(FoldRequest{Sequence: seq})
	if err != nil {
		t.Fatalf("Fold (unconstrained): %v", err)
	}

	posFactor := make([]float64, len(seq)+2)
	for i := range posFactor {
		posFactor[i] = 1
	}
	posFactor[4], posFactor[5], posFactor[6] = 1e-30, 1e-30, 1e-30
	bfUp := NewSoftUnpairedTableFromPositions(len(seq), posFactor)
	constraints := NewUnconstrained(len(seq))
	constraints.SetSoftUnpaired(bfUp)
	bonused, err := Fold(FoldRequest{Sequence: seq, Constraints: constraints})
	if err != nil {
		t.Fatalf("Fold (bonused): %v", err)
	}

	if p := bonused.Context.Probs.AddrIJ(1, 9); p < 0.95 {
		t.Errorf("probs[1,9] = %v, want > 0.95 (the hairpin must still leave 4-6 unpaired)", p)
	}

	kT := GasConstant * kelvin(DefaultModelDetails().TemperatureInCelsius)
	wantDelta := 3 * math.Log(1e30) * kT / 1000
	gotDelta := bonused.F - unconstrained.F
	if diff := gotDelta - wantDelta; diff > 1e-6*wantDelta || diff < -1e-6*wantDelta {
		t.Errorf("F delta = %v, want %v", gotDelta, wantDelta)
	}
}
