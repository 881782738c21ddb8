package partition

import (
	"math"
	"testing"
)

func TestPrepareScalingMonotonic(t *testing.T) {
	scaling := PrepareScaling(20, DefaultModelDetails(), 1.0)
	if scaling.Scale[0] != 1 {
		t.Fatalf("scale[0] = %v, want 1", scaling.Scale[0])
	}
	for u := 1; u < len(scaling.Scale); u++ {
		if scaling.Scale[u] < 0 {
			t.Fatalf("scale[%d] = %v, want non-negative", u, scaling.Scale[u])
		}
		if scaling.Scale[u] > scaling.Scale[u-1] {
			t.Fatalf("scale[%d] = %v > scale[%d] = %v, want non-increasing", u, scaling.Scale[u], u-1, scaling.Scale[u-1])
		}
	}
}

func TestCentroidSymbolThresholds(t *testing.T) {
	cases := []struct {
		x0, x1, x2 float64
		want       byte
	}{
		{0.9, 0.05, 0.05, '.'},
		{0.1, 0.8, 0.1, '('},
		{0.1, 0.1, 0.8, ')'},
		{0.1, 0.45, 0.45, '|'},
	}
	for _, c := range cases {
		got := CentroidSymbol(c.x0, c.x1, c.x2)
		if got != c.want {
			t.Errorf("CentroidSymbol(%v,%v,%v) = %q, want %q", c.x0, c.x1, c.x2, got, c.want)
		}
	}
}

// TestNoPairPossible is scenario S1 from spec.md §8: a sequence too short
// for any hairpin (n=4 < TURN+2) must fold as Z = scale[n], every pair
// probability 0, and F == 0 after undoing the per-base rescaling.
func TestNoPairPossible(t *testing.T) {
	result, err := Fold(FoldRequest{Sequence: "GCGC"})
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	ctx := result.Context
	wantZ := ctx.Scaling.Scale[ctx.N]
	if math.Abs(result.Z-wantZ) > 1e-9*wantZ {
		t.Errorf("Z = %v, want %v", result.Z, wantZ)
	}
	for i := 1; i <= ctx.N; i++ {
		for j := i + 1; j <= ctx.N; j++ {
			if p := ctx.Probs.AddrIJ(i, j); p != 0 {
				t.Errorf("probs[%d,%d] = %v, want 0", i, j, p)
			}
		}
	}
	if math.Abs(result.F) > 1e-9 {
		t.Errorf("F = %v, want 0", result.F)
	}
}

// TestAllPositionsForbidden is scenario S5: every position hard-forbidden
// to pair collapses Z to the all-unpaired term regardless of sequence
// content.
func TestAllPositionsForbidden(t *testing.T) {
	seq := "GGGAAACCC"
	result, err := Fold(FoldRequest{Sequence: seq, HardConstraint: "xxxxxxxxx"})
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	ctx := result.Context
	wantZ := ctx.Scaling.Scale[ctx.N]
	if math.Abs(result.Z-wantZ) > 1e-9*wantZ {
		t.Errorf("Z = %v, want %v", result.Z, wantZ)
	}
	for i := 1; i <= ctx.N; i++ {
		for j := i + 1; j <= ctx.N; j++ {
			if p := ctx.Probs.AddrIJ(i, j); p != 0 {
				t.Errorf("probs[%d,%d] = %v, want 0", i, j, p)
			}
		}
	}
}

func TestNormalizeSequenceRejectsNonNucleotide(t *testing.T) {
	_, err := Fold(FoldRequest{Sequence: "GCXC"})
	if err == nil {
		t.Fatal("expected an error for a non-nucleotide character")
	}
	if _, ok := err.(*InvalidInput); !ok {
		t.Fatalf("error = %v (%T), want *InvalidInput", err, err)
	}
}

func TestNormalizeSequenceConvertsT(t *testing.T) {
	seq, err := normalizeSequence("acgt")
	if err != nil {
		t.Fatalf("normalizeSequence: %v", err)
	}
	if seq != "ACGU" {
		t.Errorf("normalizeSequence(%q) = %q, want %q", "acgt", seq, "ACGU")
	}
}

func TestTriangularTableAddressing(t *testing.T) {
	tbl := NewTriangularTable(5)
	tbl.SetIJ(2, 4, 3.5)
	if got := tbl.AddrIJ(2, 4); got != 3.5 {
		t.Errorf("AddrIJ(2,4) = %v, want 3.5", got)
	}
	if got := tbl.AddrJI(4, 2); got != 3.5 {
		t.Errorf("AddrJI(4,2) = %v, want 3.5", got)
	}
	if got := tbl.AddrIJ(4, 2); got != 0 {
		t.Errorf("AddrIJ(4,2) (j<i) = %v, want 0", got)
	}
}
