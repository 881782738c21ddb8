/*
Package partition implements the RNA partition-function core: McCaskill-style
forward/outside dynamic programs over a nearest-neighbor thermodynamic model,
and a stochastic traceback over the resulting tables.

The package holds no package-level mutable state; every computation is driven
through a FoldContext value constructed by the caller. See Fold for the entry
point.
*/
package partition

import (
	"context"

	"github.com/bebop/rnapart/energy_params"
)

// TURN is the minimum number of unpaired bases required inside a hairpin
// loop.
const TURN = 3

// MaxLoopSize mirrors energy_params.MaxLenLoop: the largest interior/bulge
// loop size for which tabulated energies exist; longer loops are
// log-extrapolated.
const MaxLoopSize = energy_params.MaxLenLoop

// GasConstant is the ideal gas constant in cal/(mol*K), used to convert
// tabulated deca-cal/mol energies into Boltzmann weights.
const GasConstant = 1.98717

// BacktrackType selects which root cell Reductions.EnsembleFreeEnergy and
// the Sampler treat as Z.
type BacktrackType int

const (
	// BacktrackFull uses q[1,n] (or qo when circular) as the root.
	BacktrackFull BacktrackType = iota
	// BacktrackCirc uses qo unconditionally.
	BacktrackCirc
	// BacktrackPair uses qb[1,n] (the sequence is assumed to pair end to end).
	BacktrackPair
	// BacktrackML uses qm[1,n].
	BacktrackML
)

// ModelDetails carries every flag and tunable of the thermodynamic model.
// The conventional linear-fold defaults at 37C come from
// DefaultModelDetails; Fold substitutes them when TemperatureInCelsius,
// BetaScale and PFScale are all zero.
type ModelDetails struct {
	TemperatureInCelsius float64 // default 37
	Dangles              int     // one of 0,1,2,3
	// NoLonelyPairs mirrors the MFE-side flag for CLI parity, but the
	// partition-function recurrences never consult it: original_source's
	// part_func.c has no noLP handling at all (only the MFE path does),
	// since excluding isolated pairs from the ensemble would break the
	// detailed-balance property the Boltzmann sum depends on.
	NoLonelyPairs   bool
	NoGU            bool
	NoGUClosure     bool
	GQuad           bool
	SpecialHairpins bool // tetra/tri/hexaloop bonuses
	Circular        bool
	MaxBPSpan       int     // 0 means unbounded
	PFScale         float64 // -1 requests automatic scaling
	BetaScale       float64 // default 1
	BacktrackType   BacktrackType
}

// DefaultModelDetails returns the conventional linear-fold defaults.
func DefaultModelDetails() ModelDetails {
	return ModelDetails{
		TemperatureInCelsius: 37,
		Dangles:              2,
		PFScale:              -1,
		BetaScale:            1,
		BacktrackType:        BacktrackFull,
	}
}

// DiagnosticSink receives near-overflow warnings (a cell exceeded
// math.MaxFloat64/10) without aborting the fold. The zero value of
// NoopDiagnosticSink is a safe default; the core never writes to stderr
// itself.
type DiagnosticSink interface {
	Warnf(format string, args ...interface{})
}

// NoopDiagnosticSink discards every warning.
type NoopDiagnosticSink struct{}

// Warnf implements DiagnosticSink.
func (NoopDiagnosticSink) Warnf(string, ...interface{}) {}

// TriangularTable is a packed upper-triangular matrix over 1-indexed
// positions 1..n, addressed by the typed helpers AddrIJ/AddrJI called for
// by the "index arithmetic -> typed helpers" design note: encapsulating the
// iindx/jindx arithmetic behind a method keeps callers from hand-rolling the
// packing math at each call site.
type TriangularTable struct {
	n     int
	cells []float64
}

// NewTriangularTable allocates a table for sequence length n with every
// cell initialized to zero.
func NewTriangularTable(n int) *TriangularTable {
	return &TriangularTable{n: n, cells: make([]float64, (n+1)*(n+2)/2)}
}

// index packs (i,j), 1 <= i <= j <= n, into a flat offset. Using i as the
// row base keeps AddrIJ (i fixed, j varies) a cheap increment in the inner
// loops that scan j, which is the traversal order ForwardEngine uses most.
func (t *TriangularTable) index(i, j int) int {
	return i*(t.n+1) - (i*(i-1))/2 + (j - i)
}

// AddrIJ returns the value at (i,j) favoring callers whose inner loop
// varies j, analogous to the iindx convention in spec.md.
func (t *TriangularTable) AddrIJ(i, j int) float64 {
	if i < 1 || j < i || j > t.n {
		return 0
	}
	return t.cells[t.index(i, j)]
}

// SetIJ stores the value at (i,j).
func (t *TriangularTable) SetIJ(i, j int, v float64) {
	t.cells[t.index(i, j)] = v
}

// AddIJ adds v to the value stored at (i,j).
func (t *TriangularTable) AddIJ(i, j int, v float64) {
	t.cells[t.index(i, j)] += v
}

// AddrJI returns the value at (i,j) addressed as if i were the varying
// index, analogous to the jindx convention in spec.md. It is provided for
// callers whose inner loop descends i; it resolves to the same storage as
// AddrIJ.
func (t *TriangularTable) AddrJI(j, i int) float64 {
	return t.AddrIJ(i, j)
}

// N returns the sequence length the table was allocated for.
func (t *TriangularTable) N() int {
	return t.n
}

// RollingBuffers holds the four length-(n+2) vectors ForwardEngine and
// OutsideEngine use to hold the current and previous column of
// rightmost-stem decompositions, per spec.md's "rolling buffers" data
// model. Swap must be called at the end of each outer j-iteration.
type RollingBuffers struct {
	qq, qq1   []float64
	qqm, qqm1 []float64
}

// NewRollingBuffers allocates the four vectors for a sequence of length n.
func NewRollingBuffers(n int) *RollingBuffers {
	return &RollingBuffers{
		qq:   make([]float64, n+2),
		qq1:  make([]float64, n+2),
		qqm:  make([]float64, n+2),
		qqm1: make([]float64, n+2),
	}
}

// Swap moves the just-filled columns into the "previous" slot and clears
// the "current" slot for the next j.
func (b *RollingBuffers) Swap() {
	b.qq, b.qq1 = b.qq1, b.qq
	b.qqm, b.qqm1 = b.qqm1, b.qqm
	for i := range b.qq {
		b.qq[i] = 0
		b.qqm[i] = 0
	}
}

// ScalingVectors holds the per-length Boltzmann rescaling and multibranch
// unpaired-base factors the Scaler produces.
type ScalingVectors struct {
	Scale       []float64 // scale[u] = sigma^-u, u in [0,n]
	ExpMLBase   []float64 // expMLbase[u] = w_ML^u * scale[u]
	Sigma       float64
}

// FoldContext is the single, explicitly-threaded value replacing the
// original implementation's process-wide globals (pr, iindx, pf_scale,
// backward_compat_compound). Every component in this package takes a
// *FoldContext (or the narrower pieces it needs) instead of reading
// package-level state.
type FoldContext struct {
	Sequence        string
	EncodedSequence []int // 0-indexed; EncodedSequence[i-1] encodes position i
	N               int
	Params          *energy_params.EnergyParams
	Model           ModelDetails
	Constraints     *Constraints
	Sink            DiagnosticSink
	Cancel          context.Context

	Scaling ScalingVectors

	Q, QB, QM, QM1 *TriangularTable
	G              *TriangularTable // nil when GQuad disabled; every read is gated on Model.GQuad
	Probs          *TriangularTable

	// Q1K[k] = Q[1,k], QLK[k] = Q[k,n], sentinels Q1K[0]=QLK[n+1]=1, used by
	// OutsideEngine and the Sampler's linear-mode walk.
	Q1K, QLK []float64

	// Circular scalars, populated only when Model.Circular is set.
	QM2               []float64
	QO, QHO, QIO, QMO float64

	OverflowCount int
}
