package partition

import "github.com/bebop/rnapart/dot_bracket_parser"

// DecompKind identifies which decomposition a soft-constraint callback is
// being invoked for, mirroring the decomp bitmask flags below.
type DecompKind int

const (
	DecompExteriorLoop DecompKind = iota
	DecompHairpinLoop
	DecompInteriorLoop
	DecompMultiLoop
	DecompExteriorUnpaired
	DecompHairpinUnpaired
	DecompMultiLoopUnpaired
)

// Decomposition bitmask flags: which decompositions a pair (i,j) may
// participate in, per spec.md §4.3.
const (
	InExtLoop     = 1 << iota // (i,j) may close/participate in the exterior loop
	InHPLoop                  // (i,j) may be a hairpin closing pair
	InIntLoop                 // (i,j) may be the outer pair of an interior loop
	InIntLoopEnc              // (i,j) may be the inner (enclosed) pair of an interior loop
	InMBLoop                  // (i,j) may close a multibranch loop
	InMBLoopEnc               // (i,j) may be a stem enclosed by a multibranch loop
)

const allDecomps = InExtLoop | InHPLoop | InIntLoop | InIntLoopEnc | InMBLoop | InMBLoopEnc

// LoopContext names the four contexts up_ctx bounds an unpaired run in.
type LoopContext int

const (
	ContextExterior LoopContext = iota
	ContextHairpin
	ContextInterior
	ContextMultiLoop
)

// SoftConstraintCallback returns a multiplicative Boltzmann factor for the
// decomposition of (i,j) into (k,l) of the given kind. data is caller-owned
// context threaded through unchanged (spec.md's "capability object"
// replacing the original's raw function pointer + void* data).
type SoftConstraintCallback func(i, j, k, l int, kind DecompKind, data interface{}) float64

// Constraints bundles both the hard per-cell decomposition mask and the
// optional soft Boltzmann-bonus factors. A zero-value *Constraints (via
// NewUnconstrained) behaves as "everything is allowed, no soft bonuses".
type Constraints struct {
	n int

	// decomp[i][j] is allDecomps unless a hard-constraint string narrowed it.
	decomp [][]int

	// upCtx[ctx][i] is the maximum admissible unpaired run starting at i in
	// loop context ctx; defaults to n-i+1 (unbounded by constraints).
	upCtx [4][]int

	// Soft constraints; nil entries behave as factor 1.
	bfUp    [][]float64 // bfUp[i][u]
	bfBP    *TriangularTable
	bfStack []float64
	data    interface{}
	fn      SoftConstraintCallback
}

// NewUnconstrained returns a *Constraints admitting every structure on a
// sequence of length n, with no soft-constraint bonuses.
func NewUnconstrained(n int) *Constraints {
	c := &Constraints{n: n}
	c.decomp = make([][]int, n+1)
	for i := range c.decomp {
		c.decomp[i] = make([]int, n+1)
		for j := range c.decomp[i] {
			c.decomp[i][j] = allDecomps
		}
	}
	for ctx := range c.upCtx {
		c.upCtx[ctx] = make([]int, n+2)
		for i := range c.upCtx[ctx] {
			c.upCtx[ctx][i] = n - i + 1
		}
	}
	return c
}

// NewHardConstraint parses a ViennaRNA-style hard-constraint string (see
// dot_bracket_parser.ParseHardConstraint) into a *Constraints: forced pairs
// narrow decomp to InExtLoop|InIntLoop|InIntLoopEnc|InMBLoop|InMBLoopEnc
// (never InHPLoop), and ForcedUnpaired positions set decomp(i,j)=0 for
// every pair (i,j) touching that index. The up_ctx bounds are left as
// they are, so unpaired runs may still cover a ForcedUnpaired position.
func NewHardConstraint(sequenceLength int, constraint string) (*Constraints, error) {
	if err := dot_bracket_parser.EnsureValidLength(constraint, sequenceLength); err != nil {
		return nil, &InvalidInput{Why: err.Error()}
	}
	pairedWith, err := dot_bracket_parser.ParseHardConstraint(constraint)
	if err != nil {
		return nil, &InvalidInput{Why: err.Error()}
	}

	c := NewUnconstrained(sequenceLength)
	for zeroIdx, partner := range pairedWith {
		i := zeroIdx + 1 // constraint strings are 0-indexed; tables are 1-indexed
		switch partner {
		case dot_bracket_parser.ForcedUnpaired:
			for j := 1; j <= sequenceLength; j++ {
				c.decomp[min(i, j)][max2(i, j)] = 0
			}
		case dot_bracket_parser.Unconstrained, dot_bracket_parser.ForcedPaired:
			// no narrowing: any partner is still admissible.
		default:
			j := partner + 1
			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			c.decomp[lo][hi] = InExtLoop | InIntLoop | InIntLoopEnc | InMBLoop | InMBLoopEnc
		}
	}
	return c, nil
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Allowed reports whether pair (i,j) may participate in the given
// decomposition kind.
func (c *Constraints) Allowed(i, j, mask int) bool {
	if c == nil {
		return true
	}
	return c.decomp[i][j]&mask != 0
}

// MaxUnpaired returns the longest admissible unpaired run starting at i in
// the given loop context.
func (c *Constraints) MaxUnpaired(ctx LoopContext, i int) int {
	if c == nil {
		return 1 << 30
	}
	return c.upCtx[ctx][i]
}

// NewSoftPairTable returns a bf_bp table pre-filled with 1 (neutral) for
// every pair, matching the ViennaRNA soft-constraint convention of
// allocating the bonus array at a neutral value up front rather than relying
// on a zero default. Callers override only the pairs they want to bonus or
// penalize; every untouched cell still reads as 1 via SoftPair.
func NewSoftPairTable(n int) *TriangularTable {
	t := NewTriangularTable(n)
	for i := range t.cells {
		t.cells[i] = 1
	}
	return t
}

// NewSoftUnpairedTable returns a bf_up[i][u] table pre-filled with 1 for
// every position and run length, for the same reason NewSoftPairTable is.
func NewSoftUnpairedTable(n int) [][]float64 {
	bfUp := make([][]float64, n+2)
	for i := range bfUp {
		bfUp[i] = make([]float64, n+2)
		for u := range bfUp[i] {
			bfUp[i][u] = 1
		}
	}
	return bfUp
}

// NewSoftUnpairedTableFromPositions builds a bf_up[i][u] table from a
// per-position multiplicative factor (posFactor[i], 1-indexed, default 1 for
// positions beyond len(posFactor)-1): bf_up[i][u] is the product of
// posFactor over i..i+u-1. This is the convention that keeps a position's
// bonus consistent regardless of which loop context's unpaired run happens
// to contain it — the hairpin's stretch and the all-unpaired exterior run
// both pay the same per-position factor for any position they share.
func NewSoftUnpairedTableFromPositions(n int, posFactor []float64) [][]float64 {
	at := func(i int) float64 {
		if i < len(posFactor) {
			return posFactor[i]
		}
		return 1
	}
	bfUp := NewSoftUnpairedTable(n)
	for i := 1; i <= n+1; i++ {
		product := 1.0
		for u := 0; i+u <= n+1; u++ {
			if u > 0 {
				product *= at(i + u - 1)
			}
			bfUp[i][u] = product
		}
	}
	return bfUp
}

// SetSoftUnpaired installs the bf_up[i][u] bonus table (unpaired-run
// bonuses). Build bfUp with NewSoftUnpairedTable so untouched entries read as
// 1 rather than the slice zero value, per spec.md §4.3's "if a factor is
// absent, treat as 1" — "absent" means no table at all; a cell inside an
// installed table holds whatever the caller put there.
func (c *Constraints) SetSoftUnpaired(bfUp [][]float64) { c.bfUp = bfUp }

// SetSoftPair installs the bf_bp[i,j] pair bonus table. Build bfBP with
// NewSoftPairTable for the same reason SetSoftUnpaired calls out.
func (c *Constraints) SetSoftPair(bfBP *TriangularTable) { c.bfBP = bfBP }

// SetSoftStack installs the bf_stack[i] bonus vector. Entries the caller
// leaves at the slice zero value read as 0, not 1 — prefill with 1 before
// overriding specific positions if a neutral default is wanted.
func (c *Constraints) SetSoftStack(bfStack []float64) { c.bfStack = bfStack }

// SetCallback installs the user decomposition callback and its opaque data.
func (c *Constraints) SetCallback(fn SoftConstraintCallback, data interface{}) {
	c.fn = fn
	c.data = data
}

// SoftUnpaired returns the multiplicative bonus for an unpaired run of
// length u starting at i, or 1 when no such bonus was installed.
func (c *Constraints) SoftUnpaired(i, u int) float64 {
	if c == nil || c.bfUp == nil || i >= len(c.bfUp) || u >= len(c.bfUp[i]) {
		return 1
	}
	return c.bfUp[i][u]
}

// SoftPair returns the multiplicative bonus for pair (i,j), or 1 when no
// such bonus was installed.
func (c *Constraints) SoftPair(i, j int) float64 {
	if c == nil || c.bfBP == nil {
		return 1
	}
	return c.bfBP.AddrIJ(i, j)
}

// SoftStack returns the multiplicative bonus contributed by position i
// participating in a stacked pair, or 1 when no such bonus was installed.
func (c *Constraints) SoftStack(i int) float64 {
	if c == nil || c.bfStack == nil || i >= len(c.bfStack) {
		return 1
	}
	return c.bfStack[i]
}

// Callback invokes the user decomposition callback, or returns 1 when none
// was installed. OutsideEngine and ForwardEngine must call this at the
// same decomposition sites, per spec.md §4.3's identical-application
// requirement.
func (c *Constraints) Callback(i, j, k, l int, kind DecompKind) float64 {
	if c == nil || c.fn == nil {
		return 1
	}
	return c.fn(i, j, k, l, kind, c.data)
}
