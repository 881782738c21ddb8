package partition

import (
	"context"
	"strings"

	"github.com/bebop/rnapart/checks"
	"github.com/bebop/rnapart/energy_params"
)

// FoldRequest bundles everything a caller supplies to Fold: the sequence,
// model settings, parameter set, and optional constraints (spec.md §6's
// "Inputs").
type FoldRequest struct {
	Sequence       string
	Model          ModelDetails
	Params         *energy_params.EnergyParams
	HardConstraint string // dot-bracket / ViennaRNA hard-constraint string; "" means unconstrained
	Constraints    *Constraints // overrides HardConstraint when non-nil; lets callers attach soft constraints

	// GQuad is the externally computed G-quadruplex partition-sum table
	// (G[i,j] of spec.md §2, "provided by G-quad module"). This core never
	// computes G itself — G-quadruplex energetics are an "external
	// collaborator" per spec.md §1 — so when Model.GQuad is set, a caller
	// wanting nonzero G-quad consultation must supply that table here. Must
	// be sized for the request's sequence length (NewTriangularTable(len));
	// left nil, G-quad consultation sites see an all-zero table, which is
	// the documented "zero when disabled" behavior, not an error.
	GQuad *TriangularTable

	Sink   DiagnosticSink
	Cancel context.Context
}

// FoldResult bundles the outputs spec.md §6 names.
type FoldResult struct {
	Context *FoldContext
	Z       float64
	F       float64
}

// Fold runs the full pipeline: validates input, builds the scaling
// vectors, runs ForwardEngine, then OutsideEngine, and returns the
// populated FoldContext alongside the summary scalars. Sampling (§4.6) is
// exposed separately via NewSampler since not every caller needs it.
func Fold(req FoldRequest) (*FoldResult, error) {
	sequence, err := normalizeSequence(req.Sequence)
	if err != nil {
		return nil, err
	}
	n := len(sequence)
	if n == 0 {
		return nil, &InvalidInput{Why: "sequence length is 0"}
	}

	model := req.Model
	if model.TemperatureInCelsius == 0 && model.BetaScale == 0 && model.PFScale == 0 {
		model = DefaultModelDetails()
	}

	params := req.Params
	if params == nil {
		params = energy_params.NewEnergyParams(energy_params.Turner2004, model.TemperatureInCelsius)
	}

	constraints := req.Constraints
	if constraints == nil {
		if req.HardConstraint != "" {
			constraints, err = NewHardConstraint(n, req.HardConstraint)
			if err != nil {
				return nil, err
			}
		} else {
			constraints = NewUnconstrained(n)
		}
	}

	sink := req.Sink
	if sink == nil {
		sink = NoopDiagnosticSink{}
	}

	ctx := &FoldContext{
		Sequence:        sequence,
		EncodedSequence: energy_params.EncodeSequence(sequence),
		N:               n,
		Params:          params,
		Model:           model,
		Constraints:     constraints,
		Sink:            sink,
		Cancel:          req.Cancel,
		Q:               NewTriangularTable(n),
		QB:              NewTriangularTable(n),
		QM:              NewTriangularTable(n),
		QM1:             NewTriangularTable(n),
		Probs:           NewTriangularTable(n),
	}
	if model.GQuad {
		if req.GQuad != nil {
			if req.GQuad.n != n {
				return nil, &InvalidInput{Why: "GQuad table size does not match sequence length"}
			}
			ctx.G = req.GQuad
		} else {
			ctx.G = NewTriangularTable(n)
		}
	}

	oracle := NewEnergyOracle(params, model)
	wMLBase := oracle.boltzmann(params.MultiLoopUnpairedNucleotideBonus)
	ctx.Scaling = PrepareScaling(n, model, wMLBase)

	if err := NewForwardEngine(oracle).Run(ctx); err != nil {
		return nil, err
	}

	prepareLinearSums(ctx)

	if err := NewOutsideEngine(oracle).Run(ctx); err != nil {
		return nil, err
	}

	z := ctx.Q.AddrIJ(1, n)
	if model.Circular {
		z = ctx.QO
	}
	if z == 0 {
		return nil, &ConstraintInfeasible{}
	}

	f, err := EnsembleFreeEnergy(ctx)
	if err != nil {
		return nil, err
	}

	return &FoldResult{Context: ctx, Z: z, F: f}, nil
}

// prepareLinearSums fills ctx.Q1K and ctx.QLK, the cumulative q[1,k] and
// q[k,n] vectors OutsideEngine's linear-mode initialization and the
// Sampler's linear walk both need, with sentinels Q1K[0]=QLK[n+1]=1 per
// spec.md §4.5.
func prepareLinearSums(ctx *FoldContext) {
	n := ctx.N
	ctx.Q1K = make([]float64, n+2)
	ctx.QLK = make([]float64, n+2)
	ctx.Q1K[0] = 1
	ctx.QLK[n+1] = 1
	for k := 1; k <= n; k++ {
		ctx.Q1K[k] = ctx.Q.AddrIJ(1, k)
	}
	for k := n; k >= 1; k-- {
		ctx.QLK[k] = ctx.Q.AddrIJ(k, n)
	}
}

// normalizeSequence upper-cases the sequence, converts T to U, and
// rejects any non-ACGU character, per spec.md §6's ingestion rule. The
// final RNA-alphabet check is delegated to checks.IsRNA rather than
// re-implementing the per-character scan here.
func normalizeSequence(sequence string) (string, error) {
	upper := strings.ToUpper(sequence)
	out := make([]byte, len(upper))
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		if c == 'T' {
			c = 'U'
		}
		out[i] = c
	}
	normalized := string(out)
	if !checks.IsRNA(normalized) {
		return "", &InvalidInput{Why: "sequence contains a non-nucleotide character"}
	}
	return normalized, nil
}
