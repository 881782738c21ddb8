package partition

import "fmt"

// InvalidInput is returned when the sequence or its accompanying
// constraints cannot be folded at all: non-nucleotide characters, a zero
// length, a length beyond the hard limit, or a constraint string whose
// length disagrees with the sequence.
type InvalidInput struct {
	Why string
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Why)
}

// Overflow is returned when a DP cell reaches the floating-point maximum
// during the forward fill. The caller should retry with a larger pf_scale
// hint (see ModelDetails.PFScale).
type Overflow struct {
	I, J  int
	Value float64
}

func (e *Overflow) Error() string {
	return fmt.Sprintf("partition function overflow at cell (%d,%d) = %g; retry with a larger pf_scale", e.I, e.J, e.Value)
}

// Underflow is returned when the root cell's partition function is at or
// below the smallest representable positive float. The caller should retry
// with a smaller pf_scale hint.
type Underflow struct{}

func (e *Underflow) Error() string {
	return "partition function underflow at the root cell; retry with a smaller pf_scale"
}

// ConstraintInfeasible is returned when the hard constraints exclude every
// structure, including the empty one (Z == 0, and not from underflow).
type ConstraintInfeasible struct{}

func (e *ConstraintInfeasible) Error() string {
	return "hard constraints admit no structure"
}

// SampleFailure is returned by the stochastic traceback when cumulative
// decomposition mass never reaches the drawn random value, which indicates
// numerical drift between the forward pass and the sampler.
type SampleFailure struct {
	Region string
}

func (e *SampleFailure) Error() string {
	return fmt.Sprintf("sampling failed to resolve a decomposition in region %s", e.Region)
}

// Cancelled is returned when the caller's cancellation token fires before
// the fold completes.
type Cancelled struct{}

func (e *Cancelled) Error() string {
	return "fold cancelled"
}
