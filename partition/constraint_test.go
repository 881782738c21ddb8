package partition

import "testing"

func TestNewUnconstrainedAllowsEverything(t *testing.T) {
	c := NewUnconstrained(5)
	if !c.Allowed(1, 5, InHPLoop|InIntLoop|InMBLoop) {
		t.Error("expected all decompositions to be allowed by default")
	}
	if got := c.MaxUnpaired(ContextHairpin, 1); got != 5 {
		t.Errorf("MaxUnpaired = %d, want 5", got)
	}
}

func TestNewHardConstraintForcesUnpaired(t *testing.T) {
	c, err := NewHardConstraint(5, "x....")
	if err != nil {
		t.Fatalf("NewHardConstraint: %v", err)
	}
	if c.MaxUnpaired(ContextHairpin, 1) != 5 {
		t.Errorf("position 1 is forced unpaired, so the unpaired run of 5 starting there should stay admissible")
	}
	if c.Allowed(1, 3, InHPLoop) {
		t.Error("pair touching a forced-unpaired position should not be allowed")
	}
}

func TestNewHardConstraintRejectsLengthMismatch(t *testing.T) {
	if _, err := NewHardConstraint(4, "....."); err == nil {
		t.Fatal("expected an error for a constraint string of the wrong length")
	}
}

func TestSoftConstraintDefaults(t *testing.T) {
	var c *Constraints
	if got := c.SoftUnpaired(1, 1); got != 1 {
		t.Errorf("SoftUnpaired on nil Constraints = %v, want 1", got)
	}
	if got := c.SoftPair(1, 2); got != 1 {
		t.Errorf("SoftPair on nil Constraints = %v, want 1", got)
	}
	if got := c.Callback(1, 2, 1, 1, DecompHairpinLoop); got != 1 {
		t.Errorf("Callback on nil Constraints = %v, want 1", got)
	}
}

func TestSoftConstraintOverrides(t *testing.T) {
	c := NewUnconstrained(3)
	tbl := NewSoftPairTable(3)
	tbl.SetIJ(1, 3, 0.5)
	c.SetSoftPair(tbl)
	if got := c.SoftPair(1, 3); got != 0.5 {
		t.Errorf("SoftPair(1,3) = %v, want 0.5", got)
	}
	if got := c.SoftPair(1, 2); got != 1 {
		t.Errorf("SoftPair(1,2) = %v, want 1 (untouched cell defaults neutral)", got)
	}
}
