package checks

import "testing"

func TestIsDNA(t *testing.T) {
	if !IsDNA("ACGTACGT") {
		t.Error("IsDNA failed to call a DNA sequence DNA")
	}
	if IsDNA("ACGUACGU") {
		t.Error("IsDNA failed to call an RNA sequence NOT DNA")
	}
	if IsDNA("ACGTN") {
		t.Error("IsDNA failed to call a sequence with an ambiguity code NOT DNA")
	}
}

func TestIsRNA(t *testing.T) {
	if !IsRNA("ACGUACGU") {
		t.Error("IsRNA failed to call an RNA sequence RNA")
	}
	if IsRNA("ACGTACGT") {
		t.Error("IsRNA failed to call a DNA sequence NOT RNA")
	}
	if IsRNA("ACGUN") {
		t.Error("IsRNA failed to call a sequence with an ambiguity code NOT RNA")
	}
}
