package postgres

import "testing"

func TestNullIfEmpty(t *testing.T) {
	t.Parallel()

	if got := nullIfEmpty(""); got != nil {
		t.Fatalf("nullIfEmpty(\"\") = %v, want nil", got)
	}
	if got := nullIfEmpty("ngocanh"); got == nil || *got != "ngocanh" {
		t.Fatalf("nullIfEmpty(\"ngocanh\") = %v, want pointer to input", got)
	}
}
