package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

func TestParseRunID(t *testing.T) {
	id := NewRunID()
	parsed, err := ParseRunID(" " + id.String() + " ")
	if err != nil {
		t.Fatalf("ParseRunID(%q) failed: %v", id, err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	if _, err := ParseRunID(""); err == nil {
		t.Error("Expected error for empty run ID")
	}
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Error("Expected error for malformed run ID")
	}
}

func TestErrorClassification(t *testing.T) {
	parse := NewParseError(ErrArity, 3, "expected 4 fields, got 3")
	if !IsParseError(parse) || !IsFatal(parse) {
		t.Errorf("arity error should be a fatal parse error: %v", parse)
	}

	undefined := NewUndefinedError(ErrNoVariance, "pop1", "total_sites")
	if !IsUndefined(undefined) {
		t.Errorf("no-variance error should be undefined: %v", undefined)
	}
	if IsFatal(undefined) {
		t.Error("undefined statistics must not be fatal")
	}

	if !IsStructuralError(ErrMissingCounterpart) || !IsStructuralError(ErrReferenceArity) {
		t.Error("reference errors should be structural")
	}
	if !IsMissingField(NewMissingFieldError("positions", "uniformity")) {
		t.Error("missing field error not recognised")
	}
}
