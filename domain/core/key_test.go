package core

import (
	"errors"
	"testing"
)

// TestGroupKeyString tests the stream key rendering used for tape names and logs
func TestGroupKeyString(t *testing.T) {
	key := NewGroupKey(3, "quarks", "random_walk")
	if key.String() != "r3/quarks/random_walk" {
		t.Errorf("Expected 'r3/quarks/random_walk', got '%s'", key.String())
	}
}

// TestGroupKeyValidate tests key validation
func TestGroupKeyValidate(t *testing.T) {
	tests := []struct {
		name     string
		key      GroupKey
		hasError bool
	}{
		{"valid", NewGroupKey(0, "quarks", "init"), false},
		{"empty type", NewGroupKey(0, "", "init"), true},
		{"empty purpose", NewGroupKey(0, "quarks", ""), true},
	}

	for _, test := range tests {
		err := test.key.Validate()
		if test.hasError && err == nil {
			t.Errorf("%s: expected error, got none", test.name)
		}
		if !test.hasError && err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
		}
	}
}

// TestGroupKeyEquality tests that equal triples compare equal as map keys
func TestGroupKeyEquality(t *testing.T) {
	a := NewGroupKey(1, "atoms", "decay")
	b := NewGroupKey(1, "atoms", "decay")
	if a != b {
		t.Error("Expected identical triples to be equal")
	}

	seen := map[GroupKey]int{a: 1}
	if seen[b] != 1 {
		t.Error("Expected equal keys to collide in a map")
	}
}

// TestParseStreamMode tests stream mode parsing
func TestParseStreamMode(t *testing.T) {
	for _, valid := range []string{"algorithmic", "record", "replay"} {
		mode, err := ParseStreamMode(valid)
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", valid, err)
		}
		if !mode.Valid() {
			t.Errorf("Expected %q to be valid", valid)
		}
	}

	if _, err := ParseStreamMode("stream"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

// TestErrorHelpers tests the error kind grouping helpers
func TestErrorHelpers(t *testing.T) {
	if !IsRegistryError(NewDuplicateIDError("quarks", "up")) {
		t.Error("Expected duplicate id to be a registry error")
	}
	if !IsSeedError(NewTooManyTypesError("gluons", 4)) {
		t.Error("Expected too many types to be a seed error")
	}
	if !IsStreamError(NewExhaustedSourceError(5, 2)) {
		t.Error("Expected exhausted source to be a stream error")
	}
	if !errors.Is(NewModeChangeError(NewGroupKey(0, "quarks", "init")), ErrModeChangeAfterUse) {
		t.Error("Expected mode change error to wrap the sentinel")
	}
	if IsRegistryError(NewSeedSpaceOverflowError(NewGroupKey(0, "quarks", "init"))) {
		t.Error("Expected overflow not to be a registry error")
	}
}
