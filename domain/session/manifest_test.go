package session

import (
	"testing"

	"namedprng/domain/core"
)

func TestFingerprintDeterministic(t *testing.T) {
	registryHash := core.NewRegistryHash([]byte("registry"))
	purposes := []core.Purpose{"init", "walk"}

	fp1 := NewFingerprint(registryHash, 4, purposes)
	fp2 := NewFingerprint(registryHash, 4, purposes)

	if fp1.Value != fp2.Value {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Value, fp2.Value)
	}
	if fp1.RegistryHash != registryHash {
		t.Errorf("RegistryHash mismatch: %s vs %s", fp1.RegistryHash, registryHash)
	}
	if fp1.NMax != 4 {
		t.Errorf("NMax mismatch: %d vs 4", fp1.NMax)
	}
}

func TestFingerprintUnique(t *testing.T) {
	registryHash := core.NewRegistryHash([]byte("registry"))
	base := NewFingerprint(registryHash, 4, []core.Purpose{"init", "walk"})

	testCases := []struct {
		name string
		fp   Fingerprint
	}{
		{"different registry", NewFingerprint(core.NewRegistryHash([]byte("other")), 4, []core.Purpose{"init", "walk"})},
		{"different n_max", NewFingerprint(registryHash, 5, []core.Purpose{"init", "walk"})},
		{"different purposes", NewFingerprint(registryHash, 4, []core.Purpose{"walk", "init"})},
	}

	for _, tc := range testCases {
		if tc.fp.Value == base.Value {
			t.Errorf("%s: expected a different fingerprint", tc.name)
		}
	}
}

func TestNewManifestSortsStreams(t *testing.T) {
	registryHash := core.NewRegistryHash([]byte("registry"))
	streams := []StreamRecord{
		{Key: core.NewGroupKey(1, "quarks", "walk"), Seed: 9},
		{Key: core.NewGroupKey(0, "quarks", "walk"), Seed: 1},
		{Key: core.NewGroupKey(0, "atoms", "walk"), Seed: 2},
		{Key: core.NewGroupKey(0, "atoms", "init"), Seed: 0},
	}

	m := NewManifest(core.ModeRecord, "tapes", false, 4, []core.Purpose{"init", "walk"}, registryHash, streams)

	wantOrder := []core.GroupKey{
		core.NewGroupKey(0, "atoms", "init"),
		core.NewGroupKey(0, "atoms", "walk"),
		core.NewGroupKey(0, "quarks", "walk"),
		core.NewGroupKey(1, "quarks", "walk"),
	}
	for i, want := range wantOrder {
		if m.Streams[i].Key != want {
			t.Errorf("Streams[%d] = %s, want %s", i, m.Streams[i].Key, want)
		}
	}

	// Input slice must not be reordered in place.
	if streams[0].Key != core.NewGroupKey(1, "quarks", "walk") {
		t.Error("NewManifest mutated the caller's stream slice")
	}
}

func TestManifestValidate(t *testing.T) {
	registryHash := core.NewRegistryHash([]byte("registry"))
	valid := NewManifest(core.ModeAlgorithmic, "", false, 4, []core.Purpose{"init"}, registryHash, nil)
	if err := valid.Validate(); err != nil {
		t.Errorf("Unexpected error for valid manifest: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Manifest)
	}{
		{"empty session id", func(m *Manifest) { m.SessionID = "" }},
		{"bad mode", func(m *Manifest) { m.Mode = "stream" }},
		{"zero n_max", func(m *Manifest) { m.NMax = 0 }},
		{"no purposes", func(m *Manifest) { m.Purposes = nil }},
		{"no registry hash", func(m *Manifest) { m.RegistryHash = "" }},
		{"no fingerprint", func(m *Manifest) { m.Fingerprint.Value = "" }},
	}
	for _, test := range tests {
		m := NewManifest(core.ModeAlgorithmic, "", false, 4, []core.Purpose{"init"}, registryHash, nil)
		test.mutate(m)
		if err := m.Validate(); err == nil {
			t.Errorf("%s: expected validation error", test.name)
		}
	}
}
