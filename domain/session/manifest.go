package session

import (
	"fmt"
	"sort"
	"strings"

	"namedprng/domain/core"
)

// StreamRecord captures one stream's identity and tape footprint within a
// session.
type StreamRecord struct {
	Key     core.GroupKey   `json:"key"`
	Seed    uint64          `json:"seed"`
	Mode    core.StreamMode `json:"mode"`
	Tape    string          `json:"tape,omitempty"`
	Records uint64          `json:"records"`
}

// Fingerprint pins the determinism inputs of a session. Two sessions with
// equal fingerprint values produce interchangeable draw streams and tapes.
type Fingerprint struct {
	RegistryHash core.RegistryHash `json:"registry_hash"`
	NMax         int               `json:"n_max"`
	Purposes     []core.Purpose    `json:"purposes"`
	Value        core.Hash         `json:"value"`
}

// NewFingerprint combines the determinism inputs into a stable hash.
func NewFingerprint(registryHash core.RegistryHash, nMax int, purposes []core.Purpose) Fingerprint {
	var data strings.Builder
	data.WriteString(registryHash.String())
	fmt.Fprintf(&data, "|%d|", nMax)
	for _, p := range purposes {
		data.WriteString(p.String())
		data.WriteString(",")
	}

	return Fingerprint{
		RegistryHash: registryHash,
		NMax:         nMax,
		Purposes:     append([]core.Purpose(nil), purposes...),
		Value:        core.NewHash([]byte(data.String())),
	}
}

// Manifest is the persisted record of a recording or replay session - the
// truth source a later replay is checked against.
type Manifest struct {
	SessionID    core.SessionID    `json:"session_id"`
	Mode         core.StreamMode   `json:"mode"`
	TapeDir      string            `json:"tape_dir,omitempty"`
	UsedOnly     bool              `json:"used_only"`
	NMax         int               `json:"n_max"`
	Purposes     []core.Purpose    `json:"purposes"`
	RegistryHash core.RegistryHash `json:"registry_hash"`
	Streams      []StreamRecord    `json:"streams"`
	Fingerprint  Fingerprint       `json:"fingerprint"`
	CreatedAt    core.Timestamp    `json:"created_at"`
}

// NewManifest assembles a manifest with a fresh session ID and fingerprint.
// Stream records are sorted by key so equal sessions serialize identically.
func NewManifest(
	mode core.StreamMode,
	tapeDir string,
	usedOnly bool,
	nMax int,
	purposes []core.Purpose,
	registryHash core.RegistryHash,
	streams []StreamRecord,
) *Manifest {
	sorted := append([]StreamRecord(nil), streams...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Key, sorted[j].Key
		if a.Realization != b.Realization {
			return a.Realization < b.Realization
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Purpose < b.Purpose
	})

	return &Manifest{
		SessionID:    core.SessionID(core.NewID()),
		Mode:         mode,
		TapeDir:      tapeDir,
		UsedOnly:     usedOnly,
		NMax:         nMax,
		Purposes:     append([]core.Purpose(nil), purposes...),
		RegistryHash: registryHash,
		Streams:      sorted,
		Fingerprint:  NewFingerprint(registryHash, nMax, purposes),
		CreatedAt:    core.Now(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.SessionID).IsEmpty() {
		return core.NewValidationError("session_manifest", "session_id cannot be empty")
	}
	if !m.Mode.Valid() {
		return core.NewValidationError("session_manifest", fmt.Sprintf("unknown mode %q", m.Mode))
	}
	if m.NMax < 1 {
		return core.NewValidationError("session_manifest", "n_max must be at least 1")
	}
	if len(m.Purposes) == 0 {
		return core.NewValidationError("session_manifest", "purposes cannot be empty")
	}
	if m.RegistryHash.IsEmpty() {
		return core.NewValidationError("session_manifest", "registry_hash cannot be empty")
	}
	if m.Fingerprint.Value.IsEmpty() {
		return core.NewValidationError("session_manifest", "fingerprint cannot be empty")
	}
	return nil
}
