package core

import "fmt"

// TypeName identifies a particle type.
type TypeName string

// Purpose names one independent statistical need for random numbers.
// Streams for different purposes of the same particle type are independent.
type Purpose string

// ParticleID identifies a particle within its type.
type ParticleID string

// Realization indexes one independent trial of a simulation.
type Realization uint64

// String returns the string representation
func (t TypeName) String() string    { return string(t) }
func (p Purpose) String() string     { return string(p) }
func (id ParticleID) String() string { return string(id) }

// IsEmpty checks if the name is empty
func (t TypeName) IsEmpty() bool { return t == "" }
func (p Purpose) IsEmpty() bool  { return p == "" }

// GroupKey identifies one logical stream of draws. Two equal keys always
// resolve to the same seed and, played from the start, the same sequence.
type GroupKey struct {
	Realization Realization `json:"realization"`
	Type        TypeName    `json:"type"`
	Purpose     Purpose     `json:"purpose"`
}

// NewGroupKey creates a stream key from its three coordinates
func NewGroupKey(r Realization, t TypeName, p Purpose) GroupKey {
	return GroupKey{Realization: r, Type: t, Purpose: p}
}

// String renders the key as r<realization>/<type>/<purpose>
func (k GroupKey) String() string {
	return fmt.Sprintf("r%d/%s/%s", k.Realization, k.Type, k.Purpose)
}

// Validate checks that the key names a usable stream
func (k GroupKey) Validate() error {
	if k.Type.IsEmpty() {
		return NewValidationError("group_key", "type cannot be empty")
	}
	if k.Purpose.IsEmpty() {
		return NewValidationError("group_key", "purpose cannot be empty")
	}
	return nil
}

// StreamMode selects how a stream produces its draws.
type StreamMode string

const (
	// ModeAlgorithmic computes draws with the seeded engine.
	ModeAlgorithmic StreamMode = "algorithmic"
	// ModeRecord computes draws and tees every emitted value to a tape.
	ModeRecord StreamMode = "record"
	// ModeReplay reads draws back from a previously recorded tape.
	ModeReplay StreamMode = "replay"
)

// String returns the string representation
func (m StreamMode) String() string { return string(m) }

// Valid reports whether the mode is one of the defined modes
func (m StreamMode) Valid() bool {
	switch m {
	case ModeAlgorithmic, ModeRecord, ModeReplay:
		return true
	}
	return false
}

// ParseStreamMode parses a string into a StreamMode
func ParseStreamMode(s string) (StreamMode, error) {
	m := StreamMode(s)
	if !m.Valid() {
		return "", NewValidationError("stream_mode", fmt.Sprintf("unknown mode %q", s))
	}
	return m, nil
}
