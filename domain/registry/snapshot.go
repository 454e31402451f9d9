package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"namedprng/domain/core"
)

// Snapshot is the canonical serializable image of a registry. It preserves
// type and particle insertion order and retired slots, so a rebuilt registry
// reproduces the exact draw-span layout of the original.
type Snapshot struct {
	Types []TypeSnapshot `json:"types"`
}

// TypeSnapshot captures one particle type with its full slot history.
type TypeSnapshot struct {
	Name  core.TypeName  `json:"name"`
	Slots []SlotSnapshot `json:"slots"`
}

// SlotSnapshot captures one slot, live or retired.
type SlotSnapshot struct {
	ID         core.ParticleID `json:"id"`
	OrderIndex int             `json:"order_index"`
	Live       bool            `json:"live"`
}

// Snapshot captures the current registry contents.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{Types: make([]TypeSnapshot, 0, len(r.order))}
	for _, name := range r.order {
		entry := r.types[name]
		ts := TypeSnapshot{Name: name, Slots: make([]SlotSnapshot, 0, len(entry.slots))}
		for _, s := range entry.slots {
			ts.Slots = append(ts.Slots, SlotSnapshot{ID: s.id, OrderIndex: s.order, Live: !s.dead})
		}
		snap.Types = append(snap.Types, ts)
	}
	return snap
}

// FromSnapshot rebuilds a registry, including retired slots.
func FromSnapshot(snap Snapshot) (*Registry, error) {
	r := &Registry{types: make(map[core.TypeName]*typeEntry)}
	for _, ts := range snap.Types {
		if err := r.AddType(ts.Name); err != nil {
			return nil, err
		}
		for _, s := range ts.Slots {
			if err := r.AddParticle(ts.Name, s.ID, s.OrderIndex); err != nil {
				return nil, err
			}
			if !s.Live {
				if err := r.RemoveParticle(ts.Name, s.ID); err != nil {
					return nil, err
				}
			}
		}
	}
	return r, nil
}

// Hash fingerprints the registry contents over the canonical snapshot bytes.
func (r *Registry) Hash() core.RegistryHash {
	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		// Snapshot holds only strings, ints and bools; marshaling cannot fail.
		panic(err)
	}
	return core.NewRegistryHash(data)
}

// Save writes the registry snapshot to a JSON file.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry snapshot to %s: %w", path, err)
	}
	return nil
}

// Load reads a registry snapshot from a JSON file written by Save.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry snapshot from %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse registry snapshot %s: %w", path, err)
	}
	return FromSnapshot(snap)
}
