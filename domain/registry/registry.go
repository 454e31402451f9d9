package registry

import (
	"strconv"
	"sync"

	"namedprng/domain/core"
)

// ParticleDef declares one particle at construction time.
type ParticleDef struct {
	ID         core.ParticleID
	OrderIndex int
}

// TypeDef declares one particle type and its particles in insertion order.
type TypeDef struct {
	Name      core.TypeName
	Particles []ParticleDef
}

// CountedType declares a particle type by population size only. Particle IDs
// are synthesized as "0".."n-1" with order index equal to position.
type CountedType struct {
	Name  core.TypeName
	Count int
}

// Slot reports a live particle's fixed position within its type's draw span.
type Slot struct {
	Position   int
	ID         core.ParticleID
	OrderIndex int
}

type slot struct {
	id    core.ParticleID
	order int
	dead  bool
}

type typeEntry struct {
	slots []slot
	live  map[core.ParticleID]int // live particle -> slot position
}

// Registry holds the nested mapping particle-type -> particle-ID -> order
// index. Iteration order over types, and over particles within a type, is
// insertion order and survives inserts and removals of other entries.
// Removing a particle retires its slot rather than shifting later slots, so
// the positional draw of every remaining particle stays where it was.
// Order indices are caller-supplied bookkeeping; uniqueness is not enforced
// and they never reorder emission.
//
// Reads may run concurrently; mutations take exclusive access and belong at
// setup/teardown boundaries between realizations.
type Registry struct {
	mu    sync.RWMutex
	order []core.TypeName
	types map[core.TypeName]*typeEntry
}

// New builds a registry from type definitions, preserving their order.
func New(defs ...TypeDef) (*Registry, error) {
	r := &Registry{types: make(map[core.TypeName]*typeEntry)}
	for _, def := range defs {
		if err := r.AddType(def.Name); err != nil {
			return nil, err
		}
		for _, p := range def.Particles {
			if err := r.AddParticle(def.Name, p.ID, p.OrderIndex); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// NewCounted builds a registry from population sizes alone.
func NewCounted(defs ...CountedType) (*Registry, error) {
	converted := make([]TypeDef, 0, len(defs))
	for _, def := range defs {
		if def.Count < 0 {
			return nil, core.NewValidationError("counted_type", "count cannot be negative")
		}
		particles := make([]ParticleDef, def.Count)
		for i := 0; i < def.Count; i++ {
			particles[i] = ParticleDef{ID: core.ParticleID(strconv.Itoa(i)), OrderIndex: i}
		}
		converted = append(converted, TypeDef{Name: def.Name, Particles: particles})
	}
	return New(converted...)
}

// AddType registers a new, empty particle type at the end of the type order.
func (r *Registry) AddType(name core.TypeName) error {
	if name.IsEmpty() {
		return core.NewValidationError("type_name", "cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[name]; ok {
		return core.NewDuplicateTypeError(name)
	}
	r.types[name] = &typeEntry{live: make(map[core.ParticleID]int)}
	r.order = append(r.order, name)
	return nil
}

// RemoveType removes a particle type and all of its particles.
func (r *Registry) RemoveType(name core.TypeName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[name]; !ok {
		return core.NewUnknownTypeError(name)
	}
	delete(r.types, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddParticle appends a particle to its type's draw span. The order index is
// stored as bookkeeping data only. Re-adding a removed ID appends a fresh
// slot; the retired slot keeps its position.
func (r *Registry) AddParticle(t core.TypeName, id core.ParticleID, orderIndex int) error {
	if id == "" {
		return core.NewValidationError("particle_id", "cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.types[t]
	if !ok {
		return core.NewUnknownTypeError(t)
	}
	if _, ok := entry.live[id]; ok {
		return core.NewDuplicateIDError(t, id)
	}
	entry.slots = append(entry.slots, slot{id: id, order: orderIndex})
	entry.live[id] = len(entry.slots) - 1
	return nil
}

// RemoveParticle retires a particle's slot. The slot keeps consuming one
// positional draw so that draws of the remaining particles never shift.
func (r *Registry) RemoveParticle(t core.TypeName, id core.ParticleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.types[t]
	if !ok {
		return core.NewUnknownTypeError(t)
	}
	pos, ok := entry.live[id]
	if !ok {
		return core.NewUnknownParticleError(t, id)
	}
	entry.slots[pos].dead = true
	delete(entry.live, id)
	return nil
}

// Types returns the type names in insertion order.
func (r *Registry) Types() []core.TypeName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.TypeName, len(r.order))
	copy(out, r.order)
	return out
}

// HasType reports whether the type exists.
func (r *Registry) HasType(t core.TypeName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[t]
	return ok
}

// ParticlesOf returns the live particle IDs of a type in insertion order.
func (r *Registry) ParticlesOf(t core.TypeName) ([]core.ParticleID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[t]
	if !ok {
		return nil, core.NewUnknownTypeError(t)
	}
	out := make([]core.ParticleID, 0, len(entry.live))
	for _, s := range entry.slots {
		if !s.dead {
			out = append(out, s.id)
		}
	}
	return out, nil
}

// Count returns the number of live particles of a type.
func (r *Registry) Count(t core.TypeName) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[t]
	if !ok {
		return 0, core.NewUnknownTypeError(t)
	}
	return len(entry.live), nil
}

// Span returns the width of a type's draw span: live slots plus retired
// slots, each of which still consumes one positional draw.
func (r *Registry) Span(t core.TypeName) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[t]
	if !ok {
		return 0, core.NewUnknownTypeError(t)
	}
	return len(entry.slots), nil
}

// LiveSlots returns the live particles of a type with their span positions,
// in insertion order.
func (r *Registry) LiveSlots(t core.TypeName) ([]Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[t]
	if !ok {
		return nil, core.NewUnknownTypeError(t)
	}
	out := make([]Slot, 0, len(entry.live))
	for pos, s := range entry.slots {
		if !s.dead {
			out = append(out, Slot{Position: pos, ID: s.id, OrderIndex: s.order})
		}
	}
	return out, nil
}

// OrderIndex returns the caller-supplied order index of a live particle.
func (r *Registry) OrderIndex(t core.TypeName, id core.ParticleID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[t]
	if !ok {
		return 0, core.NewUnknownTypeError(t)
	}
	pos, ok := entry.live[id]
	if !ok {
		return 0, core.NewUnknownParticleError(t, id)
	}
	return entry.slots[pos].order, nil
}
