package seed

import (
	"fmt"
	"math"
	"sync"

	"namedprng/domain/core"
)

// Deriver maps stream keys to engine seeds. The packing
//
//	seed = realization*NMax*P + typeIndex*P + purposeIndex
//
// is injective while typeIndex < NMax and purposeIndex < P, so two distinct
// in-bound keys never share a seed. Particle types receive their index at
// first sight, in first-seen order; indices are never reused, so a type
// keeps its seeds even if it disappears from the registry and comes back.
// Changing NMax between runs changes the packing and with it every derived
// seed; comparability across runs requires a fixed NMax.
type Deriver struct {
	mu        sync.Mutex
	nMax      uint64
	purposes  []core.Purpose
	purposeIx map[core.Purpose]uint64
	typeIx    map[core.TypeName]uint64
}

// NewDeriver builds a deriver for a fixed type budget and purpose set.
func NewDeriver(nMax int, purposes []core.Purpose) (*Deriver, error) {
	if nMax < 1 {
		return nil, core.NewValidationError("n_max", "must be at least 1")
	}
	if len(purposes) == 0 {
		return nil, core.NewValidationError("purposes", "cannot be empty")
	}

	d := &Deriver{
		nMax:      uint64(nMax),
		purposes:  make([]core.Purpose, len(purposes)),
		purposeIx: make(map[core.Purpose]uint64, len(purposes)),
		typeIx:    make(map[core.TypeName]uint64),
	}
	copy(d.purposes, purposes)
	for i, p := range purposes {
		if p.IsEmpty() {
			return nil, core.NewValidationError("purposes", "purpose names cannot be empty")
		}
		if _, ok := d.purposeIx[p]; ok {
			return nil, core.NewValidationError("purposes", fmt.Sprintf("duplicate purpose %q", p))
		}
		d.purposeIx[p] = uint64(i)
	}
	if d.nMax > math.MaxUint64/uint64(len(purposes)) {
		return nil, core.NewValidationError("n_max", "n_max times purpose count exceeds the seed width")
	}
	return d, nil
}

// Derive returns the unique seed of a stream key.
func (d *Deriver) Derive(key core.GroupKey) (uint64, error) {
	if err := key.Validate(); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pIx, ok := d.purposeIx[key.Purpose]
	if !ok {
		return 0, core.NewUnknownPurposeError(key.Purpose)
	}
	tIx, ok := d.typeIx[key.Type]
	if !ok {
		if uint64(len(d.typeIx)) == d.nMax {
			return 0, core.NewTooManyTypesError(key.Type, int(d.nMax))
		}
		tIx = uint64(len(d.typeIx))
		d.typeIx[key.Type] = tIx
	}

	p := uint64(len(d.purposes))
	block := d.nMax * p // fits uint64, checked at construction
	base := tIx*p + pIx // tIx < nMax, so base < block
	r := uint64(key.Realization)
	if r > (math.MaxUint64-base)/block {
		return 0, core.NewSeedSpaceOverflowError(key)
	}
	return r*block + base, nil
}

// TypeIndex reports the index assigned to a type, if it has been seen.
func (d *Deriver) TypeIndex(name core.TypeName) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ix, ok := d.typeIx[name]
	return int(ix), ok
}

// Purposes returns the fixed purpose set in index order.
func (d *Deriver) Purposes() []core.Purpose {
	out := make([]core.Purpose, len(d.purposes))
	copy(out, d.purposes)
	return out
}

// NMax returns the declared particle type budget.
func (d *Deriver) NMax() int {
	return int(d.nMax)
}
