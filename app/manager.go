package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"namedprng/domain/core"
	"namedprng/domain/registry"
	"namedprng/domain/seed"
	"namedprng/domain/session"
	"namedprng/ports"
)

// Options configures a stream manager
type Options struct {
	// Mode is the default stream mode, algorithmic when empty
	Mode core.StreamMode

	// UsedOnly restricts tapes to the values that survive filtering.
	// Replays under UsedOnly consume exactly the filtered counts.
	UsedOnly bool

	// TapeDir is recorded in manifests for audit purposes
	TapeDir string

	// Logger receives per-draw debug events, discarded when nil
	Logger *zerolog.Logger
}

// Manager hands out reproducible draw streams, one independent stream per
// (realization, type, purpose) key. Streams come to life lazily on first
// use and stay alive until reset, so repeated draws against the same key
// continue the same sequence.
type Manager struct {
	registry *registry.Registry
	deriver  *seed.Deriver
	engines  ports.EngineFactory
	deck     ports.TapeDeck

	defaultMode core.StreamMode
	usedOnly    bool
	tapeDir     string
	log         zerolog.Logger

	mu        sync.Mutex
	overrides map[core.GroupKey]core.StreamMode
	streams   map[core.GroupKey]*streamState
}

// streamState is the live state of one stream. Its mutex serializes draws
// per key while draws on distinct keys proceed concurrently.
type streamState struct {
	mu     sync.Mutex
	mode   core.StreamMode
	seed   uint64
	src    ports.DrawSource
	rec    ports.TapeRecorder
	issued uint64
}

// NewManager creates a stream manager over a particle registry
func NewManager(reg *registry.Registry, deriver *seed.Deriver, engines ports.EngineFactory, deck ports.TapeDeck, opts Options) (*Manager, error) {
	if reg == nil {
		return nil, core.NewValidationError("registry", "is required")
	}
	if deriver == nil {
		return nil, core.NewValidationError("deriver", "is required")
	}
	if engines == nil {
		return nil, core.NewValidationError("engines", "is required")
	}

	mode := opts.Mode
	if mode == "" {
		mode = core.ModeAlgorithmic
	}
	if !mode.Valid() {
		return nil, core.NewValidationError("mode", "unknown stream mode "+mode.String())
	}
	if mode != core.ModeAlgorithmic && deck == nil {
		return nil, core.NewValidationError("deck", "a tape deck is required for mode "+mode.String())
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Manager{
		registry:    reg,
		deriver:     deriver,
		engines:     engines,
		deck:        deck,
		defaultMode: mode,
		usedOnly:    opts.UsedOnly,
		tapeDir:     opts.TapeDir,
		log:         log,
		overrides:   make(map[core.GroupKey]core.StreamMode),
		streams:     make(map[core.GroupKey]*streamState),
	}, nil
}

// Registry exposes the particle registry the manager draws for.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// UsedOnly reports whether tapes carry only post-filter values.
func (m *Manager) UsedOnly() bool { return m.usedOnly }

// Mode reports the effective stream mode for a key.
func (m *Manager) Mode(key core.GroupKey) core.StreamMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modeForLocked(key)
}

func (m *Manager) modeForLocked(key core.GroupKey) core.StreamMode {
	if mode, ok := m.overrides[key]; ok {
		return mode
	}
	return m.defaultMode
}

// ConfigureStream overrides the stream mode for one key. A stream can only
// be reconfigured while it has issued nothing, or after a reset.
func (m *Manager) ConfigureStream(key core.GroupKey, mode core.StreamMode) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if !mode.Valid() {
		return core.NewValidationError("mode", "unknown stream mode "+mode.String())
	}
	if mode != core.ModeAlgorithmic && m.deck == nil {
		return core.NewValidationError("deck", "a tape deck is required for mode "+mode.String())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.streams[key]; ok {
		st.mu.Lock()
		issued := st.issued
		st.mu.Unlock()
		if issued > 0 {
			return core.NewModeChangeError(key)
		}
		delete(m.streams, key)
	}
	m.overrides[key] = mode
	return nil
}

// stream returns the live state for a key, creating it on first use. Seed
// derivation runs in every mode so boundary errors do not depend on the
// mode a stream happens to be in.
func (m *Manager) stream(key core.GroupKey) (*streamState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.streams[key]; ok {
		return st, nil
	}

	sd, err := m.deriver.Derive(key)
	if err != nil {
		return nil, err
	}

	st := &streamState{mode: m.modeForLocked(key), seed: sd}
	switch st.mode {
	case core.ModeAlgorithmic:
		st.src = m.engines.NewSource(sd)
	case core.ModeRecord:
		src := m.engines.NewSource(sd)
		rec, err := m.deck.Recorder(key, src)
		if err != nil {
			return nil, err
		}
		st.rec = rec
		if m.usedOnly {
			st.src = src
		} else {
			st.src = rec
		}
	case core.ModeReplay:
		player, err := m.deck.Player(key)
		if err != nil {
			return nil, err
		}
		st.src = player
	}

	m.streams[key] = st
	m.log.Debug().
		Str("key", key.String()).
		Str("mode", st.mode.String()).
		Uint64("seed", sd).
		Msg("stream initialized")
	return st, nil
}

// DrawRequest names the stream to draw from and an optional particle
// filter. Include keeps only the named particles, Exclude drops them; the
// two are mutually exclusive and empty filters keep everything.
type DrawRequest struct {
	Realization core.Realization
	Type        core.TypeName
	Purpose     core.Purpose
	Include     []core.ParticleID
	Exclude     []core.ParticleID
}

// Key returns the stream key the request addresses.
func (r DrawRequest) Key() core.GroupKey {
	return core.GroupKey{Realization: r.Realization, Type: r.Type, Purpose: r.Purpose}
}

// DrawResult is one draw across a particle type: one value per surviving
// particle, in registry insertion order.
type DrawResult struct {
	Key    core.GroupKey
	IDs    []core.ParticleID
	Values []float64
}

// Map returns the particle id to value mapping.
func (r DrawResult) Map() map[core.ParticleID]float64 {
	out := make(map[core.ParticleID]float64, len(r.IDs))
	for i, id := range r.IDs {
		out[id] = r.Values[i]
	}
	return out
}

// Len reports how many particles survived the filter.
func (r DrawResult) Len() int { return len(r.Values) }

// Draw produces one value per live particle of the requested type from the
// stream the request addresses. The stream always advances by the type's
// full slot span regardless of the filter, so draws with different filters
// stay aligned. Under UsedOnly replay only the filtered count is consumed,
// matching what UsedOnly recording wrote.
func (m *Manager) Draw(req DrawRequest) (DrawResult, error) {
	key := req.Key()
	if err := key.Validate(); err != nil {
		return DrawResult{}, err
	}

	slots, err := m.registry.LiveSlots(req.Type)
	if err != nil {
		return DrawResult{}, err
	}
	span, err := m.registry.Span(req.Type)
	if err != nil {
		return DrawResult{}, err
	}
	keep, err := filterSlots(req.Type, slots, req.Include, req.Exclude)
	if err != nil {
		return DrawResult{}, err
	}

	st, err := m.stream(key)
	if err != nil {
		return DrawResult{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	ids := make([]core.ParticleID, len(keep))
	values := make([]float64, len(keep))

	if st.mode == core.ModeReplay && m.usedOnly {
		if err := st.src.DrawMany(values); err != nil {
			return DrawResult{}, err
		}
		st.issued += uint64(len(keep))
		for i, s := range keep {
			ids[i] = s.ID
		}
	} else {
		buf := make([]float64, span)
		if err := st.src.DrawMany(buf); err != nil {
			return DrawResult{}, err
		}
		st.issued += uint64(span)
		for i, s := range keep {
			ids[i] = s.ID
			values[i] = buf[s.Position]
		}
		if st.mode == core.ModeRecord && m.usedOnly {
			if err := st.rec.Append(values); err != nil {
				return DrawResult{}, err
			}
		}
	}

	m.log.Debug().
		Str("key", key.String()).
		Int("span", span).
		Int("kept", len(values)).
		Msg("drew values")
	return DrawResult{Key: key, IDs: ids, Values: values}, nil
}

// filterSlots validates a filter against the live population and returns
// the surviving slots in registry order. Validation happens before any
// stream state moves, so a bad filter never costs a draw.
func filterSlots(t core.TypeName, slots []registry.Slot, include, exclude []core.ParticleID) ([]registry.Slot, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, core.NewValidationError("filter", "include and exclude are mutually exclusive")
	}
	if len(include) == 0 && len(exclude) == 0 {
		return slots, nil
	}

	live := make(map[core.ParticleID]bool, len(slots))
	for _, s := range slots {
		live[s.ID] = true
	}

	marked := include
	if len(exclude) > 0 {
		marked = exclude
	}
	set := make(map[core.ParticleID]bool, len(marked))
	for _, id := range marked {
		if !live[id] {
			return nil, core.NewUnknownParticleError(t, id)
		}
		set[id] = true
	}

	keep := make([]registry.Slot, 0, len(slots))
	for _, s := range slots {
		if set[s.ID] == (len(include) > 0) {
			keep = append(keep, s)
		}
	}
	return keep, nil
}

// Prime eagerly initializes the streams of one realization for every
// registered type and purpose. In record mode this creates the tape files
// up front; in replay mode it verifies they exist.
func (m *Manager) Prime(ctx context.Context, realization core.Realization) error {
	for _, t := range m.registry.Types() {
		for _, p := range m.deriver.Purposes() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := core.GroupKey{Realization: realization, Type: t, Purpose: p}
			if _, err := m.stream(key); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reset discards the live state of the given streams. Their engines are
// re-seeded on next use while tape positions stay where they are, so a
// reset replay stream keeps consuming forward. A reset stream can be
// reconfigured again.
func (m *Manager) Reset(keys ...core.GroupKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.streams, key)
	}
}

// ResetRealization discards the live state of every stream under one
// realization.
func (m *Manager) ResetRealization(realization core.Realization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.streams {
		if key.Realization == realization {
			delete(m.streams, key)
		}
	}
}

// ResetAll discards all live stream state.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams = make(map[core.GroupKey]*streamState)
}

// IssuedDraws reports how many values a stream has produced since it was
// created or last reset.
func (m *Manager) IssuedDraws(key core.GroupKey) uint64 {
	m.mu.Lock()
	st, ok := m.streams[key]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.issued
}

// Manifest captures the manager's live streams for the session ledger.
func (m *Manager) Manifest() *session.Manifest {
	m.mu.Lock()
	defer m.mu.Unlock()

	streams := make([]session.StreamRecord, 0, len(m.streams))
	for key, st := range m.streams {
		st.mu.Lock()
		record := session.StreamRecord{Key: key, Seed: st.seed, Mode: st.mode, Records: st.issued}
		if st.mode != core.ModeAlgorithmic && m.deck != nil {
			record.Tape = m.deck.Path(key)
		}
		st.mu.Unlock()
		streams = append(streams, record)
	}

	return session.NewManifest(
		m.defaultMode,
		m.tapeDir,
		m.usedOnly,
		m.deriver.NMax(),
		m.deriver.Purposes(),
		m.registry.Hash(),
		streams,
	)
}
