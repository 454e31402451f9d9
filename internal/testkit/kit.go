package testkit

import (
	"context"
	"fmt"
	"sync"

	"namedprng/domain/core"
	"namedprng/domain/session"
	"namedprng/ports"
)

// InMemoryLedger implements ports.SessionLedger with in-memory storage.
type InMemoryLedger struct {
	manifests map[core.SessionID]session.Manifest
	order     []core.SessionID
	mu        sync.RWMutex
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		manifests: make(map[core.SessionID]session.Manifest),
	}
}

func (l *InMemoryLedger) StoreManifest(ctx context.Context, m session.Manifest) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.manifests[m.SessionID]; !exists {
		l.order = append(l.order, m.SessionID)
	}
	l.manifests[m.SessionID] = m
	return nil
}

func (l *InMemoryLedger) GetManifest(ctx context.Context, id core.SessionID) (*session.Manifest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, exists := l.manifests[id]
	if !exists {
		return nil, fmt.Errorf("manifest not found: %s", id)
	}
	return &m, nil
}

func (l *InMemoryLedger) ListManifests(ctx context.Context, limit int) ([]session.Manifest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	results := make([]session.Manifest, 0, len(l.order))
	for i := len(l.order) - 1; i >= 0; i-- {
		if limit > 0 && len(results) >= limit {
			break
		}
		results = append(results, l.manifests[l.order[i]])
	}
	return results, nil
}

// ScriptedSource replays a fixed slice of values and fails once they run
// out. It stands in for a real engine where tests need known draws.
type ScriptedSource struct {
	values []float64
	next   int
}

func NewScriptedSource(values ...float64) *ScriptedSource {
	return &ScriptedSource{values: values}
}

func (s *ScriptedSource) Draw() (float64, error) {
	var buf [1]float64
	if err := s.DrawMany(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (s *ScriptedSource) DrawMany(dst []float64) error {
	if len(dst) > len(s.values)-s.next {
		return core.NewExhaustedSourceError(len(dst), uint64(len(s.values)-s.next))
	}
	copy(dst, s.values[s.next:])
	s.next += len(dst)
	return nil
}

func (s *ScriptedSource) Advance(n int) error {
	if n <= 0 {
		return nil
	}
	if n > len(s.values)-s.next {
		return core.NewExhaustedSourceError(n, uint64(len(s.values)-s.next))
	}
	s.next += n
	return nil
}

// Issued reports how many values the source has handed out so far.
func (s *ScriptedSource) Issued() int { return s.next }

var (
	_ ports.SessionLedger = (*InMemoryLedger)(nil)
	_ ports.DrawSource    = (*ScriptedSource)(nil)
)
