package tape

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"namedprng/domain/core"
	"namedprng/ports"
)

// Naming maps a stream key to its tape filename within the deck directory.
type Naming func(core.GroupKey) string

// DefaultNaming stores one tape per stream key.
func DefaultNaming(key core.GroupKey) string {
	return fmt.Sprintf("r%d_%s_%s.tape", key.Realization, key.Type, key.Purpose)
}

// Deck owns a directory of tapes. Handles are cached per file: a recorder
// re-requested for a key keeps appending, and a player re-requested for a
// key keeps consuming from where the last request stopped. Positions never
// rewind within a deck's lifetime.
type Deck struct {
	dir    string
	naming Naming

	mu      sync.Mutex
	writers map[string]*os.File
	players map[string]*Player
}

// NewDeck creates the tape directory if needed and returns a deck over it.
// A nil naming falls back to DefaultNaming.
func NewDeck(dir string, naming Naming) (*Deck, error) {
	if naming == nil {
		naming = DefaultNaming
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tape directory %s: %w", dir, err)
	}
	return &Deck{
		dir:     dir,
		naming:  naming,
		writers: make(map[string]*os.File),
		players: make(map[string]*Player),
	}, nil
}

// Path reports where the stream's tape lives.
func (d *Deck) Path(key core.GroupKey) string {
	return filepath.Join(d.dir, d.naming(key))
}

// Recorder wraps src so every value it emits lands on the stream's tape.
// The tape file is opened for appending, so recording across sessions
// extends the existing record.
func (d *Deck) Recorder(key core.GroupKey, src ports.DrawSource) (ports.TapeRecorder, error) {
	path := d.Path(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.writers[path]
	if !ok {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open tape %s for appending: %w", path, err)
		}
		d.writers[path] = f
	}
	return NewRecorder(src, f), nil
}

// Player replays the stream's tape, resuming wherever earlier players for
// the same key left off.
func (d *Deck) Player(key core.GroupKey) (ports.DrawSource, error) {
	path := d.Path(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.players[path]; ok {
		return p, nil
	}
	p, err := OpenPlayer(path)
	if err != nil {
		return nil, err
	}
	d.players[path] = p
	return p, nil
}

// Close releases every open tape handle.
func (d *Deck) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for path, f := range d.writers {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close tape %s: %w", path, err))
		}
	}
	for path, p := range d.players {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close tape %s: %w", path, err))
		}
	}
	d.writers = make(map[string]*os.File)
	d.players = make(map[string]*Player)
	return errors.Join(errs...)
}

var _ ports.TapeDeck = (*Deck)(nil)
