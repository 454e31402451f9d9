package ports

import "namedprng/domain/core"

// TapeRecorder tees a draw stream onto persistent storage. Drawing through
// the recorder appends every emitted value before returning it unchanged;
// Append writes values that were drawn elsewhere (used-only recording).
type TapeRecorder interface {
	DrawSource

	// Append persists values without drawing them
	Append(values []float64) error
}

// TapeDeck hands out per-stream recorders and players over recorded draws.
// Handles are cached per stream so that re-requesting a recorder keeps
// appending and re-requesting a player keeps consuming; positions never
// rewind within a deck's lifetime.
type TapeDeck interface {
	// Recorder wraps src so every draw lands on the stream's tape
	Recorder(key core.GroupKey, src DrawSource) (TapeRecorder, error)

	// Player replays a previously recorded stream in emission order
	Player(key core.GroupKey) (DrawSource, error)

	// Path reports where the stream's tape lives
	Path(key core.GroupKey) string

	// Close releases all open tape handles
	Close() error
}
