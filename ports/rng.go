package ports

// DrawSource produces a reproducible sequence of floats in [0, 1). The same
// source state always yields the same values in the same order, so callers
// that draw identically see identical streams across process restarts.
type DrawSource interface {
	// Draw returns the next value in the stream
	Draw() (float64, error)

	// DrawMany fills dst with the next len(dst) values in draw order.
	// Either all values are produced or none are consumed.
	DrawMany(dst []float64) error

	// Advance discards the next n values, advancing the stream state
	Advance(n int) error
}

// EngineFactory builds algorithmic draw sources from derived seeds
type EngineFactory interface {
	// NewSource creates an independent draw stream for a seed. Equal seeds
	// produce bit-identical streams.
	NewSource(seed uint64) DrawSource
}
