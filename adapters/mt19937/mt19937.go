package mt19937

import (
	"math/rand"

	"namedprng/ports"
)

const (
	n         = 312
	m         = 156
	matrixA   = 0xB5026F5AA96619E9
	upperMask = 0xFFFFFFFF80000000
	lowerMask = 0x7FFFFFFF

	initMultiplier = 6364136223846793005
)

var magic = [2]uint64{0, matrixA}

// Engine is a 64-bit Mersenne Twister draw source. Equal seeds yield
// bit-identical word and draw sequences across process restarts. The zero
// value is not usable; construct engines with New.
type Engine struct {
	state [n]uint64
	index uint64
}

// New returns an engine positioned at the start of the seed's sequence.
func New(seed uint64) *Engine {
	e := &Engine{}
	e.Reseed(seed)
	return e
}

// Reseed rewinds the engine to the start of the seed's sequence.
func (e *Engine) Reseed(seed uint64) {
	e.state[0] = seed
	for e.index = 1; e.index < n; e.index++ {
		e.state[e.index] = initMultiplier*(e.state[e.index-1]^(e.state[e.index-1]>>62)) + e.index
	}
}

// Uint64 returns the next raw word of the sequence.
func (e *Engine) Uint64() uint64 {
	var i int
	var x uint64
	if e.index >= n {
		for i = 0; i < n-m; i++ {
			x = (e.state[i] & upperMask) | (e.state[i+1] & lowerMask)
			e.state[i] = e.state[i+m] ^ (x >> 1) ^ magic[x&1]
		}
		for ; i < n-1; i++ {
			x = (e.state[i] & upperMask) | (e.state[i+1] & lowerMask)
			e.state[i] = e.state[i+m-n] ^ (x >> 1) ^ magic[x&1]
		}
		x = (e.state[n-1] & upperMask) | (e.state[0] & lowerMask)
		e.state[n-1] = e.state[m-1] ^ (x >> 1) ^ magic[x&1]
		e.index = 0
	}
	x = e.state[e.index]
	e.index++
	x ^= (x >> 29) & 0x5555555555555555
	x ^= (x << 17) & 0x71D67FFFEDA60000
	x ^= (x << 37) & 0xFFF7EEE000000000
	x ^= x >> 43
	return x
}

// Int63 makes the engine a math/rand source.
func (e *Engine) Int63() int64 {
	return int64(e.Uint64() >> 1)
}

// Seed implements rand.Source.
func (e *Engine) Seed(seed int64) {
	e.Reseed(uint64(seed))
}

// Draw returns the next uniform value in [0, 1), built from the word's top
// 53 bits so every representable value is equally likely.
func (e *Engine) Draw() (float64, error) {
	return float64(e.Uint64()>>11) / (1 << 53), nil
}

// DrawMany fills dst with the next len(dst) values in draw order.
func (e *Engine) DrawMany(dst []float64) error {
	for i := range dst {
		dst[i] = float64(e.Uint64()>>11) / (1 << 53)
	}
	return nil
}

// Advance discards the next count draws.
func (e *Engine) Advance(count int) error {
	for i := 0; i < count; i++ {
		e.Uint64()
	}
	return nil
}

// Factory hands out engines as draw sources.
type Factory struct{}

// NewFactory returns the default engine factory.
func NewFactory() Factory {
	return Factory{}
}

// NewSource creates an independent engine stream for a seed.
func (Factory) NewSource(seed uint64) ports.DrawSource {
	return New(seed)
}

var (
	_ rand.Source64       = (*Engine)(nil)
	_ ports.DrawSource    = (*Engine)(nil)
	_ ports.EngineFactory = Factory{}
)
