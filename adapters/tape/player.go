package tape

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"namedprng/domain/core"
)

// recordSize is the on-tape width of one draw: a little-endian float64.
const recordSize = 8

// Player replays a recorded tape in emission order. A request larger than
// the remaining record count fails without consuming anything.
type Player struct {
	f         *os.File
	remaining uint64
}

// OpenPlayer opens the tape at path for playback from its first record.
func OpenPlayer(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tape %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat tape %s: %w", path, err)
	}
	if info.Size()%recordSize != 0 {
		f.Close()
		return nil, fmt.Errorf("tape %s is truncated: %d bytes is not a whole number of records", path, info.Size())
	}
	return &Player{f: f, remaining: uint64(info.Size()) / recordSize}, nil
}

// Remaining reports how many recorded draws are left to replay.
func (p *Player) Remaining() uint64 { return p.remaining }

// Draw returns the next recorded value.
func (p *Player) Draw() (float64, error) {
	var buf [1]float64
	if err := p.DrawMany(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// DrawMany fills dst with the next len(dst) recorded values. When fewer
// remain it fails up front and leaves the replay position untouched.
func (p *Player) DrawMany(dst []float64) error {
	if uint64(len(dst)) > p.remaining {
		return core.NewExhaustedSourceError(len(dst), p.remaining)
	}
	if len(dst) == 0 {
		return nil
	}
	if err := binary.Read(p.f, binary.LittleEndian, dst); err != nil {
		return fmt.Errorf("failed to read %d records from tape %s: %w", len(dst), p.f.Name(), err)
	}
	p.remaining -= uint64(len(dst))
	return nil
}

// Advance skips the next n recorded values.
func (p *Player) Advance(n int) error {
	if n <= 0 {
		return nil
	}
	if uint64(n) > p.remaining {
		return core.NewExhaustedSourceError(n, p.remaining)
	}
	if _, err := p.f.Seek(int64(n)*recordSize, io.SeekCurrent); err != nil {
		return fmt.Errorf("failed to skip %d records in tape %s: %w", n, p.f.Name(), err)
	}
	p.remaining -= uint64(n)
	return nil
}

// Close releases the underlying tape file.
func (p *Player) Close() error { return p.f.Close() }
