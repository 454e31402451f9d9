package mt19937

import (
	"math"
	"testing"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 2000; i++ {
		if a.Uint64() != b.Uint64() {
			t.Fatalf("Sequences diverged at word %d", i)
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := New(42)
	b := New(43)

	same := true
	for i := 0; i < 64; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
			break
		}
	}
	if same {
		t.Error("Different seeds produced identical prefixes")
	}
}

func TestReseedRewindsSequence(t *testing.T) {
	e := New(7)
	first := make([]float64, 100)
	if err := e.DrawMany(first); err != nil {
		t.Fatalf("DrawMany: %v", err)
	}

	e.Reseed(7)
	again := make([]float64, 100)
	if err := e.DrawMany(again); err != nil {
		t.Fatalf("DrawMany: %v", err)
	}

	for i := range first {
		if math.Float64bits(first[i]) != math.Float64bits(again[i]) {
			t.Fatalf("Value %d differs after reseed: %v vs %v", i, first[i], again[i])
		}
	}
}

func TestDrawRange(t *testing.T) {
	e := New(12345)
	for i := 0; i < 100000; i++ {
		v, err := e.Draw()
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if v < 0 || v >= 1 {
			t.Fatalf("Draw %d out of [0,1): %v", i, v)
		}
	}
}

func TestDrawManyMatchesDraw(t *testing.T) {
	a := New(99)
	b := New(99)

	many := make([]float64, 777)
	if err := a.DrawMany(many); err != nil {
		t.Fatalf("DrawMany: %v", err)
	}
	for i := range many {
		single, err := b.Draw()
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if math.Float64bits(many[i]) != math.Float64bits(single) {
			t.Fatalf("DrawMany and Draw diverge at %d", i)
		}
	}
}

func TestAdvanceSkipsDraws(t *testing.T) {
	a := New(5)
	b := New(5)

	if err := a.Advance(321); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	for i := 0; i < 321; i++ {
		if _, err := b.Draw(); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}

	av, _ := a.Draw()
	bv, _ := b.Draw()
	if math.Float64bits(av) != math.Float64bits(bv) {
		t.Errorf("Advance(n) does not equal n discarded draws: %v vs %v", av, bv)
	}
}

func TestFactoryStreamsAreIndependent(t *testing.T) {
	f := NewFactory()
	a := f.NewSource(1)

	// Drawing from one stream must not advance another with the same seed.
	if err := a.Advance(10); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	b := f.NewSource(1)
	vb, err := b.Draw()
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	fresh, _ := New(1).Draw()
	if math.Float64bits(vb) != math.Float64bits(fresh) {
		t.Errorf("Second stream did not start at the beginning: %v vs %v", vb, fresh)
	}
}
