package tape

import (
	"errors"
	"math"
	"os"
	"testing"

	"namedprng/domain/core"
	"namedprng/internal/testkit"
)

func testKey() core.GroupKey {
	return core.GroupKey{Realization: 3, Type: "He4", Purpose: "walk"}
}

func TestDefaultNaming(t *testing.T) {
	got := DefaultNaming(testKey())
	if got != "r3_He4_walk.tape" {
		t.Errorf("expected r3_He4_walk.tape, got %s", got)
	}
}

func TestRecordThenReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	values := []float64{0.25, 0.5, math.Pi, 1e-300, 0}

	deck, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	rec, err := deck.Recorder(testKey(), testkit.NewScriptedSource(values...))
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	got := make([]float64, len(values))
	if err := rec.DrawMany(got); err != nil {
		t.Fatalf("failed to draw through recorder: %v", err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("draw %d: recorder returned %v, source had %v", i, got[i], values[i])
		}
	}
	if err := deck.Close(); err != nil {
		t.Fatalf("failed to close deck: %v", err)
	}

	replay, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to reopen deck: %v", err)
	}
	defer replay.Close()

	player, err := replay.Player(testKey())
	if err != nil {
		t.Fatalf("failed to open player: %v", err)
	}
	back := make([]float64, len(values))
	if err := player.DrawMany(back); err != nil {
		t.Fatalf("failed to replay: %v", err)
	}
	for i := range values {
		if math.Float64bits(back[i]) != math.Float64bits(values[i]) {
			t.Errorf("record %d: replayed %v, recorded %v", i, back[i], values[i])
		}
	}
}

func TestPlayerFailsWholeRequestWhenShort(t *testing.T) {
	dir := t.TempDir()
	deck, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	defer deck.Close()

	rec, err := deck.Recorder(testKey(), testkit.NewScriptedSource(0.1, 0.2, 0.3))
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	if err := rec.DrawMany(make([]float64, 3)); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	player, err := OpenPlayer(deck.Path(testKey()))
	if err != nil {
		t.Fatalf("failed to open player: %v", err)
	}
	defer player.Close()

	err = player.DrawMany(make([]float64, 5))
	if !errors.Is(err, core.ErrExhaustedSource) {
		t.Fatalf("expected exhausted source error, got %v", err)
	}
	if player.Remaining() != 3 {
		t.Errorf("failed request must not consume, remaining = %d", player.Remaining())
	}

	got := make([]float64, 3)
	if err := player.DrawMany(got); err != nil {
		t.Fatalf("exact-size request should succeed: %v", err)
	}
	if got[0] != 0.1 || got[2] != 0.3 {
		t.Errorf("replay out of order: %v", got)
	}
	if _, err := player.Draw(); !errors.Is(err, core.ErrExhaustedSource) {
		t.Errorf("expected exhausted source after full replay, got %v", err)
	}
}

func TestDeckPlayerPositionSurvivesRerequest(t *testing.T) {
	dir := t.TempDir()
	deck, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	rec, err := deck.Recorder(testKey(), testkit.NewScriptedSource(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	if err := rec.DrawMany(make([]float64, 4)); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if err := deck.Close(); err != nil {
		t.Fatalf("failed to close deck: %v", err)
	}

	replay, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to reopen deck: %v", err)
	}
	defer replay.Close()

	first, err := replay.Player(testKey())
	if err != nil {
		t.Fatalf("failed to open player: %v", err)
	}
	if err := first.DrawMany(make([]float64, 2)); err != nil {
		t.Fatalf("failed first replay: %v", err)
	}

	second, err := replay.Player(testKey())
	if err != nil {
		t.Fatalf("failed to re-request player: %v", err)
	}
	v, err := second.Draw()
	if err != nil {
		t.Fatalf("failed continued replay: %v", err)
	}
	if v != 3 {
		t.Errorf("re-requested player must continue, got %v, expected 3", v)
	}
}

func TestDeckRecorderKeepsAppending(t *testing.T) {
	dir := t.TempDir()
	deck, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	rec, err := deck.Recorder(testKey(), testkit.NewScriptedSource(1, 2))
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	if err := rec.DrawMany(make([]float64, 2)); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	again, err := deck.Recorder(testKey(), testkit.NewScriptedSource(3, 4))
	if err != nil {
		t.Fatalf("failed to re-request recorder: %v", err)
	}
	if err := again.DrawMany(make([]float64, 2)); err != nil {
		t.Fatalf("failed to record more: %v", err)
	}
	if err := deck.Close(); err != nil {
		t.Fatalf("failed to close deck: %v", err)
	}

	player, err := OpenPlayer(deck.Path(testKey()))
	if err != nil {
		t.Fatalf("failed to open player: %v", err)
	}
	defer player.Close()

	if player.Remaining() != 4 {
		t.Fatalf("expected 4 records on tape, found %d", player.Remaining())
	}
	got := make([]float64, 4)
	if err := player.DrawMany(got); err != nil {
		t.Fatalf("failed to replay: %v", err)
	}
	for i, want := range []float64{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("record %d: got %v, expected %v", i, got[i], want)
		}
	}
}

func TestRecorderAdvanceStillRecords(t *testing.T) {
	dir := t.TempDir()
	deck, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	rec, err := deck.Recorder(testKey(), testkit.NewScriptedSource(0.7, 0.8, 0.9))
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	if err := rec.Advance(2); err != nil {
		t.Fatalf("failed to advance: %v", err)
	}
	v, err := rec.Draw()
	if err != nil {
		t.Fatalf("failed to draw after advance: %v", err)
	}
	if v != 0.9 {
		t.Errorf("advance must consume the source, got %v", v)
	}
	if err := deck.Close(); err != nil {
		t.Fatalf("failed to close deck: %v", err)
	}

	player, err := OpenPlayer(deck.Path(testKey()))
	if err != nil {
		t.Fatalf("failed to open player: %v", err)
	}
	defer player.Close()

	if player.Remaining() != 3 {
		t.Errorf("skipped draws must still be on tape, found %d records", player.Remaining())
	}
}

func TestPlayerAdvanceSkipsRecords(t *testing.T) {
	dir := t.TempDir()
	deck, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	rec, err := deck.Recorder(testKey(), testkit.NewScriptedSource(10, 20, 30))
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	if err := rec.DrawMany(make([]float64, 3)); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if err := deck.Close(); err != nil {
		t.Fatalf("failed to close deck: %v", err)
	}

	player, err := OpenPlayer(deck.Path(testKey()))
	if err != nil {
		t.Fatalf("failed to open player: %v", err)
	}
	defer player.Close()

	if err := player.Advance(2); err != nil {
		t.Fatalf("failed to skip: %v", err)
	}
	v, err := player.Draw()
	if err != nil {
		t.Fatalf("failed to draw after skip: %v", err)
	}
	if v != 30 {
		t.Errorf("expected 30 after skipping two records, got %v", v)
	}
	if err := player.Advance(1); !errors.Is(err, core.ErrExhaustedSource) {
		t.Errorf("expected exhausted source skipping past the end, got %v", err)
	}
}

func TestOpenPlayerRejectsTruncatedTape(t *testing.T) {
	dir := t.TempDir()
	deck, err := NewDeck(dir, nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	defer deck.Close()

	path := deck.Path(testKey())
	if err := os.WriteFile(path, make([]byte, 12), 0o644); err != nil {
		t.Fatalf("failed to write truncated tape: %v", err)
	}
	if _, err := OpenPlayer(path); err == nil {
		t.Error("expected error opening a tape with a partial record")
	}
}

func TestDeckPlayerMissingTape(t *testing.T) {
	deck, err := NewDeck(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	defer deck.Close()

	if _, err := deck.Player(testKey()); err == nil {
		t.Error("expected error replaying a stream that was never recorded")
	}
}
