package radio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeSource struct {
	cfg           StationConfig
	cfgErr        error
	rotation      []Track
	rotationErr   error
	rotationCalls int
}

func (f *fakeSource) Config(ctx context.Context) (StationConfig, error) {
	return f.cfg, f.cfgErr
}

func (f *fakeSource) Rotation(ctx context.Context) ([]Track, error) {
	f.rotationCalls++
	return f.rotation, f.rotationErr
}

type fakeNative struct {
	ops     []string
	playing bool
	current Track
	lastPos int64
}

func (n *fakeNative) Play(t Track) {
	n.ops = append(n.ops, "play:"+t.Title)
	n.current = t
	n.playing = true
}
func (n *fakeNative) Pause()           { n.ops = append(n.ops, "pause"); n.playing = false }
func (n *fakeNative) SeekTo(sec int64) { n.ops = append(n.ops, "seek"); n.lastPos = sec }
func (n *fakeNative) IsPlaying() bool  { return n.playing }

// testClock is a settable wall clock.
type testClock struct{ at time.Time }

func (c *testClock) now() time.Time { return c.at }

func newTestSession(src *fakeSource) (*Session, *fakeNative, *fakeWidget, *testClock) {
	native := &fakeNative{}
	widget := &fakeWidget{state: StateReady}
	clock := &testClock{at: time.Unix(1000, 0)}
	s := NewSession(src, native, widget, WithClock(clock.now), WithPollInterval(time.Second))
	return s, native, widget, clock
}

func mixedRotation() []Track {
	return []Track{
		{ID: uuid.New(), Title: "Ambre", DurationSeconds: 100},
		{ID: uuid.New(), Title: "Neroli", DurationSeconds: 50, VideoID: "dQw4w9WgXcQ"},
		{ID: uuid.New(), Title: "Vetiver", DurationSeconds: 150},
	}
}

func TestSession_IdleWhileNotListening(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, _, _ := newTestSession(src)

	s.Tick(context.Background())
	if s.ActiveBackend() != BackendNone {
		t.Fatalf("backend = %v before tuning in", s.ActiveBackend())
	}
	if len(native.ops) != 0 && native.ops[len(native.ops)-1] != "pause" {
		t.Fatalf("unexpected native ops: %v", native.ops)
	}
}

func TestSession_SilentWhileOffline(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: false, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, _, _, _ := newTestSession(src)
	s.SetListening(true)

	s.Tick(context.Background())
	if s.ActiveBackend() != BackendNone {
		t.Fatalf("backend = %v while station offline", s.ActiveBackend())
	}
}

func TestSession_SnapsToComputedPosition(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, _, clock := newTestSession(src)
	s.SetListening(true)

	// 42 seconds into the loop: track 0, native, offset 42.
	clock.at = time.Unix(1042, 0)
	s.Tick(context.Background())

	if s.ActiveBackend() != BackendNative {
		t.Fatalf("backend = %v, want native", s.ActiveBackend())
	}
	if native.current.Title != "Ambre" || native.lastPos != 42 {
		t.Fatalf("playing %q at %d, want Ambre at 42", native.current.Title, native.lastPos)
	}
	if len(native.ops) < 2 || native.ops[len(native.ops)-2] != "play:Ambre" || native.ops[len(native.ops)-1] != "seek" {
		t.Fatalf("expected play-then-seek ordering, got %v", native.ops)
	}
}

func TestSession_RoutesVideoTracksToEmbedded(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, widget, clock := newTestSession(src)
	s.SetListening(true)

	// Start inside the native opener, then cross into the video track.
	clock.at = time.Unix(1090, 0)
	s.Tick(context.Background())
	widget.state = StatePlaying // widget reports playback after the cue

	clock.at = time.Unix(1130, 0) // 130s into loop: track 1, offset 30
	s.Tick(context.Background())

	if s.ActiveBackend() != BackendEmbedded {
		t.Fatalf("backend = %v, want embedded", s.ActiveBackend())
	}
	if native.playing {
		t.Fatal("native player still audible while embedded backend active")
	}
	if s.Embedded().LoadedID() != "dQw4w9WgXcQ" {
		t.Fatalf("embedded loaded %q", s.Embedded().LoadedID())
	}
}

func TestSession_SwitchingBackPausesEmbedded(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, widget, clock := newTestSession(src)
	s.SetListening(true)

	clock.at = time.Unix(1120, 0) // track 1 (embedded)
	s.Tick(context.Background())
	widget.state = StatePlaying

	clock.at = time.Unix(1200, 0) // 200s into loop: track 2, native, offset 50
	s.Tick(context.Background())

	if s.ActiveBackend() != BackendNative {
		t.Fatalf("backend = %v, want native", s.ActiveBackend())
	}
	found := false
	for _, op := range widget.ops {
		if op == "pause" {
			found = true
		}
	}
	if !found {
		t.Fatalf("embedded widget never paused on backend switch: %v", widget.ops)
	}
	if native.current.Title != "Vetiver" || native.lastPos != 50 {
		t.Fatalf("playing %q at %d, want Vetiver at 50", native.current.Title, native.lastPos)
	}
}

func TestSession_TickIsIdempotent(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, widget, clock := newTestSession(src)
	s.SetListening(true)

	clock.at = time.Unix(1042, 0)
	s.Tick(context.Background())
	nativeOps, widgetOps := len(native.ops), len(widget.ops)

	// Same instant, same state: the second tick must issue nothing.
	s.Tick(context.Background())
	if len(native.ops) != nativeOps || len(widget.ops) != widgetOps {
		t.Fatalf("second tick issued commands: native %v, widget %v",
			native.ops[nativeOps:], widget.ops[widgetOps:])
	}
}

func TestSession_DegeneratePlaylistGoesSilent(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: []Track{{ID: uuid.New(), DurationSeconds: 0}},
	}
	s, _, _, _ := newTestSession(src)
	s.SetListening(true)

	s.Tick(context.Background())
	if s.ActiveBackend() != BackendNone {
		t.Fatalf("backend = %v for degenerate playlist, want none", s.ActiveBackend())
	}
}

func TestSession_ConfigFetchFailureLeavesPlaybackAlone(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, _, clock := newTestSession(src)
	s.SetListening(true)

	clock.at = time.Unix(1042, 0)
	s.Tick(context.Background())
	if !native.playing {
		t.Fatal("expected native playback")
	}

	src.cfgErr = errors.New("store unreachable")
	s.Tick(context.Background())
	if !native.playing {
		t.Fatal("transient fetch failure killed playback")
	}

	// Next successful tick keeps reconciling as usual.
	src.cfgErr = nil
	s.Tick(context.Background())
	if s.ActiveBackend() != BackendNative {
		t.Fatalf("backend = %v after recovery", s.ActiveBackend())
	}
}

func TestSession_RotationRefetchedOnlyOnEpochReset(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, _, _, clock := newTestSession(src)
	s.SetListening(true)

	s.Tick(context.Background())
	clock.at = time.Unix(1060, 0)
	s.Tick(context.Background())
	if src.rotationCalls != 1 {
		t.Fatalf("rotation fetched %d times within one epoch, want 1", src.rotationCalls)
	}

	// Admin goes live again: new epoch, everyone re-fetches and snaps to
	// track 0, offset 0.
	clock.at = time.Unix(2000, 0)
	src.cfg = StationConfig{Live: true, LoopStartEpoch: 2000}
	s.Tick(context.Background())
	if src.rotationCalls != 2 {
		t.Fatalf("rotation fetched %d times after epoch reset, want 2", src.rotationCalls)
	}
	id, ok := s.CurrentTrackID()
	if !ok || id != src.rotation[0].ID {
		t.Fatal("expected the rotation to restart at track 0 after reset")
	}
}

func TestSession_CloseStopsAudio(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, _, clock := newTestSession(src)
	s.SetListening(true)

	clock.at = time.Unix(1042, 0)
	s.Tick(context.Background())
	if !native.playing {
		t.Fatal("expected native playback")
	}

	s.Close()
	if native.playing {
		t.Fatal("native player left audible after Close")
	}
	if s.ActiveBackend() != BackendNone {
		t.Fatalf("backend = %v after Close", s.ActiveBackend())
	}
}

func TestSession_TuneOutSilencesImmediately(t *testing.T) {
	src := &fakeSource{
		cfg:      StationConfig{Live: true, LoopStartEpoch: 1000},
		rotation: mixedRotation(),
	}
	s, native, _, clock := newTestSession(src)
	s.SetListening(true)

	clock.at = time.Unix(1042, 0)
	s.Tick(context.Background())

	s.SetListening(false)
	if native.playing {
		t.Fatal("tune-out did not pause the native player")
	}
}
