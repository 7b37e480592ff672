package radio

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPollInterval is the reconciliation period. Several seconds is the
// sweet spot: the design tolerates multi-second drift, and polling faster
// only burns reads against the shared config store.
const DefaultPollInterval = 5 * time.Second

// Backend identifies which playback engine is producing audio.
type Backend int

const (
	BackendNone Backend = iota
	BackendNative
	BackendEmbedded
)

func (b Backend) String() string {
	switch b {
	case BackendNative:
		return "native"
	case BackendEmbedded:
		return "embedded"
	default:
		return "none"
	}
}

// StationConfig is the shared broadcast anchor every session polls. It is
// the only cross-session state; sessions never observe each other directly.
type StationConfig struct {
	Live           bool
	LoopStartEpoch int64
}

// StationSource supplies the shared config and the track rotation. Fetch
// failures are expected (network, store outage) and must be returned, not
// panicked; the session absorbs them and retries on its next tick.
type StationSource interface {
	Config(ctx context.Context) (StationConfig, error)
	Rotation(ctx context.Context) ([]Track, error)
}

// NativePlayer is the control surface of the general-purpose audio player
// used for tracks without a video reference. Implementations live outside
// this package.
type NativePlayer interface {
	Play(t Track)
	Pause()
	SeekTo(seconds int64)
	IsPlaying() bool
}

// Session reconciles one listener against the station's virtual broadcast
// clock. It is single-threaded by construction: all state is touched only
// from ticks (or the public setters, which share the same mutex), and every
// backend command is fire-and-forget.
type Session struct {
	source   StationSource
	native   NativePlayer
	embedded *EmbeddedAdapter
	interval time.Duration
	now      func() time.Time

	mu            sync.Mutex
	listening     bool
	rotation      []Track
	rotationEpoch int64 // loop-start epoch the rotation was fetched for
	active        Backend
	loadedTrack   uuid.UUID

	poke   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// SessionOption tweaks a Session at construction time.
type SessionOption func(*Session)

// WithPollInterval overrides the reconciliation period.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock overrides the wall-clock source. Tests use this.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession builds a session over a station source, a native player and an
// embedded widget. The widget is wrapped once here and kept for the whole
// session; its Ended event forces an immediate re-poll so the listener does
// not sit silent until the next tick.
func NewSession(source StationSource, native NativePlayer, widget EmbeddedPlayer, opts ...SessionOption) *Session {
	s := &Session{
		source:   source,
		native:   native,
		interval: DefaultPollInterval,
		now:      time.Now,
		poke:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
	s.embedded = NewEmbeddedAdapter(widget, s.requestTick)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embedded exposes the adapter so callers can wire the widget's event
// callbacks and forward listener volume/mute controls.
func (s *Session) Embedded() *EmbeddedAdapter { return s.embedded }

// SetListening flips the listener's local tune-in switch. Tuning out
// silences both backends immediately rather than waiting for the next tick.
func (s *Session) SetListening(on bool) {
	s.mu.Lock()
	s.listening = on
	if !on {
		s.goSilentLocked()
	}
	s.mu.Unlock()
	if on {
		s.requestTick()
	}
}

// Listening reports the local tune-in switch.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// ActiveBackend reports which backend is currently driving sound.
func (s *Session) ActiveBackend() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CurrentTrackID reports the track last handed to the active backend.
func (s *Session) CurrentTrackID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedTrack, s.loadedTrack != uuid.Nil
}

// Run drives the reconciliation loop until ctx is cancelled or Close is
// called. One tick runs immediately so a freshly opened session snaps to the
// broadcast without waiting a full interval.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.silence()
			return
		case <-s.closed:
			return
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.poke:
			s.Tick(ctx)
		}
	}
}

// Close tears the session down: the poll loop stops and whichever backend
// was driving audio is positively paused so no orphaned audio outlives the
// session.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.closed)
		s.silence()
	})
}

// requestTick schedules an immediate reconciliation (used by the embedded
// adapter's Ended event and by SetListening).
func (s *Session) requestTick() {
	select {
	case s.poke <- struct{}{}:
	default:
	}
}

func (s *Session) silence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goSilentLocked()
}

// goSilentLocked stops both backends and clears the loaded-track marker so
// the next reconciliation reloads and re-seeks from scratch (snap-to-position
// on resume).
func (s *Session) goSilentLocked() {
	if s.native != nil && (s.active == BackendNative || s.native.IsPlaying()) {
		s.native.Pause()
	}
	s.embedded.Stop()
	s.active = BackendNone
	s.loadedTrack = uuid.Nil
}

// Tick runs one reconciliation pass. It never returns an error: the radio is
// a layered-on enhancement, so every failure degrades to silence (or to
// leaving current playback untouched on a transient fetch error) instead of
// propagating upward.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.listening {
		s.goSilentLocked()
		return
	}

	cfg, err := s.source.Config(ctx)
	if err != nil {
		// Radio unavailable; leave playback as-is and let the next tick act
		// as the retry.
		log.Printf("WARN: radio config fetch failed: %v", err)
		return
	}

	if !cfg.Live {
		s.goSilentLocked()
		return
	}

	// The rotation is pinned to a loop-start epoch. Edits to the catalog are
	// picked up only when the admin resets the epoch, so every listener
	// keeps hearing the same programming.
	if s.rotation == nil || s.rotationEpoch != cfg.LoopStartEpoch {
		rotation, err := s.source.Rotation(ctx)
		if err != nil {
			log.Printf("WARN: radio rotation fetch failed: %v", err)
			return
		}
		s.rotation = rotation
		s.rotationEpoch = cfg.LoopStartEpoch
	}

	state := ComputeState(s.rotation, cfg.LoopStartEpoch, s.now().Unix())
	if state == nil {
		// Degenerate playlist: go silent, recover automatically once the
		// catalog is corrected and the epoch reset.
		s.goSilentLocked()
		return
	}

	if state.Track.VideoID != "" {
		s.reconcileEmbeddedLocked(state)
	} else {
		s.reconcileNativeLocked(state)
	}
}

// reconcileEmbeddedLocked routes playback to the embedded widget, pausing
// the native player first so only one backend ever produces audio.
func (s *Session) reconcileEmbeddedLocked(state *BroadcastState) {
	sameTrack := s.active == BackendEmbedded && s.loadedTrack == state.Track.ID
	if sameTrack {
		// Idempotent tick: nothing changed, issue nothing.
		return
	}

	if s.active == BackendNative {
		s.native.Pause()
	}

	alreadyCued := s.embedded.LoadedID() == state.Track.VideoID
	s.embedded.Load(state.Track.VideoID, state.Position)
	s.embedded.SetPlaying(true)
	if alreadyCued {
		// Load was a no-op; snap to the computed position explicitly.
		s.embedded.SeekTo(state.Position)
	}

	s.active = BackendEmbedded
	s.loadedTrack = state.Track.ID
}

// reconcileNativeLocked routes playback to the native audio player. Seeking
// happens after Play: seeking a not-yet-started source is unreliable on some
// players, so the order is load/play first, then snap.
func (s *Session) reconcileNativeLocked(state *BroadcastState) {
	sameTrack := s.active == BackendNative && s.loadedTrack == state.Track.ID
	if sameTrack {
		return
	}

	if s.active == BackendEmbedded {
		s.embedded.Stop()
	}

	s.native.Play(state.Track)
	s.native.SeekTo(state.Position)

	s.active = BackendNative
	s.loadedTrack = state.Track.ID
}
