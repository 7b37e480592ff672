package radio

import (
	"log"
	"sync"
)

// PlayerState mirrors the state codes reported by the embedded video widget.
type PlayerState int

const (
	StateUnstarted PlayerState = iota
	StateReady
	StatePlaying
	StatePaused
	StateBuffering
	StateEnded
)

func (s PlayerState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EmbeddedPlayer is the command surface of the third-party video widget.
// All commands are asynchronous fire-and-forget; their effect is confirmed
// only through the state-change callback wired via NewEmbeddedAdapter.
type EmbeddedPlayer interface {
	CueVideo(videoID string, startSeconds int64)
	Play()
	Pause()
	Stop()
	SeekTo(seconds int64)
	Mute()
	Unmute()
	SetVolume(percent int) // 0..100
	CurrentTime() float64
	State() PlayerState
}

// adapterPhase tracks the autoplay workaround protocol for the most recent
// load: mute, cue, wait for the widget to confirm Playing, then unmute.
type adapterPhase int

const (
	phaseIdle adapterPhase = iota
	phaseLoading
	phaseAwaitingPlayback
	phaseUnmuted
)

// EmbeddedAdapter wraps a single long-lived widget instance and normalizes
// it into an idempotent command surface. The widget is created once per
// session and never recreated; recreating it mid-session causes audible
// glitches in the underlying implementation.
//
// Browsers refuse un-gestured audible autoplay, so every load starts muted
// and the requested volume is applied only after the widget reports it is
// actually playing. Unmuting earlier can be silently re-blocked.
type EmbeddedAdapter struct {
	mu sync.Mutex

	player  EmbeddedPlayer
	onEnded func()

	loadedID    string
	wantPlaying bool
	phase       adapterPhase

	volume float64 // requested volume, 0..1
	muted  bool    // listener-requested mute, independent of the autoplay mute

	tracking bool // position tracking active (widget confirmed Playing)
	failed   bool // widget reported a fatal error; stay silent
}

// NewEmbeddedAdapter wraps player. onEnded fires when the widget reports the
// Ended state so the owning session can re-poll immediately instead of
// idling until its next tick; it may be nil.
func NewEmbeddedAdapter(player EmbeddedPlayer, onEnded func()) *EmbeddedAdapter {
	return &EmbeddedAdapter{
		player:  player,
		onEnded: onEnded,
		volume:  1.0,
	}
}

// Load cues videoID at startAt seconds. Loading the already-loaded video is
// a no-op; the reconciliation tick relies on this to avoid reload thrashing.
func (a *EmbeddedAdapter) Load(videoID string, startAt int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failed || videoID == "" || videoID == a.loadedID {
		return
	}

	// Mute before cueing: the unmute happens only once the widget confirms
	// playback (see HandleStateChange).
	a.player.Mute()
	a.player.CueVideo(videoID, startAt)
	a.loadedID = videoID
	a.phase = phaseLoading
	a.tracking = false

	if a.wantPlaying {
		a.player.Play()
		a.phase = phaseAwaitingPlayback
	}
}

// SetPlaying requests play or pause. Commands are only issued when the
// widget's reported state disagrees with the request.
func (a *EmbeddedAdapter) SetPlaying(playing bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.wantPlaying = playing
	if a.failed || a.loadedID == "" {
		return
	}

	state := a.player.State()
	if playing {
		if state != StatePlaying && state != StateBuffering {
			a.player.Play()
			if a.phase == phaseLoading {
				a.phase = phaseAwaitingPlayback
			}
		}
	} else {
		if state == StatePlaying || state == StateBuffering {
			a.player.Pause()
		}
	}
}

// SeekTo forwards directly to the widget.
func (a *EmbeddedAdapter) SeekTo(seconds int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failed || a.loadedID == "" {
		return
	}
	a.player.SeekTo(seconds)
}

// SetVolume stores the requested volume (0..1). It is applied immediately if
// playback is already confirmed, otherwise when the Playing event arrives.
func (a *EmbeddedAdapter) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volume = v
	if a.phase == phaseUnmuted && !a.failed {
		a.player.SetVolume(int(v * 100))
	}
}

// SetMuted records the listener's mute preference. Like volume, it only
// reaches the widget once playback has been confirmed.
func (a *EmbeddedAdapter) SetMuted(muted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = muted
	if a.phase != phaseUnmuted || a.failed {
		return
	}
	if muted {
		a.player.Mute()
	} else {
		a.player.Unmute()
	}
}

// Stop pauses the widget and forgets the loaded video so the next Load cues
// fresh. Used when the session goes idle or switches backends.
func (a *EmbeddedAdapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.wantPlaying = false
	if a.loadedID == "" || a.failed {
		return
	}
	state := a.player.State()
	if state == StatePlaying || state == StateBuffering {
		a.player.Pause()
	}
	a.tracking = false
}

// HandleStateChange is the widget's state-transition callback.
func (a *EmbeddedAdapter) HandleStateChange(state PlayerState) {
	a.mu.Lock()

	switch state {
	case StatePlaying:
		a.tracking = true
		if a.phase == phaseAwaitingPlayback || a.phase == phaseLoading {
			// Playback confirmed: now the unmute sticks.
			a.player.SetVolume(int(a.volume * 100))
			if !a.muted {
				a.player.Unmute()
			}
			a.phase = phaseUnmuted
		}
		a.mu.Unlock()

	case StatePaused, StateBuffering:
		// Stop position tracking so stale progress is never reported.
		a.tracking = false
		a.mu.Unlock()

	case StateEnded:
		a.tracking = false
		onEnded := a.onEnded
		a.mu.Unlock()
		if onEnded != nil {
			onEnded()
		}

	default:
		a.mu.Unlock()
	}
}

// HandleError is the widget's error callback. The widget is constructed once
// per session, so the adapter does not retry; it goes silent and stays there.
func (a *EmbeddedAdapter) HandleError(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed = true
	a.tracking = false
	log.Printf("WARN: embedded player error %d; disabling embedded playback for this session", code)
}

// LoadedID returns the video currently cued in the widget.
func (a *EmbeddedAdapter) LoadedID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadedID
}

// Tracking reports whether the adapter currently trusts the widget's
// position (true only while the widget is confirmed Playing).
func (a *EmbeddedAdapter) Tracking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tracking
}

// Failed reports whether the widget hit a fatal error this session.
func (a *EmbeddedAdapter) Failed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failed
}

// Position returns the widget's current playback position in whole seconds,
// or -1 when position tracking is suspended.
func (a *EmbeddedAdapter) Position() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.tracking || a.failed {
		return -1
	}
	return int64(a.player.CurrentTime())
}
