package radio

import (
	"reflect"
	"testing"
)

// fakeWidget records every command issued to it, in order, and lets tests
// control the state it reports back.
type fakeWidget struct {
	ops   []string
	state PlayerState
	time  float64
}

func (w *fakeWidget) CueVideo(id string, start int64) {
	w.ops = append(w.ops, "cue:"+id)
}
func (w *fakeWidget) Play()               { w.ops = append(w.ops, "play") }
func (w *fakeWidget) Pause()              { w.ops = append(w.ops, "pause") }
func (w *fakeWidget) Stop()               { w.ops = append(w.ops, "stop") }
func (w *fakeWidget) SeekTo(sec int64)    { w.ops = append(w.ops, "seek") }
func (w *fakeWidget) Mute()               { w.ops = append(w.ops, "mute") }
func (w *fakeWidget) Unmute()             { w.ops = append(w.ops, "unmute") }
func (w *fakeWidget) SetVolume(pct int)   { w.ops = append(w.ops, "volume") }
func (w *fakeWidget) CurrentTime() float64 { return w.time }
func (w *fakeWidget) State() PlayerState  { return w.state }

func (w *fakeWidget) reset() { w.ops = nil }

func TestEmbeddedAdapter_AutoplayProtocol(t *testing.T) {
	w := &fakeWidget{state: StateReady}
	a := NewEmbeddedAdapter(w, nil)
	a.SetVolume(0.8)

	a.Load("dQw4w9WgXcQ", 42)
	a.SetPlaying(true)

	// Mute must precede the cue, and no unmute may happen before the widget
	// confirms playback.
	want := []string{"mute", "cue:dQw4w9WgXcQ", "play"}
	if !reflect.DeepEqual(w.ops, want) {
		t.Fatalf("pre-confirmation ops = %v, want %v", w.ops, want)
	}

	w.reset()
	w.state = StatePlaying
	a.HandleStateChange(StatePlaying)

	want = []string{"volume", "unmute"}
	if !reflect.DeepEqual(w.ops, want) {
		t.Fatalf("post-confirmation ops = %v, want %v", w.ops, want)
	}
	if !a.Tracking() {
		t.Error("expected position tracking after Playing event")
	}
}

func TestEmbeddedAdapter_LoadIsIdempotentPerVideo(t *testing.T) {
	w := &fakeWidget{state: StateReady}
	a := NewEmbeddedAdapter(w, nil)

	a.Load("abcdefghijk", 0)
	n := len(w.ops)
	a.Load("abcdefghijk", 10)
	if len(w.ops) != n {
		t.Fatalf("reloading the cued video issued commands: %v", w.ops[n:])
	}

	a.Load("AAAAAAAAAAA", 0)
	if len(w.ops) == n {
		t.Fatal("loading a different video issued nothing")
	}
}

func TestEmbeddedAdapter_SetPlayingOnlyOnDisagreement(t *testing.T) {
	w := &fakeWidget{state: StateReady}
	a := NewEmbeddedAdapter(w, nil)
	a.Load("abcdefghijk", 0)
	w.reset()

	w.state = StatePlaying
	a.SetPlaying(true) // already playing: no command
	if len(w.ops) != 0 {
		t.Fatalf("redundant play issued %v", w.ops)
	}

	a.SetPlaying(false)
	if !reflect.DeepEqual(w.ops, []string{"pause"}) {
		t.Fatalf("ops = %v, want [pause]", w.ops)
	}

	w.reset()
	w.state = StatePaused
	a.SetPlaying(false) // already paused: no command
	if len(w.ops) != 0 {
		t.Fatalf("redundant pause issued %v", w.ops)
	}
}

func TestEmbeddedAdapter_EndedNotifiesOwner(t *testing.T) {
	var endedCalls int
	w := &fakeWidget{state: StatePlaying}
	a := NewEmbeddedAdapter(w, func() { endedCalls++ })
	a.Load("abcdefghijk", 0)
	a.HandleStateChange(StatePlaying)

	a.HandleStateChange(StateEnded)
	if endedCalls != 1 {
		t.Fatalf("endedCalls = %d, want 1", endedCalls)
	}
	if a.Tracking() {
		t.Error("tracking should stop on Ended")
	}
}

func TestEmbeddedAdapter_PausedAndBufferingSuspendTracking(t *testing.T) {
	w := &fakeWidget{state: StateReady}
	a := NewEmbeddedAdapter(w, nil)
	a.Load("abcdefghijk", 0)
	a.HandleStateChange(StatePlaying)
	if !a.Tracking() {
		t.Fatal("expected tracking after Playing")
	}

	a.HandleStateChange(StateBuffering)
	if a.Tracking() {
		t.Error("tracking should suspend while buffering")
	}
	if a.Position() != -1 {
		t.Errorf("Position = %d while suspended, want -1", a.Position())
	}

	a.HandleStateChange(StatePlaying)
	w.time = 37.6
	if a.Position() != 37 {
		t.Errorf("Position = %d, want 37", a.Position())
	}

	a.HandleStateChange(StatePaused)
	if a.Tracking() {
		t.Error("tracking should suspend while paused")
	}
}

func TestEmbeddedAdapter_FatalErrorGoesSilent(t *testing.T) {
	w := &fakeWidget{state: StateReady}
	a := NewEmbeddedAdapter(w, nil)
	a.Load("abcdefghijk", 0)
	a.HandleError(101)

	if !a.Failed() {
		t.Fatal("expected failed state")
	}
	w.reset()
	a.Load("AAAAAAAAAAA", 0)
	a.SetPlaying(true)
	a.SeekTo(10)
	if len(w.ops) != 0 {
		t.Fatalf("commands issued after fatal error: %v", w.ops)
	}
}

func TestEmbeddedAdapter_MutePreferenceDeferredUntilConfirmed(t *testing.T) {
	w := &fakeWidget{state: StateReady}
	a := NewEmbeddedAdapter(w, nil)
	a.SetMuted(true)
	a.Load("abcdefghijk", 0)
	a.SetPlaying(true)
	w.reset()

	a.HandleStateChange(StatePlaying)
	// Listener asked for mute: volume applied, no unmute.
	if !reflect.DeepEqual(w.ops, []string{"volume"}) {
		t.Fatalf("ops = %v, want [volume]", w.ops)
	}

	w.reset()
	a.SetMuted(false)
	if !reflect.DeepEqual(w.ops, []string{"unmute"}) {
		t.Fatalf("ops = %v, want [unmute]", w.ops)
	}
}
