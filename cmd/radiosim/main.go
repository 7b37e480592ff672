// Command radiosim runs a headless listening session against the live
// station, printing every playback command. Useful for verifying that the
// broadcast clock and the reconciliation loop behave before touching the
// storefront frontend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/internal/radio"
	"github.com/essenza/backend/internal/services"
	"github.com/joho/godotenv"
)

// logNative prints native player commands and simulates position advance.
type logNative struct {
	mu       sync.Mutex
	playing  bool
	track    radio.Track
	startPos int64
	startAt  time.Time
}

func (p *logNative) Play(t radio.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.track = t
	p.startPos = 0
	p.startAt = time.Now()
	log.Printf("native: play %q (%s)", t.Title, t.ID)
}

func (p *logNative) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		log.Printf("native: pause")
	}
	p.playing = false
}

func (p *logNative) SeekTo(seconds int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startPos = seconds
	p.startAt = time.Now()
	log.Printf("native: seek %ds", seconds)
}

func (p *logNative) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// logWidget simulates the embedded video widget: cue/play commands are
// acknowledged through the adapter's state callback, the way the real
// widget confirms them asynchronously.
type logWidget struct {
	mu      sync.Mutex
	adapter *radio.EmbeddedAdapter

	videoID string
	pos     int64
	cuedAt  time.Time
	playing bool
}

func (w *logWidget) notify(state radio.PlayerState) {
	// Deliver outside the lock; the adapter takes its own
	adapter := w.adapter
	if adapter != nil {
		go adapter.HandleStateChange(state)
	}
}

func (w *logWidget) CueVideo(videoID string, startSeconds int64) {
	w.mu.Lock()
	w.videoID = videoID
	w.pos = startSeconds
	w.cuedAt = time.Now()
	w.playing = false
	w.mu.Unlock()
	log.Printf("widget: cue %s at %ds", videoID, startSeconds)
	w.notify(radio.StateReady)
}

func (w *logWidget) Play() {
	w.mu.Lock()
	w.playing = true
	w.cuedAt = time.Now()
	w.mu.Unlock()
	log.Printf("widget: play")
	w.notify(radio.StatePlaying)
}

func (w *logWidget) Pause() {
	w.mu.Lock()
	w.playing = false
	w.mu.Unlock()
	log.Printf("widget: pause")
	w.notify(radio.StatePaused)
}

func (w *logWidget) Stop() {
	w.mu.Lock()
	w.playing = false
	w.videoID = ""
	w.mu.Unlock()
	log.Printf("widget: stop")
}

func (w *logWidget) SeekTo(seconds int64) {
	w.mu.Lock()
	w.pos = seconds
	w.cuedAt = time.Now()
	w.mu.Unlock()
	log.Printf("widget: seek %ds", seconds)
}

func (w *logWidget) Mute()   { log.Printf("widget: mute") }
func (w *logWidget) Unmute() { log.Printf("widget: unmute") }

func (w *logWidget) SetVolume(percent int) {
	log.Printf("widget: volume %d%%", percent)
}

func (w *logWidget) CurrentTime() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.playing {
		return float64(w.pos)
	}
	return float64(w.pos) + time.Since(w.cuedAt).Seconds()
}

func (w *logWidget) State() radio.PlayerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.playing {
		return radio.StatePlaying
	}
	if w.videoID != "" {
		return radio.StatePaused
	}
	return radio.StateUnstarted
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.New()

	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	radioService := services.NewRadioService(db, redisClient, cfg)

	native := &logNative{}
	widget := &logWidget{}
	session := radio.NewSession(radioService.Source(), native, widget,
		radio.WithPollInterval(cfg.RadioPollInterval))
	widget.adapter = session.Embedded()

	session.Embedded().SetVolume(cfg.RadioDefaultVolume)
	session.SetListening(true)

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)

	// Periodic status line
	go func() {
		for {
			time.Sleep(10 * time.Second)
			backend := session.ActiveBackend()
			if trackID, ok := session.CurrentTrackID(); ok {
				log.Printf("status: listening=%v backend=%s track=%s pos=%d", session.Listening(), backend, trackID, session.Embedded().Position())
			} else {
				log.Printf("status: listening=%v backend=%s (silent)", session.Listening(), backend)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	session.Close()
	log.Println("Session closed")
}
