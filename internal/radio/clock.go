package radio

import (
	"github.com/google/uuid"
)

// Track is the immutable rotation entry the clock math operates on.
// It is a snapshot of a catalog track; sessions map models.Track into this
// once and keep it for the lifetime of the loop-start epoch.
type Track struct {
	ID              uuid.UUID
	Title           string
	Artist          string
	DurationSeconds int64
	// VideoID is set when the track is rendered through the embedded
	// player instead of the native audio player.
	VideoID string
}

// BroadcastState describes what the station is playing at a given instant.
type BroadcastState struct {
	Track    Track
	Index    int
	Position int64 // seconds into the track
}

// ComputeState maps a wall-clock instant onto the rotation. The rotation is
// an infinite repeating loop anchored at loopStart; every instant resolves to
// exactly one (track, offset) pair. Track boundaries are half-open: at the
// exact boundary second the next track is already current at offset 0.
//
// Returns nil for a degenerate rotation (empty, or zero total duration) so
// callers can treat "no result" as silence instead of an error.
func ComputeState(rotation []Track, loopStart, now int64) *BroadcastState {
	if len(rotation) == 0 {
		return nil
	}

	var total int64
	for _, t := range rotation {
		if t.DurationSeconds > 0 {
			total += t.DurationSeconds
		}
	}
	if total <= 0 {
		return nil
	}

	elapsed := now - loopStart
	if elapsed < 0 {
		elapsed = 0
	}
	pos := elapsed % total

	var acc int64
	for i, t := range rotation {
		if t.DurationSeconds <= 0 {
			// zero-weight slot, never current
			continue
		}
		if pos < acc+t.DurationSeconds {
			return &BroadcastState{
				Track:    t,
				Index:    i,
				Position: pos - acc,
			}
		}
		acc += t.DurationSeconds
	}

	// Unreachable when total > 0; kept so a future arithmetic slip degrades
	// to silence rather than an out-of-range read.
	return nil
}

// TotalLoopDuration returns the length in seconds of one full pass through
// the rotation, counting only playable tracks.
func TotalLoopDuration(rotation []Track) int64 {
	var total int64
	for _, t := range rotation {
		if t.DurationSeconds > 0 {
			total += t.DurationSeconds
		}
	}
	return total
}
