package radio

import (
	"testing"

	"github.com/google/uuid"
)

func threeTrackRotation() []Track {
	return []Track{
		{ID: uuid.New(), Title: "Opening", DurationSeconds: 100},
		{ID: uuid.New(), Title: "Interlude", DurationSeconds: 50, VideoID: "dQw4w9WgXcQ"},
		{ID: uuid.New(), Title: "Closer", DurationSeconds: 150},
	}
}

func TestComputeState_ScheduleWalkthrough(t *testing.T) {
	rotation := threeTrackRotation()
	const loopStart = 1000

	cases := []struct {
		now      int64
		index    int
		position int64
	}{
		{1000, 0, 0},
		{1099, 0, 99},
		{1100, 1, 0}, // boundary is half-open: 1100 belongs to track 1
		{1149, 1, 49},
		{1150, 2, 0},
		{1299, 2, 149},
		{1300, 0, 0}, // full wrap back to the top
		{1450, 2, 0}, // same as 1150, one loop later
	}

	for _, tc := range cases {
		got := ComputeState(rotation, loopStart, tc.now)
		if got == nil {
			t.Fatalf("now=%d: expected a result, got nil", tc.now)
		}
		if got.Index != tc.index || got.Position != tc.position {
			t.Errorf("now=%d: got (track %d, pos %d), want (track %d, pos %d)",
				tc.now, got.Index, got.Position, tc.index, tc.position)
		}
		if got.Track.ID != rotation[tc.index].ID {
			t.Errorf("now=%d: track mismatch at index %d", tc.now, tc.index)
		}
	}
}

func TestComputeState_Deterministic(t *testing.T) {
	rotation := threeTrackRotation()
	for i := 0; i < 5; i++ {
		a := ComputeState(rotation, 1000, 1234)
		b := ComputeState(rotation, 1000, 1234)
		if a == nil || b == nil {
			t.Fatal("expected results")
		}
		if *a != *b {
			t.Fatalf("repeated calls disagree: %+v vs %+v", a, b)
		}
	}
}

func TestComputeState_CoversEveryInstant(t *testing.T) {
	rotation := threeTrackRotation()
	const loopStart = 500
	// Two full loops, second by second: every instant must map to a track.
	for now := int64(loopStart); now < loopStart+600; now++ {
		if got := ComputeState(rotation, loopStart, now); got == nil {
			t.Fatalf("now=%d: unexpected nil", now)
		}
	}
}

func TestComputeState_ContinuityWithinTrack(t *testing.T) {
	rotation := threeTrackRotation()
	const loopStart = 0
	// Inside track 2 (seconds 150..299 of the loop).
	a := ComputeState(rotation, loopStart, 200)
	b := ComputeState(rotation, loopStart, 260)
	if a.Index != 2 || b.Index != 2 {
		t.Fatalf("expected both instants in track 2, got %d and %d", a.Index, b.Index)
	}
	if b.Position-a.Position != 60 {
		t.Errorf("position advanced %d seconds over 60 wall seconds", b.Position-a.Position)
	}
}

func TestComputeState_ExactlyPeriodic(t *testing.T) {
	rotation := threeTrackRotation()
	total := TotalLoopDuration(rotation)
	if total != 300 {
		t.Fatalf("total loop duration = %d, want 300", total)
	}
	for _, now := range []int64{1000, 1042, 1100, 1237, 1299} {
		base := ComputeState(rotation, 1000, now)
		for k := int64(1); k <= 3; k++ {
			wrapped := ComputeState(rotation, 1000, now+k*total)
			if wrapped.Index != base.Index || wrapped.Position != base.Position {
				t.Errorf("now=%d k=%d: got (%d,%d), want (%d,%d)",
					now, k, wrapped.Index, wrapped.Position, base.Index, base.Position)
			}
		}
	}
}

func TestComputeState_BeforeLoopStart(t *testing.T) {
	rotation := threeTrackRotation()
	// A clock slightly behind the epoch clamps to the start of the loop.
	got := ComputeState(rotation, 1000, 990)
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.Index != 0 || got.Position != 0 {
		t.Errorf("got (%d,%d), want (0,0)", got.Index, got.Position)
	}
}

func TestComputeState_DegenerateRotations(t *testing.T) {
	if got := ComputeState(nil, 1000, 2000); got != nil {
		t.Errorf("empty rotation: got %+v, want nil", got)
	}
	zeros := []Track{
		{ID: uuid.New(), DurationSeconds: 0},
		{ID: uuid.New(), DurationSeconds: 0},
	}
	if got := ComputeState(zeros, 1000, 2000); got != nil {
		t.Errorf("all-zero rotation: got %+v, want nil", got)
	}
	negative := []Track{{ID: uuid.New(), DurationSeconds: -30}}
	if got := ComputeState(negative, 1000, 2000); got != nil {
		t.Errorf("negative-duration rotation: got %+v, want nil", got)
	}
}

func TestComputeState_ZeroDurationSlotSkipped(t *testing.T) {
	rotation := []Track{
		{ID: uuid.New(), Title: "A", DurationSeconds: 10},
		{ID: uuid.New(), Title: "Unscanned", DurationSeconds: 0},
		{ID: uuid.New(), Title: "B", DurationSeconds: 20},
	}
	// Second 10 must land on B, never on the zero-weight slot.
	got := ComputeState(rotation, 0, 10)
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.Index != 2 || got.Position != 0 {
		t.Errorf("got (%d,%d), want (2,0)", got.Index, got.Position)
	}
	if TotalLoopDuration(rotation) != 30 {
		t.Errorf("total = %d, want 30", TotalLoopDuration(rotation))
	}
}
