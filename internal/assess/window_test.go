package assess

import (
	"testing"
	"time"
)

func TestEvaluateWindowBoundaries(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want WindowState
	}{
		{"before start", start.Add(-time.Second), WindowUpcoming},
		{"exactly at start", start, WindowActive},
		{"mid window", start.Add(15 * time.Minute), WindowActive},
		{"exactly at end", end, WindowActive},
		{"millisecond past end", end.Add(time.Millisecond), WindowEnded},
		{"well past end", end.Add(time.Hour), WindowEnded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateWindow(tc.now, start, end); got != tc.want {
				t.Fatalf("EvaluateWindow(%v) = %q, want %q", tc.now, got, tc.want)
			}
		})
	}
}

func TestEvaluateWindowIsPure(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	now := start.Add(time.Minute)
	first := EvaluateWindow(now, start, end)
	for i := 0; i < 100; i++ {
		if got := EvaluateWindow(now, start, end); got != first {
			t.Fatalf("call %d returned %q, first returned %q", i, got, first)
		}
	}
}

func TestAttendanceWindowEnd(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	if got := AttendanceWindowEnd(start, 10); !got.Equal(start.Add(10 * time.Minute)) {
		t.Fatalf("10 min window end = %v", got)
	}
	// zero/negative fall back to the default, mirroring schedules stored
	// before the column existed
	if got := AttendanceWindowEnd(start, 0); !got.Equal(start.Add(15 * time.Minute)) {
		t.Fatalf("default window end = %v", got)
	}
}

// The marking path and the active-session scan must agree at the exact
// boundary instant; both go through ScheduleWindow.
func TestScheduleWindowBoundaryAgreement(t *testing.T) {
	sc := Schedule{
		StartTime:     time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		WindowMinutes: 15,
	}
	boundary := sc.StartTime.Add(15 * time.Minute)

	state, start, end := ScheduleWindow(boundary, sc)
	if state != WindowActive {
		t.Fatalf("state at closing boundary = %q, want active", state)
	}
	if !start.Equal(sc.StartTime) || !end.Equal(boundary) {
		t.Fatalf("bounds = [%v, %v]", start, end)
	}

	state, _, _ = ScheduleWindow(boundary.Add(time.Second), sc)
	if state != WindowEnded {
		t.Fatalf("state past boundary = %q, want ended", state)
	}
}
