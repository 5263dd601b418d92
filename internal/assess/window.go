package assess

import "time"

type WindowState string

const (
	WindowUpcoming WindowState = "upcoming"
	WindowActive   WindowState = "active"
	WindowEnded    WindowState = "ended"
)

const DefaultAttendanceWindowMinutes = 15

// EvaluateWindow reports where now falls relative to [start, end].
// Both bounds are inclusive: a request at exactly start or exactly end is active.
func EvaluateWindow(now, start, end time.Time) WindowState {
	if now.Before(start) {
		return WindowUpcoming
	}
	if now.After(end) {
		return WindowEnded
	}
	return WindowActive
}

// AttendanceWindowEnd computes the close of a schedule's marking window.
// Every reader of the window must go through this helper so the marking path
// and the active-session scan agree at the exact boundary instant.
func AttendanceWindowEnd(start time.Time, minutes int) time.Time {
	if minutes < 1 {
		minutes = DefaultAttendanceWindowMinutes
	}
	return start.Add(time.Duration(minutes) * time.Minute)
}

// ScheduleWindow evaluates the attendance window of a schedule.
func ScheduleWindow(now time.Time, s Schedule) (WindowState, time.Time, time.Time) {
	end := AttendanceWindowEnd(s.StartTime, s.WindowMinutes)
	return EvaluateWindow(now, s.StartTime, end), s.StartTime, end
}
