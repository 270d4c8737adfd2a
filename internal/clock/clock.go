// Package clock lifts the teacher's direct time.NewTicker/time.AfterFunc
// calls behind a narrow interface, so AI scheduling, reconnect grace
// timers, and the cleanup sweep's staleness cut-off can be driven by a
// fake clock in tests.
package clock

import "time"

// Handle cancels a scheduled callback.
type Handle interface {
	Cancel()
}

// Clock is the time source used throughout the engine.
type Clock interface {
	// Now returns a monotonic instant, used for heartbeat/idle comparisons.
	Now() time.Time
	// WallNow returns a wall-clock timestamp, used for persisted fields
	// like last_action_at.
	WallNow() time.Time
	// ScheduleAfter invokes fn after delay elapses, unless cancelled first.
	ScheduleAfter(delay time.Duration, fn func()) Handle
}

// Real is the production Clock backed by the standard library.
type Real struct{}

func (Real) Now() time.Time     { return time.Now() }
func (Real) WallNow() time.Time { return time.Now() }

func (Real) ScheduleAfter(delay time.Duration, fn func()) Handle {
	t := time.AfterFunc(delay, fn)
	return timerHandle{t}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() { h.t.Stop() }
