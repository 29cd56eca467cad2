// Package server provides a small cancellable scheduling helper used for
// grace-period departure timers.
package server

import "time"

// ScheduledTask is a handle to a pending callback. Cancelling a task that has
// already fired is a no-op; callers that need to detect the race compare
// handles when the callback lands.
type ScheduledTask struct {
	timer *time.Timer
}

// Cancel stops the task if it has not fired yet.
func (t *ScheduledTask) Cancel() {
	if t != nil && t.timer != nil {
		t.timer.Stop()
	}
}

// schedule runs fn after delay and returns a cancellable handle. The callback
// runs on its own goroutine, so fn must hand work back to the hub loop rather
// than touch room state directly.
func schedule(delay time.Duration, fn func()) *ScheduledTask {
	return &ScheduledTask{timer: time.AfterFunc(delay, fn)}
}
