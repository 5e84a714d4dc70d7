package host

import "time"

// SystemTimers schedules callbacks on real wall-clock timers.
type SystemTimers struct{}

type systemTimerHandle struct {
	t *time.Timer
}

func (h systemTimerHandle) Stop() {
	h.t.Stop()
}

// AfterFunc runs fn after d on its own goroutine.
func (SystemTimers) AfterFunc(d time.Duration, fn func()) TimerHandle {
	return systemTimerHandle{t: time.AfterFunc(d, fn)}
}
