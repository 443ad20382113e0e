package autosave

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing.
	Stop() bool
}

// Scheduler abstracts timer creation so tests can control time. The
// default implementation uses time.AfterFunc.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) After(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewSystemScheduler returns the default wall-clock scheduler.
func NewSystemScheduler() Scheduler {
	return systemScheduler{}
}
